package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/username/bitgains/backend/src/blockchain"
	"github.com/username/bitgains/backend/src/config"
	"github.com/username/bitgains/backend/src/database"
	"github.com/username/bitgains/backend/src/handlers"
	"github.com/username/bitgains/backend/src/logger"
	"github.com/username/bitgains/backend/src/reports"
	"github.com/username/bitgains/backend/src/security"
	"github.com/username/bitgains/backend/src/services"
	"github.com/username/bitgains/backend/src/utils"
)

type cliFlags struct {
	serve     bool
	mintToken bool

	addresses   string
	addressFile string
	reportType  string
	costMethod  string
	direction   string
	dateStart   string
	dateEnd     string
	currency    string
	cols        string
	format      string
	outfile     string

	summarize       bool
	includeTransfer bool
	disableTransfer bool
	includeImported bool
}

func parseFlags() cliFlags {
	var f cliFlags
	flag.BoolVar(&f.serve, "serve", false, "run the HTTP API server instead of a one-shot report")
	flag.BoolVar(&f.mintToken, "mint-token", false, "print a fresh API bearer token and exit")

	flag.StringVar(&f.addresses, "addresses", "", "comma-separated bitcoin addresses")
	flag.StringVar(&f.addressFile, "addressfile", "", "file with one bitcoin address per line")
	flag.StringVar(&f.reportType, "report-type", "ledger", "report type: ledger, schedule_d or matrix")
	flag.StringVar(&f.costMethod, "cost-method", "fifo", "cost method: fifo, lifo, avg_periodic or avg_perpetual")
	flag.StringVar(&f.direction, "direction", "both", "filter rows by direction: in, out or both")
	flag.StringVar(&f.dateStart, "date-start", "", "report period start (YYYY-MM-DD)")
	flag.StringVar(&f.dateEnd, "date-end", "", "report period end (YYYY-MM-DD)")
	flag.StringVar(&f.currency, "currency", "", "fiat currency code (default from config)")
	flag.StringVar(&f.cols, "cols", "", "comma-separated ledger column ids")
	flag.StringVar(&f.format, "format", "txt", "output format: txt, csv, json, jsonpretty or html")
	flag.StringVar(&f.outfile, "outfile", "", "write report to file instead of stdout")

	flag.BoolVar(&f.summarize, "summarize", true, "merge movements that share a transaction id")
	flag.BoolVar(&f.includeTransfer, "include-transfer", false, "include transfer rows in the report")
	flag.BoolVar(&f.disableTransfer, "disable-transfer", false, "classify every movement as purchase or sale")
	flag.BoolVar(&f.includeImported, "include-imported", false, "include stored CSV-imported transactions")

	flag.Parse()
	return f
}

func main() {
	f := parseFlags()

	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	if f.mintToken {
		authService := security.NewAuthService(config.Cfg.JWTSecret, config.Cfg.APITokenTTL)
		token, err := authService.GenerateToken()
		if err != nil {
			stdlog.Fatalf("Failed to mint token: %v", err)
		}
		fmt.Println(token)
		return
	}

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)

	source, err := blockchain.NewSource(config.Cfg)
	if err != nil {
		stdlog.Fatalf("Failed to initialize blockchain source: %v", err)
	}

	priceCache := cache.New(config.Cfg.CurrentPriceTTL, 2*config.Cfg.PriceHistoryTTL)
	priceService, err := services.NewPriceService(config.Cfg, priceCache)
	if err != nil {
		stdlog.Fatalf("Failed to initialize price service: %v", err)
	}

	reportService := services.NewReportService(source, priceService)

	if f.serve {
		runServer(reportService)
		return
	}
	runReport(reportService, f)
}

// runReport executes one report run and writes it to stdout or -outfile.
func runReport(reportService services.ReportService, f cliFlags) {
	addresses, err := collectAddresses(f.addresses, f.addressFile)
	if err != nil {
		stdlog.Fatalf("%v", err)
	}
	if len(addresses) == 0 && !f.includeImported {
		stdlog.Fatalf("No addresses given. Use -addresses, -addressfile or -include-imported.")
	}

	reportType, err := reports.ParseReportType(f.reportType)
	if err != nil {
		stdlog.Fatalf("%v", err)
	}
	format, err := reports.ParseFormat(f.format)
	if err != nil {
		stdlog.Fatalf("%v", err)
	}

	currencyCode := f.currency
	if currencyCode == "" {
		currencyCode = config.Cfg.DefaultCurrency
	}

	var dateStart, dateEnd int64
	if f.dateStart != "" {
		if dateStart, err = utils.ParseDate(f.dateStart); err != nil {
			stdlog.Fatalf("date-start: %v", err)
		}
	}
	if f.dateEnd != "" {
		dayStart, err := utils.ParseDate(f.dateEnd)
		if err != nil {
			stdlog.Fatalf("date-end: %v", err)
		}
		dateEnd = utils.EndOfDay(dayStart)
	}

	var columns []string
	for _, c := range strings.Split(f.cols, ",") {
		if c = strings.TrimSpace(c); c != "" {
			columns = append(columns, c)
		}
	}

	rows, err := reportService.GenerateReport(context.Background(), services.ReportRequest{
		Addresses:       addresses,
		Currency:        currencyCode,
		ReportType:      reportType,
		Columns:         columns,
		CostMethod:      f.costMethod,
		Direction:       f.direction,
		DateStart:       dateStart,
		DateEnd:         dateEnd,
		Summarize:       f.summarize,
		IncludeTransfer: f.includeTransfer,
		DisableTransfer: f.disableTransfer,
		IncludeImported: f.includeImported,
	})
	if err != nil {
		stdlog.Fatalf("Report failed: %v", err)
	}

	out := os.Stdout
	if f.outfile != "" {
		out, err = os.Create(f.outfile)
		if err != nil {
			stdlog.Fatalf("Failed to create %s: %v", f.outfile, err)
		}
		defer out.Close()
	}
	if err := reports.Write(out, rows, format); err != nil {
		stdlog.Fatalf("Failed to write report: %v", err)
	}
}

func collectAddresses(addressList, addressFile string) ([]string, error) {
	var addresses []string
	for _, a := range strings.Split(addressList, ",") {
		if a = strings.TrimSpace(a); a != "" {
			addresses = append(addresses, a)
		}
	}
	if addressFile != "" {
		buf, err := os.ReadFile(addressFile)
		if err != nil {
			return nil, fmt.Errorf("reading address file: %w", err)
		}
		for _, line := range strings.Split(string(buf), "\n") {
			if line = strings.TrimSpace(line); line != "" && !strings.HasPrefix(line, "#") {
				addresses = append(addresses, line)
			}
		}
	}
	return addresses, nil
}

func runServer(reportService services.ReportService) {
	logger.L.Info("Bitgains backend server starting...")

	authService := security.NewAuthService(config.Cfg.JWTSecret, config.Cfg.APITokenTTL)
	reportHandler := handlers.NewReportHandler(reportService)
	importHandler := handlers.NewImportHandler(reportService)

	limiter := rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	apiRouter := http.NewServeMux()

	apiRouter.Handle("GET /api/report", handlers.AuthMiddleware(authService, http.HandlerFunc(reportHandler.HandleGenerateReport)))
	apiRouter.Handle("POST /api/fetch", handlers.AuthMiddleware(authService, http.HandlerFunc(reportHandler.HandleFetchAddresses)))
	apiRouter.Handle("POST /api/import", handlers.AuthMiddleware(authService, http.HandlerFunc(importHandler.HandleImportCSV)))

	rootMux.Handle("/api/", apiRouter)

	rootMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"message": "BITGAINS Backend is running"})
			return
		}
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			logger.L.Warn("Root level path not found", "method", r.Method, "path", r.URL.Path)
			http.NotFound(w, r)
		}
	})

	logger.L.Info("Applying global middleware...")
	finalHandler := handlers.RateLimitMiddleware(limiter, rootMux)

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	} else if err == http.ErrServerClosed {
		logger.L.Info("Server stopped gracefully.")
	}
}
