package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/username/bitgains/backend/src/config"
	"github.com/username/bitgains/backend/src/logger"
	"github.com/username/bitgains/backend/src/reports"
	"github.com/username/bitgains/backend/src/services"
	"github.com/username/bitgains/backend/src/utils"
)

type ReportHandler struct {
	reportService services.ReportService
}

func NewReportHandler(service services.ReportService) *ReportHandler {
	return &ReportHandler{
		reportService: service,
	}
}

// HandleGenerateReport runs one report and streams it in the requested
// format. All parameters arrive as query values.
func (h *ReportHandler) HandleGenerateReport(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	req, err := buildReportRequest(query)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	format, err := reports.ParseFormat(query.Get("format"))
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	logger.L.Info("Generating report",
		"reportType", string(req.ReportType),
		"costMethod", req.CostMethod,
		"addresses", len(req.Addresses),
		"currency", req.Currency)

	rows, err := h.reportService.GenerateReport(r.Context(), req)
	if err != nil {
		logger.L.Error("Report generation failed", "error", err)
		utils.SendJSONError(w, fmt.Sprintf("Error generating report: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	if err := reports.Write(w, rows, format); err != nil {
		logger.L.Error("Failed to write report response", "error", err)
	}
}

// HandleFetchAddresses fetches and stores movements for the given addresses
// without producing a report.
func (h *ReportHandler) HandleFetchAddresses(w http.ResponseWriter, r *http.Request) {
	addresses := splitList(r.URL.Query().Get("addresses"))
	if len(addresses) == 0 {
		utils.SendJSONError(w, "at least one address is required", http.StatusBadRequest)
		return
	}

	logger.L.Info("Fetching movements", "addresses", len(addresses))
	count, err := h.reportService.FetchAddresses(r.Context(), addresses)
	if err != nil {
		logger.L.Error("Address fetch failed", "error", err)
		utils.SendJSONError(w, fmt.Sprintf("Error fetching movements: %v", err), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message":   "movements fetched",
		"movements": count,
	})
}

func buildReportRequest(query url.Values) (services.ReportRequest, error) {
	addresses := splitList(query.Get("addresses"))
	if len(addresses) == 0 && query.Get("include-imported") != "true" {
		return services.ReportRequest{}, fmt.Errorf("at least one address or include-imported=true is required")
	}

	reportType, err := reports.ParseReportType(query.Get("report-type"))
	if err != nil {
		return services.ReportRequest{}, err
	}

	currencyCode := query.Get("currency")
	if currencyCode == "" {
		currencyCode = config.Cfg.DefaultCurrency
	}

	var dateStart, dateEnd int64
	if v := query.Get("date-start"); v != "" {
		if dateStart, err = utils.ParseDate(v); err != nil {
			return services.ReportRequest{}, fmt.Errorf("date-start: %w", err)
		}
	}
	if v := query.Get("date-end"); v != "" {
		dayStart, err := utils.ParseDate(v)
		if err != nil {
			return services.ReportRequest{}, fmt.Errorf("date-end: %w", err)
		}
		dateEnd = utils.EndOfDay(dayStart)
	}

	return services.ReportRequest{
		Addresses:       addresses,
		Currency:        currencyCode,
		ReportType:      reportType,
		Columns:         splitList(query.Get("cols")),
		CostMethod:      query.Get("cost-method"),
		Direction:       query.Get("direction"),
		DateStart:       dateStart,
		DateEnd:         dateEnd,
		Summarize:       query.Get("summarize") != "false",
		IncludeTransfer: query.Get("include-transfer") == "true",
		DisableTransfer: query.Get("disable-transfer") == "true",
		IncludeImported: query.Get("include-imported") == "true",
	}, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
