package services

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"golang.org/x/net/publicsuffix"

	"github.com/username/bitgains/backend/src/config"
	"github.com/username/bitgains/backend/src/database"
	"github.com/username/bitgains/backend/src/logger"
	"github.com/username/bitgains/backend/src/utils"
)

// priceProvider is one upstream price oracle.
type priceProvider interface {
	// RetrievePriceHistory returns the full daily average series keyed by
	// YYYY-MM-DD, in cents per BTC.
	RetrievePriceHistory(ctx context.Context, currencyCode string) (map[string]int64, error)
	// Current24hAvgPrice returns the 24-hour average in cents per BTC.
	Current24hAvgPrice(ctx context.Context, currencyCode string) (int64, error)
}

// priceServiceImpl caches provider responses and persists daily series to the
// database so repeated report runs stay off the network.
type priceServiceImpl struct {
	provider        priceProvider
	cache           *cache.Cache
	currentPriceTTL time.Duration
	historyTTL      time.Duration
}

// NewPriceService builds the configured price oracle with an injected cache.
func NewPriceService(cfg *config.AppConfig, priceCache *cache.Cache) (PriceService, error) {
	client, err := newOracleHTTPClient(cfg.HTTPTimeout)
	if err != nil {
		return nil, err
	}

	var provider priceProvider
	switch cfg.PriceAPI {
	case "btcaverage":
		provider = &btcAverageProvider{baseURL: cfg.BTCAverageBaseURL, client: client}
	case "bitcoincom":
		provider = &bitcoinComProvider{baseURL: cfg.BitcoinComBaseURL, client: client}
	default:
		return nil, fmt.Errorf("unknown price api %q", cfg.PriceAPI)
	}

	return &priceServiceImpl{
		provider:        provider,
		cache:           priceCache,
		currentPriceTTL: cfg.CurrentPriceTTL,
		historyTTL:      cfg.PriceHistoryTTL,
	}, nil
}

func newOracleHTTPClient(timeout time.Duration) (*http.Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return &http.Client{Jar: jar, Timeout: timeout}, nil
}

func (s *priceServiceImpl) HistoricPrice(ctx context.Context, currencyCode string, timestamp int64) (int64, error) {
	currencyCode = strings.ToUpper(currencyCode)
	date := utils.FormatDate(timestamp)

	if date == utils.FormatDate(time.Now().Unix()) {
		return s.CurrentAvgPrice(ctx, currencyCode)
	}

	series, err := s.historicSeries(ctx, currencyCode, false)
	if err != nil {
		return 0, err
	}
	if price, ok := series[date]; ok && price != 0 {
		return price, nil
	}

	// A date past the end of the cached series may exist upstream.
	series, err = s.historicSeries(ctx, currencyCode, true)
	if err != nil {
		return 0, err
	}
	if price, ok := series[date]; ok && price != 0 {
		return price, nil
	}
	return 0, fmt.Errorf("no %s price available for %s", currencyCode, date)
}

func (s *priceServiceImpl) CurrentAvgPrice(ctx context.Context, currencyCode string) (int64, error) {
	currencyCode = strings.ToUpper(currencyCode)
	cacheKey := "current:" + currencyCode

	if cached, found := s.cache.Get(cacheKey); found {
		return cached.(int64), nil
	}

	price, err := s.provider.Current24hAvgPrice(ctx, currencyCode)
	if err != nil {
		return 0, fmt.Errorf("fetching current %s price: %w", currencyCode, err)
	}
	s.cache.Set(cacheKey, price, s.currentPriceTTL)
	return price, nil
}

// historicSeries returns the daily series for a currency, consulting cache,
// then database, then the provider. refresh forces a provider download.
func (s *priceServiceImpl) historicSeries(ctx context.Context, currencyCode string, refresh bool) (map[string]int64, error) {
	cacheKey := "history:" + currencyCode

	if !refresh {
		if cached, found := s.cache.Get(cacheKey); found {
			return cached.(map[string]int64), nil
		}
		if database.DB != nil {
			if stored, err := database.LoadPrices(currencyCode); err != nil {
				logger.L.Warn("Failed to load stored price series", "currency", currencyCode, "error", err)
			} else if len(stored) > 0 {
				s.cache.Set(cacheKey, stored, s.historyTTL)
				return stored, nil
			}
		}
	}

	logger.L.Info("Retrieving price history", "currency", currencyCode)
	series, err := s.provider.RetrievePriceHistory(ctx, currencyCode)
	if err != nil {
		return nil, fmt.Errorf("fetching %s price history: %w", currencyCode, err)
	}
	if database.DB != nil {
		for date, cents := range series {
			if err := database.SavePrice(currencyCode, date, cents); err != nil {
				logger.L.Warn("Failed to persist price row", "currency", currencyCode, "date", date, "error", err)
				break
			}
		}
	}
	s.cache.Set(cacheKey, series, s.historyTTL)
	return series, nil
}

// btcAverageProvider speaks the bitcoinaverage.com global index API.
type btcAverageProvider struct {
	baseURL string
	client  *http.Client
}

func (p *btcAverageProvider) RetrievePriceHistory(ctx context.Context, currencyCode string) (map[string]int64, error) {
	url := fmt.Sprintf("%s/indices/global/history/BTC%s?period=alltime&format=csv", p.baseURL, currencyCode)
	body, err := fetchBody(ctx, p.client, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return parseHistoryCSV(body)
}

func (p *btcAverageProvider) Current24hAvgPrice(ctx context.Context, currencyCode string) (int64, error) {
	url := fmt.Sprintf("%s/indices/global/ticker/BTC%s", p.baseURL, currencyCode)
	body, err := fetchBody(ctx, p.client, url)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	var payload struct {
		Averages struct {
			Day decimal.Decimal `json:"day"`
		} `json:"averages"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("decoding ticker response: %w", err)
	}
	return payload.Averages.Day.Mul(decimal.NewFromInt(100)).Round(0).IntPart(), nil
}

// parseHistoryCSV reads rows of DateTime,High,Low,Average,Volume and maps
// each day to the average price in cents.
func parseHistoryCSV(r io.Reader) (map[string]int64, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("reading history header: %w", err)
	}

	series := make(map[string]int64)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading history row: %w", err)
		}
		if len(record) < 4 || record[0] == "" || record[3] == "" {
			continue
		}
		if len(record[0]) < 10 {
			continue
		}
		date := record[0][:10]
		avg, err := decimal.NewFromString(record[3])
		if err != nil {
			logger.L.Warn("Skipping unparsable price row", "date", date, "value", record[3])
			continue
		}
		series[date] = avg.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	}
	return series, nil
}

// bitcoinComProvider speaks the index-api.bitcoin.com price index. It reports
// cents directly and offers a spot price rather than a 24-hour average.
type bitcoinComProvider struct {
	baseURL string
	client  *http.Client
}

func (p *bitcoinComProvider) RetrievePriceHistory(ctx context.Context, currencyCode string) (map[string]int64, error) {
	url := fmt.Sprintf("%s/api/v0/history?span=all&unix=1", p.baseURL)
	body, err := fetchBody(ctx, p.client, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var rows [][2]int64
	if err := json.NewDecoder(body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decoding history response: %w", err)
	}
	series := make(map[string]int64, len(rows))
	for _, row := range rows {
		series[utils.FormatDate(row[0])] = row[1]
	}
	return series, nil
}

func (p *bitcoinComProvider) Current24hAvgPrice(ctx context.Context, currencyCode string) (int64, error) {
	url := fmt.Sprintf("%s/api/v0/price/%s", p.baseURL, strings.ToLower(currencyCode))
	body, err := fetchBody(ctx, p.client, url)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	var payload struct {
		Price int64 `json:"price"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("decoding price response: %w", err)
	}
	return payload.Price, nil
}

func fetchBody(ctx context.Context, client *http.Client, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: unexpected status %s", url, resp.Status)
	}
	return resp.Body, nil
}
