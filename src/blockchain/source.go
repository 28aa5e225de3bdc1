package blockchain

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"

	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"

	"github.com/username/bitgains/backend/src/config"
	"github.com/username/bitgains/backend/src/models"
)

// Source fetches the on-chain movement history for a set of addresses.
type Source interface {
	FetchMovements(ctx context.Context, addresses []string) ([]models.RawMovement, error)
}

// NewSource builds the configured blockchain client. The config layer
// validates the provider name at startup, so an unknown value here is a
// programming error.
func NewSource(cfg *config.AppConfig) (Source, error) {
	client, err := newHTTPClient(cfg)
	if err != nil {
		return nil, err
	}
	limiter := rate.NewLimiter(rate.Limit(cfg.UpstreamRPS), cfg.UpstreamBurst)

	switch cfg.BlockchainAPI {
	case "toshi":
		return &ToshiClient{
			BaseURL: cfg.ToshiBaseURL,
			Limit:   cfg.AddrTxLimit,
			client:  client,
			limiter: limiter,
		}, nil
	case "insight":
		return &InsightClient{
			BaseURL: cfg.InsightBaseURL,
			client:  client,
			limiter: limiter,
		}, nil
	}
	return nil, fmt.Errorf("unknown blockchain api %q", cfg.BlockchainAPI)
}

func newHTTPClient(cfg *config.AppConfig) (*http.Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return &http.Client{
		Jar:     jar,
		Timeout: cfg.HTTPTimeout,
	}, nil
}
