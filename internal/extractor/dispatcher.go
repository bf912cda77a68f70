package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/schrutebeet/stock-market/pkg/config"
)

// RawPayload is a provider time series keyed by timestamp string, each value
// a mapping of provider field labels (e.g. "1. open") to string-encoded
// numbers.
type RawPayload map[string]map[string]string

// PayloadCache caches raw provider payloads per chunk so re-runs inside the
// TTL skip the network. A nil cache disables caching.
type PayloadCache interface {
	GetPayload(ctx context.Context, key string) (RawPayload, error)
	SetPayload(ctx context.Context, key string, payload RawPayload) error
}

// Dispatcher builds provider request URLs per (symbol, period, chunk),
// issues the HTTP calls and classifies provider-level error payloads.
type Dispatcher struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *logrus.Entry
	cache      PayloadCache

	// Rate limiting (free tier allows a handful of calls per minute)
	rateLimiter chan struct{}
}

// NewDispatcher creates a dispatcher for the configured provider.
func NewDispatcher(cfg *config.AlphaVantageConfig, logger *logrus.Logger) *Dispatcher {
	d := &Dispatcher{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		logger:      logger.WithField("component", "dispatcher"),
		rateLimiter: make(chan struct{}, 1),
	}

	// Prime one token so the first request never waits.
	d.rateLimiter <- struct{}{}
	go d.rateLimitWorker(cfg.RequestsPerMinute)

	return d
}

// SetCache attaches a raw-payload cache.
func (d *Dispatcher) SetCache(cache PayloadCache) { d.cache = cache }

// rateLimitWorker refills the limiter at the provider's allowed pace.
func (d *Dispatcher) rateLimitWorker(requestsPerMinute int) {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 5
	}
	ticker := time.NewTicker(time.Minute / time.Duration(requestsPerMinute))
	defer ticker.Stop()

	for range ticker.C {
		select {
		case d.rateLimiter <- struct{}{}:
		default:
		}
	}
}

// Fetch retrieves the raw time series for one (request, chunk) pair.
func (d *Dispatcher) Fetch(ctx context.Context, req Request, chunk DateChunk) (RawPayload, error) {
	url, seriesKey, err := d.endpoint(req, chunk)
	if err != nil {
		return nil, err
	}

	cacheKey := d.cacheKey(req, chunk)
	if d.cache != nil {
		if payload, err := d.cache.GetPayload(ctx, cacheKey); err != nil {
			d.logger.WithError(err).Warn("Payload cache lookup failed")
		} else if payload != nil {
			d.logger.WithField("key", cacheKey).Debug("Payload served from cache")
			return payload, nil
		}
	}

	select {
	case <-d.rateLimiter:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	body, err := d.get(ctx, url)
	if err != nil {
		return nil, err
	}

	payload, err := decodeSeries(body, seriesKey)
	if err != nil {
		return nil, err
	}

	if d.cache != nil {
		if err := d.cache.SetPayload(ctx, cacheKey, payload); err != nil {
			d.logger.WithError(err).Warn("Payload cache store failed")
		}
	}

	return payload, nil
}

// endpoint selects the provider endpoint template for the request and returns
// the full URL plus the JSON key holding the time series.
func (d *Dispatcher) endpoint(req Request, chunk DateChunk) (url, seriesKey string, err error) {
	intraday := req.Period.IsIntraday()

	switch req.Instrument {
	case InstrumentForex:
		from, to, ok := req.PairSymbols()
		if !ok {
			return "", "", fmt.Errorf("invalid forex pair %q, expected FROM/TO", req.Symbol)
		}
		if intraday {
			url = fmt.Sprintf("%s?function=FX_INTRADAY&from_symbol=%s&to_symbol=%s&interval=%s&outputsize=full&apikey=%s",
				d.baseURL, from, to, req.Period, d.apiKey)
			seriesKey = fmt.Sprintf("Time Series FX (%s)", req.Period)
		} else {
			url = fmt.Sprintf("%s?function=FX_DAILY&from_symbol=%s&to_symbol=%s&outputsize=full&apikey=%s",
				d.baseURL, from, to, d.apiKey)
			seriesKey = "Time Series FX (Daily)"
		}

	case InstrumentCrypto:
		if intraday {
			url = fmt.Sprintf("%s?function=CRYPTO_INTRADAY&symbol=%s&market=%s&interval=%s&outputsize=full&apikey=%s",
				d.baseURL, req.Symbol, req.Market, req.Period, d.apiKey)
			seriesKey = fmt.Sprintf("Time Series Crypto (%s)", req.Period)
		} else {
			url = fmt.Sprintf("%s?function=DIGITAL_CURRENCY_DAILY&symbol=%s&market=%s&apikey=%s",
				d.baseURL, req.Symbol, req.Market, d.apiKey)
			seriesKey = "Time Series (Digital Currency Daily)"
		}

	default: // stock
		if intraday {
			url = fmt.Sprintf("%s?function=TIME_SERIES_INTRADAY&symbol=%s&month=%s&interval=%s&outputsize=full&apikey=%s",
				d.baseURL, req.Symbol, chunk.Key, req.Period, d.apiKey)
			seriesKey = fmt.Sprintf("Time Series (%s)", req.Period)
		} else {
			url = fmt.Sprintf("%s?function=TIME_SERIES_DAILY_ADJUSTED&symbol=%s&outputsize=full&apikey=%s",
				d.baseURL, req.Symbol, d.apiKey)
			seriesKey = "Time Series (Daily)"
		}
	}

	return url, seriesKey, nil
}

// cacheKey identifies one chunk fetch without leaking the API key.
func (d *Dispatcher) cacheKey(req Request, chunk DateChunk) string {
	parts := []string{"payload", string(req.Instrument), req.Symbol, string(req.Period)}
	if req.Market != "" {
		parts = append(parts, req.Market)
	}
	if chunk.Key != "" {
		parts = append(parts, chunk.Key)
	}
	return strings.Join(parts, ":")
}

// get performs the HTTP call, distinguishing transport failures from
// provider-level errors.
func (d *Dispatcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, &ConnectivityError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderAPIError{Message: fmt.Sprintf("API returned status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ConnectivityError{URL: url, Err: err}
	}

	return body, nil
}

// decodeSeries validates the payload and extracts the time series under
// seriesKey. An empty payload, or one whose first key is an
// "error message"-style key, is a provider error.
func decodeSeries(body []byte, seriesKey string) (RawPayload, error) {
	firstKey, err := firstObjectKey(body)
	if err != nil {
		return nil, &ProviderAPIError{Message: fmt.Sprintf("malformed response: %v", err)}
	}
	if firstKey == "" {
		return nil, &ProviderAPIError{Message: "API response returned an empty payload"}
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &ProviderAPIError{Message: fmt.Sprintf("malformed response: %v", err)}
	}

	if isProviderMessageKey(firstKey) {
		var msg string
		if err := json.Unmarshal(envelope[firstKey], &msg); err != nil {
			msg = string(envelope[firstKey])
		}
		return nil, &ProviderAPIError{Message: msg}
	}

	raw, ok := envelope[seriesKey]
	if !ok {
		return nil, &ProviderAPIError{Message: fmt.Sprintf("response is missing series %q", seriesKey)}
	}

	var payload RawPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &ProviderAPIError{Message: fmt.Sprintf("malformed series %q: %v", seriesKey, err)}
	}

	return payload, nil
}

// isProviderMessageKey reports whether a first key marks an error or
// rate-limit payload. The provider uses "Error Message" for bad requests and
// "Note" or "Information" for throttling.
func isProviderMessageKey(key string) bool {
	return strings.EqualFold(key, "error message") ||
		strings.EqualFold(key, "note") ||
		strings.EqualFold(key, "information")
}

// firstObjectKey returns the first key of a JSON object, or "" for an empty
// object. Key order matters here: the provider reports errors under the first
// key of the payload.
func firstObjectKey(body []byte) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(body))

	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return "", fmt.Errorf("expected JSON object, got %v", tok)
	}

	if !dec.More() {
		return "", nil
	}

	tok, err = dec.Token()
	if err != nil {
		return "", err
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected object key, got %v", tok)
	}

	return key, nil
}
