package extractor

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schrutebeet/stock-market/pkg/config"
)

const stockDailyBody = `{
	"Meta Data": {"2. Symbol": "TSLA"},
	"Time Series (Daily)": {
		"2023-11-17": {
			"1. open": "233.75",
			"2. high": "237.39",
			"3. low": "233.70",
			"4. close": "234.30",
			"5. adjusted close": "234.30",
			"6. volume": "142532335",
			"7. dividend amount": "0.0000",
			"8. split coefficient": "1.0"
		}
	}
}`

func newTestDispatcher(t *testing.T, baseURL string) *Dispatcher {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewDispatcher(&config.AlphaVantageConfig{
		APIKey:            "test-key",
		BaseURL:           baseURL,
		Timeout:           5 * time.Second,
		RequestsPerMinute: 5,
	}, logger)
}

func stockDailyRequest() Request {
	return Request{
		Instrument: InstrumentStock,
		Symbol:     "TSLA",
		Period:     PeriodDaily,
	}
}

func TestDispatcherFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "TIME_SERIES_DAILY_ADJUSTED", r.URL.Query().Get("function"))
		assert.Equal(t, "TSLA", r.URL.Query().Get("symbol"))
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))
		io.WriteString(w, stockDailyBody)
	}))
	defer server.Close()

	d := newTestDispatcher(t, server.URL)
	payload, err := d.Fetch(context.Background(), stockDailyRequest(), DateChunk{})
	require.NoError(t, err)

	require.Contains(t, payload, "2023-11-17")
	assert.Equal(t, "233.75", payload["2023-11-17"]["1. open"])
}

func TestDispatcherIntradayMonthSelector(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "TIME_SERIES_INTRADAY", r.URL.Query().Get("function"))
		assert.Equal(t, "2023-11", r.URL.Query().Get("month"))
		assert.Equal(t, "5min", r.URL.Query().Get("interval"))
		io.WriteString(w, `{"Time Series (5min)": {"2023-11-17 15:55:00": {"1. open": "234.01"}}}`)
	}))
	defer server.Close()

	d := newTestDispatcher(t, server.URL)
	req := Request{Instrument: InstrumentStock, Symbol: "TSLA", Period: Period5Min}
	payload, err := d.Fetch(context.Background(), req, DateChunk{Key: "2023-11"})
	require.NoError(t, err)
	require.Contains(t, payload, "2023-11-17 15:55:00")
}

func TestDispatcherProviderErrorPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"Error Message": "Invalid API call. Please retry or visit the documentation."}`)
	}))
	defer server.Close()

	d := newTestDispatcher(t, server.URL)
	_, err := d.Fetch(context.Background(), stockDailyRequest(), DateChunk{})

	var apiErr *ProviderAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Message, "Invalid API call")
}

func TestDispatcherRateLimitPayload(t *testing.T) {
	bodies := []string{
		`{"Note": "Thank you for using Alpha Vantage! Our standard API rate limit is 25 requests per day."}`,
		`{"Information": "Our standard API rate limit is 25 requests per day."}`,
	}

	for _, body := range bodies {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, body)
		}))

		d := newTestDispatcher(t, server.URL)
		_, err := d.Fetch(context.Background(), stockDailyRequest(), DateChunk{})
		server.Close()

		var apiErr *ProviderAPIError
		require.ErrorAs(t, err, &apiErr)
		// The provider's own throttling text must come through, not a
		// missing-series complaint.
		assert.Contains(t, apiErr.Message, "rate limit")
	}
}

func TestDispatcherEmptyPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{}`)
	}))
	defer server.Close()

	d := newTestDispatcher(t, server.URL)
	_, err := d.Fetch(context.Background(), stockDailyRequest(), DateChunk{})

	var apiErr *ProviderAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Message, "empty payload")
}

func TestDispatcherMissingSeries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"Meta Data": {"2. Symbol": "TSLA"}}`)
	}))
	defer server.Close()

	d := newTestDispatcher(t, server.URL)
	_, err := d.Fetch(context.Background(), stockDailyRequest(), DateChunk{})

	var apiErr *ProviderAPIError
	require.ErrorAs(t, err, &apiErr)
}

func TestDispatcherHTTPErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	d := newTestDispatcher(t, server.URL)
	_, err := d.Fetch(context.Background(), stockDailyRequest(), DateChunk{})

	var apiErr *ProviderAPIError
	require.ErrorAs(t, err, &apiErr)
}

func TestDispatcherConnectivityError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	d := newTestDispatcher(t, server.URL)
	_, err := d.Fetch(context.Background(), stockDailyRequest(), DateChunk{})

	var connErr *ConnectivityError
	require.ErrorAs(t, err, &connErr)
}

type memoryCache struct {
	store map[string]RawPayload
}

func (c *memoryCache) GetPayload(ctx context.Context, key string) (RawPayload, error) {
	return c.store[key], nil
}

func (c *memoryCache) SetPayload(ctx context.Context, key string, payload RawPayload) error {
	c.store[key] = payload
	return nil
}

func TestDispatcherPayloadCache(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		io.WriteString(w, stockDailyBody)
	}))
	defer server.Close()

	d := newTestDispatcher(t, server.URL)
	d.SetCache(&memoryCache{store: make(map[string]RawPayload)})

	_, err := d.Fetch(context.Background(), stockDailyRequest(), DateChunk{})
	require.NoError(t, err)

	payload, err := d.Fetch(context.Background(), stockDailyRequest(), DateChunk{})
	require.NoError(t, err)

	assert.Equal(t, 1, hits, "second fetch must be served from the cache")
	assert.Contains(t, payload, "2023-11-17")
}

func TestFirstObjectKey(t *testing.T) {
	key, err := firstObjectKey([]byte(`{"Error Message": "x", "Time Series (Daily)": {}}`))
	require.NoError(t, err)
	assert.Equal(t, "Error Message", key)

	key, err = firstObjectKey([]byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, "", key)

	_, err = firstObjectKey([]byte(`[1, 2]`))
	require.Error(t, err)
}
