package listings

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schrutebeet/stock-market/pkg/config"
)

const nasdaqDirectoryFile = `Symbol|Security Name|Market Category|Test Issue|Financial Status|Round Lot Size|ETF|NextShares
AAPL|Apple Inc. - Common Stock|Q|N|N|100|N|N
QQQ|Invesco QQQ Trust|G|N|N|100|Y|N
TSLA|Tesla, Inc. - Common Stock|Q|N|N|100|N|N
File Creation Time: 1201202318:01|||||||
`

const otherDirectoryFile = `ACT Symbol|Security Name|Exchange|CQS Symbol|ETF|Round Lot Size|Test Issue|NASDAQ Symbol
A|Agilent Technologies Inc.|N|A|N|100|N|A
SPY|SPDR S&P 500 ETF Trust|P|SPY|Y|100|N|SPY
File Creation Time: 1201202318:02|||||||
`

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewClient(&config.AlphaVantageConfig{
		APIKey:      "test-key",
		BaseURL:     baseURL,
		ListingsURL: baseURL,
		Timeout:     5 * time.Second,
	}, logger)
}

func TestParseDirectoryNasdaq(t *testing.T) {
	dir, err := parseDirectory(strings.NewReader(nasdaqDirectoryFile), GroupNasdaq)
	require.NoError(t, err)

	require.Len(t, dir.Listings, 3)
	assert.Equal(t, "AAPL", dir.Listings[0].Symbol)
	assert.Equal(t, "Apple Inc. - Common Stock", dir.Listings[0].SecurityName)
	assert.Equal(t, "Q", dir.Listings[0].MarketCategory)
	assert.Equal(t, "N", dir.Listings[0].IsETF)
	assert.Equal(t, "Y", dir.Listings[1].IsETF)

	require.NotNil(t, dir.SourceTime)
	assert.Equal(t, time.Date(2023, time.December, 1, 18, 1, 0, 0, time.UTC), *dir.SourceTime)
}

func TestParseDirectoryOther(t *testing.T) {
	dir, err := parseDirectory(strings.NewReader(otherDirectoryFile), GroupOther)
	require.NoError(t, err)

	require.Len(t, dir.Listings, 2)
	// "ACT Symbol" maps onto the same symbol column as "Symbol".
	assert.Equal(t, "A", dir.Listings[0].Symbol)
	assert.Equal(t, "N", dir.Listings[0].Exchange)
	assert.Equal(t, "SPY", dir.Listings[1].CQSSymbol)
	assert.Equal(t, "SPY", dir.Listings[1].NasdaqSymbol)
}

func TestParseDirectoryMissingSymbolColumn(t *testing.T) {
	_, err := parseDirectory(strings.NewReader("Foo|Bar\nx|y\n"), GroupNasdaq)
	require.Error(t, err)
}

func TestStocksFiltersETFs(t *testing.T) {
	dir, err := parseDirectory(strings.NewReader(nasdaqDirectoryFile), GroupNasdaq)
	require.NoError(t, err)

	stocks := Stocks(dir)
	require.Len(t, stocks, 2)
	assert.Equal(t, "AAPL", stocks[0].Symbol)
	assert.Equal(t, "TSLA", stocks[1].Symbol)
}

func TestDirectoryRowsColumnOrder(t *testing.T) {
	dir, err := parseDirectory(strings.NewReader(nasdaqDirectoryFile), GroupNasdaq)
	require.NoError(t, err)
	dir.RetrievedAt = time.Date(2023, time.December, 1, 19, 0, 0, 0, time.UTC)

	rows := DirectoryRows(dir, Stocks(dir))
	require.Len(t, rows, 2)

	// timestamp, symbol, security_name, market_category, test_issue,
	// financial_status, round_lot_size, is_etf, source_time, registration_date
	row := rows[0]
	require.Len(t, row, 10)
	assert.Equal(t, dir.RetrievedAt, row[0])
	assert.Equal(t, "AAPL", row[1])
	assert.Equal(t, "Q", row[3])
	assert.Equal(t, *dir.SourceTime, row[8])
	assert.Equal(t, "2023-12-01", row[9])
}

func TestFetchDirectory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/nasdaqlisted.txt", r.URL.Path)
		io.WriteString(w, nasdaqDirectoryFile)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	dir, err := client.FetchDirectory(context.Background(), GroupNasdaq)
	require.NoError(t, err)

	assert.Equal(t, GroupNasdaq, dir.Group)
	assert.Len(t, dir.Listings, 3)
	assert.False(t, dir.RetrievedAt.IsZero())
}

func TestFetchDirectoryUnknownGroup(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:0")
	_, err := client.FetchDirectory(context.Background(), "amex")
	require.Error(t, err)
}

func TestFetchListingStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "LISTING_STATUS", r.URL.Query().Get("function"))
		io.WriteString(w, "symbol,name,exchange,assetType,ipoDate,delistingDate,status\n"+
			"AAPL,Apple Inc,NASDAQ,Stock,1980-12-12,null,Active\n"+
			"SPY,SPDR S&P 500 ETF Trust,NYSE ARCA,ETF,1993-01-22,null,Active\n")
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	infos, err := client.FetchListingStatus(context.Background())
	require.NoError(t, err)

	require.Len(t, infos, 2)
	assert.Equal(t, "AAPL", infos[0].Symbol)
	assert.Equal(t, "Apple Inc", infos[0].Name)
	assert.Equal(t, "1980-12-12", infos[0].IPODate)
	assert.Equal(t, "ETF", infos[1].AssetType)
}

func TestStatusRows(t *testing.T) {
	retrievedAt := time.Date(2023, time.December, 1, 19, 0, 0, 0, time.UTC)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "symbol,name,exchange,assetType,ipoDate,delistingDate,status\n"+
			"AAPL,Apple Inc,NASDAQ,Stock,1980-12-12,null,Active\n")
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	infos, err := client.FetchListingStatus(context.Background())
	require.NoError(t, err)

	rows := StatusRows(infos, retrievedAt)
	require.Len(t, rows, 1)
	require.Len(t, rows[0], 9)
	assert.Equal(t, retrievedAt, rows[0][0])
	assert.Equal(t, "AAPL", rows[0][1])
	assert.Equal(t, "2023-12-01", rows[0][8])
}
