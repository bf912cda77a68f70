package listings

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/schrutebeet/stock-market/internal/extractor"
	"github.com/schrutebeet/stock-market/pkg/config"
	"github.com/schrutebeet/stock-market/pkg/models"
)

// Directory groups accepted by FetchDirectory.
const (
	GroupNasdaq = "nasdaq"
	GroupOther  = "other"
)

// headerNames maps the exchange's directory headers onto canonical column
// names. Both directory files share most headers; "Symbol" and "ACT Symbol"
// are the same identifier under two names.
var headerNames = map[string]string{
	"Symbol":           "symbol",
	"ACT Symbol":       "symbol",
	"Security Name":    "security_name",
	"Market Category":  "market_category",
	"Exchange":         "exchange",
	"Test Issue":       "test_issue",
	"CQS Symbol":       "cqs_symbol",
	"Financial Status": "financial_status",
	"Round Lot Size":   "round_lot_size",
	"NASDAQ Symbol":    "nasdaq_symbol",
	"ETF":              "is_etf",
}

var creationTimePattern = regexp.MustCompile(`(\d+:\d+)`)

// Client fetches reference listings: the exchange symbol directory and the
// provider's listing-status report.
type Client struct {
	httpClient   *http.Client
	directoryURL string
	providerURL  string
	apiKey       string
	logger       *logrus.Entry
}

// NewClient creates a listings client.
func NewClient(cfg *config.AlphaVantageConfig, logger *logrus.Logger) *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		directoryURL: cfg.ListingsURL,
		providerURL:  cfg.BaseURL,
		apiKey:       cfg.APIKey,
		logger:       logger.WithField("component", "listings"),
	}
}

// FetchDirectory downloads and parses one symbol directory file
// (nasdaqlisted.txt or otherlisted.txt).
func (c *Client) FetchDirectory(ctx context.Context, group string) (*models.ListingDirectory, error) {
	if group != GroupNasdaq && group != GroupOther {
		return nil, fmt.Errorf("unknown listing group %q", group)
	}

	url := fmt.Sprintf("%s/%slisted.txt", c.directoryURL, group)
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	dir, err := parseDirectory(body, group)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s directory: %w", group, err)
	}
	dir.RetrievedAt = time.Now()

	c.logger.WithFields(logrus.Fields{
		"group":    group,
		"listings": len(dir.Listings),
	}).Info("Fetched symbol directory")

	return dir, nil
}

// FetchListingStatus downloads the provider's listing-status CSV.
func (c *Client) FetchListingStatus(ctx context.Context) ([]models.StockInfo, error) {
	url := fmt.Sprintf("%s?function=LISTING_STATUS&apikey=%s", c.providerURL, c.apiKey)
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	reader := csv.NewReader(body)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read listing status header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(h)] = i
	}

	var infos []models.StockInfo
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read listing status row: %w", err)
		}

		field := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		symbol := field("symbol")
		if symbol == "" {
			continue
		}
		infos = append(infos, models.StockInfo{
			Symbol:        symbol,
			Name:          field("name"),
			Exchange:      field("exchange"),
			AssetType:     field("assetType"),
			IPODate:       field("ipoDate"),
			DelistingDate: field("delistingDate"),
			Status:        field("status"),
		})
	}

	c.logger.WithField("count", len(infos)).Info("Fetched listing status")
	return infos, nil
}

// get issues the HTTP call, classifying transport failures the same way the
// quote dispatcher does.
func (c *Client) get(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &extractor.ConnectivityError{URL: url, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &extractor.ProviderAPIError{Message: fmt.Sprintf("listing endpoint returned status %d", resp.StatusCode)}
	}

	return resp.Body, nil
}

// parseDirectory reads a pipe-delimited directory file. The last row is a
// "File Creation Time:" trailer carrying the file's creation timestamp.
func parseDirectory(r io.Reader, group string) (*models.ListingDirectory, error) {
	reader := csv.NewReader(r)
	reader.Comma = '|'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		if canonical, ok := headerNames[strings.TrimSpace(h)]; ok {
			index[canonical] = i
		}
	}
	if _, ok := index["symbol"]; !ok {
		return nil, fmt.Errorf("directory file has no symbol column")
	}

	dir := &models.ListingDirectory{Group: group}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		if len(record) == 0 {
			continue
		}

		if strings.Contains(record[0], "File Creation Time:") {
			if ts, ok := parseCreationTime(record[0]); ok {
				dir.SourceTime = &ts
			}
			continue
		}

		field := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		symbol := field("symbol")
		if symbol == "" {
			continue
		}
		dir.Listings = append(dir.Listings, models.SecurityListing{
			Symbol:          symbol,
			SecurityName:    field("security_name"),
			MarketCategory:  field("market_category"),
			Exchange:        field("exchange"),
			TestIssue:       field("test_issue"),
			FinancialStatus: field("financial_status"),
			RoundLotSize:    field("round_lot_size"),
			IsETF:           field("is_etf"),
			CQSSymbol:       field("cqs_symbol"),
			NasdaqSymbol:    field("nasdaq_symbol"),
		})
	}

	return dir, nil
}

// parseCreationTime extracts the trailer timestamp, e.g.
// "File Creation Time: 1201202318:01" -> 2023-12-01 18:01.
func parseCreationTime(s string) (time.Time, bool) {
	match := creationTimePattern.FindString(s)
	if match == "" {
		return time.Time{}, false
	}
	ts, err := time.Parse("0102200615:04", match)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
