package models

import "time"

// SecurityListing is one row of the NASDAQ Trader symbol directory
// (nasdaqlisted.txt / otherlisted.txt).
type SecurityListing struct {
	Symbol          string
	SecurityName    string
	MarketCategory  string
	Exchange        string
	TestIssue       string
	FinancialStatus string
	RoundLotSize    string
	IsETF           string
	CQSSymbol       string
	NasdaqSymbol    string
}

// ListingDirectory is a parsed symbol-directory file plus the creation
// timestamp the exchange stamps on the trailer row.
type ListingDirectory struct {
	Group       string
	Listings    []SecurityListing
	SourceTime  *time.Time
	RetrievedAt time.Time
}

// StockInfo is one row of the provider's listing-status report
// (symbol, company name, exchange, asset type and listing lifecycle dates).
type StockInfo struct {
	Symbol        string
	Name          string
	Exchange      string
	AssetType     string
	IPODate       string
	DelistingDate string
	Status        string
}
