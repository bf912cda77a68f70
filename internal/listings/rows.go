package listings

import (
	"time"

	"github.com/schrutebeet/stock-market/pkg/models"
)

// Stocks reduces a directory to its non-ETF listings.
func Stocks(dir *models.ListingDirectory) []models.SecurityListing {
	out := make([]models.SecurityListing, 0, len(dir.Listings))
	for _, l := range dir.Listings {
		if l.IsETF == "Y" {
			continue
		}
		out = append(out, l)
	}
	return out
}

// DirectoryRows materializes directory listings in the column order of the
// matching storage model (NasdaqListedModel or OtherListedModel).
func DirectoryRows(dir *models.ListingDirectory, listings []models.SecurityListing) [][]interface{} {
	var sourceTime interface{}
	if dir.SourceTime != nil {
		sourceTime = *dir.SourceTime
	}
	registrationDate := dir.RetrievedAt.Format("2006-01-02")

	rows := make([][]interface{}, len(listings))
	for i, l := range listings {
		if dir.Group == GroupNasdaq {
			rows[i] = []interface{}{
				dir.RetrievedAt, l.Symbol, l.SecurityName, l.MarketCategory,
				l.TestIssue, l.FinancialStatus, l.RoundLotSize, l.IsETF,
				sourceTime, registrationDate,
			}
		} else {
			rows[i] = []interface{}{
				dir.RetrievedAt, l.Symbol, l.SecurityName, l.Exchange,
				l.CQSSymbol, l.TestIssue, l.RoundLotSize, l.IsETF,
				l.NasdaqSymbol, sourceTime, registrationDate,
			}
		}
	}
	return rows
}

// StatusRows materializes listing-status records in StockInfoModel column
// order.
func StatusRows(infos []models.StockInfo, retrievedAt time.Time) [][]interface{} {
	registrationDate := retrievedAt.Format("2006-01-02")

	rows := make([][]interface{}, len(infos))
	for i, info := range infos {
		rows[i] = []interface{}{
			retrievedAt, info.Symbol, info.Name, info.Exchange, info.AssetType,
			info.IPODate, info.DelistingDate, info.Status, registrationDate,
		}
	}
	return rows
}
