package extractor

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/schrutebeet/stock-market/pkg/models"
)

// Extractor fetches and normalizes quotes for one instrument type. Variants
// share the chunk/fetch/normalize/filter pipeline and differ only in how
// they chunk requests and validate identifiers.
type Extractor interface {
	Extract(ctx context.Context, req Request) (*models.Table, error)
}

// New returns the extractor variant for the given instrument type.
func New(instrument InstrumentType, dispatcher *Dispatcher, logger *logrus.Logger) (Extractor, error) {
	switch instrument {
	case InstrumentStock:
		return &stockExtractor{pipeline{dispatcher, logger.WithField("component", "stock-extractor")}}, nil
	case InstrumentForex:
		return &forexExtractor{pipeline{dispatcher, logger.WithField("component", "forex-extractor")}}, nil
	case InstrumentCrypto:
		return &cryptoExtractor{pipeline{dispatcher, logger.WithField("component", "crypto-extractor")}}, nil
	default:
		return nil, fmt.Errorf("unknown instrument type %q", instrument)
	}
}

// pipeline is the shared fetch → merge → normalize → filter flow.
type pipeline struct {
	dispatcher *Dispatcher
	logger     *logrus.Entry
}

// run executes the pipeline over the given chunks and returns the filtered
// canonical table.
func (p pipeline) run(ctx context.Context, req Request, chunks []DateChunk) (*models.Table, error) {
	merged := make(RawPayload)
	for _, chunk := range chunks {
		payload, err := p.dispatcher.Fetch(ctx, req, chunk)
		if err != nil {
			return nil, err
		}
		for stamp, fields := range payload {
			merged[stamp] = fields
		}
		if chunk.Key != "" {
			p.logger.WithFields(logrus.Fields{
				"symbol": req.Symbol,
				"chunk":  chunk.Key,
			}).Info("Extracted chunk")
		}
	}

	table, err := Normalize(merged, req)
	if err != nil {
		return nil, err
	}

	table = WindowFilter(table, req.From, req.Until, p.logger)
	if table.Len() == 0 {
		return nil, &EmptyResultError{Symbol: req.Symbol, From: req.From, Until: req.Until}
	}

	p.logger.WithFields(logrus.Fields{
		"symbol": req.Symbol,
		"rows":   table.Len(),
	}).Debug("Quote data imported successfully")

	return table, nil
}

// chunksFor picks the chunking policy: intraday endpoints take a month
// selector, daily endpoints return the full series in one call.
func (p pipeline) chunksFor(req Request) ([]DateChunk, error) {
	if req.Period.IsIntraday() {
		return MonthChunks(req.From, req.Until)
	}
	return []DateChunk{{Start: req.From, End: req.Until}}, nil
}

type stockExtractor struct {
	pipeline
}

func (e *stockExtractor) Extract(ctx context.Context, req Request) (*models.Table, error) {
	req.Instrument = InstrumentStock
	if err := req.Validate(); err != nil {
		return nil, err
	}

	chunks, err := e.chunksFor(req)
	if err != nil {
		return nil, err
	}
	return e.run(ctx, req, chunks)
}

type forexExtractor struct {
	pipeline
}

func (e *forexExtractor) Extract(ctx context.Context, req Request) (*models.Table, error) {
	req.Instrument = InstrumentForex
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, _, ok := req.PairSymbols(); !ok {
		return nil, fmt.Errorf("invalid forex pair %q, expected FROM/TO form like EUR/USD", req.Symbol)
	}

	// The FX endpoints return the full recent series in one call for both
	// daily and intraday, so no month chunking applies.
	return e.run(ctx, req, []DateChunk{{Start: req.From, End: req.Until}})
}

type cryptoExtractor struct {
	pipeline
}

func (e *cryptoExtractor) Extract(ctx context.Context, req Request) (*models.Table, error) {
	req.Instrument = InstrumentCrypto
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Market == "" {
		return nil, fmt.Errorf("crypto extraction requires a market currency")
	}

	// The crypto endpoints take no month selector; both return the full
	// recent series in one call.
	return e.run(ctx, req, []DateChunk{{Start: req.From, End: req.Until}})
}
