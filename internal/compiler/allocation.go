package compiler

import (
	"math"

	"go.uber.org/zap"

	"github.com/yourorg/symphony-service/internal/model"
)

const weightSumTolerance = 1e-6

// defaultExchange is used when a ticker is not in the venue table. The
// platform accepts it for any US-listed instrument.
const defaultExchange = "XNYS"

type venue struct {
	exchange string
	name     string
}

// venueTable maps the tickers seen in generated strategies to their listing
// venue and display name. Unknown tickers fall back to defaultExchange with a
// warning rather than failing, since the platform resolves the listing itself.
var venueTable = map[string]venue{
	"SPY":  {"ARCX", "SPDR S&P 500 ETF Trust"},
	"VOO":  {"ARCX", "Vanguard S&P 500 ETF"},
	"QQQ":  {"XNAS", "Invesco QQQ Trust"},
	"AGG":  {"ARCX", "iShares Core U.S. Aggregate Bond ETF"},
	"BND":  {"XNAS", "Vanguard Total Bond Market ETF"},
	"TLT":  {"XNAS", "iShares 20+ Year Treasury Bond ETF"},
	"IEF":  {"XNAS", "iShares 7-10 Year Treasury Bond ETF"},
	"SHY":  {"XNAS", "iShares 1-3 Year Treasury Bond ETF"},
	"BIL":  {"ARCX", "SPDR Bloomberg 1-3 Month T-Bill ETF"},
	"GLD":  {"ARCX", "SPDR Gold Shares"},
	"IWM":  {"ARCX", "iShares Russell 2000 ETF"},
	"VTI":  {"ARCX", "Vanguard Total Stock Market ETF"},
	"VEA":  {"ARCX", "Vanguard FTSE Developed Markets ETF"},
	"VWO":  {"ARCX", "Vanguard FTSE Emerging Markets ETF"},
	"VIXY": {"BATS", "ProShares VIX Short-Term Futures ETF"},
	"UVXY": {"BATS", "ProShares Ultra VIX Short-Term Futures ETF"},
	"TQQQ": {"XNAS", "ProShares UltraPro QQQ"},
	"SQQQ": {"XNAS", "ProShares UltraPro Short QQQ"},
	"SPXL": {"ARCX", "Direxion Daily S&P 500 Bull 3X Shares"},
	"UUP":  {"ARCX", "Invesco DB US Dollar Index Bullish Fund"},
	"DBC":  {"ARCX", "Invesco DB Commodity Index Tracking Fund"},
	"XLE":  {"ARCX", "Energy Select Sector SPDR Fund"},
	"XLK":  {"ARCX", "Technology Select Sector SPDR Fund"},
	"XLU":  {"ARCX", "Utilities Select Sector SPDR Fund"},
}

// BuildAllocation converts a flat {assets, weights} allocation into a
// weighting node. Empty weights mean equal weighting; otherwise every child
// carries its fraction and the fractions must sum to 1.0 within tolerance.
func BuildAllocation(assets []string, weights map[string]float64, logger *zap.Logger) (*model.SchemaNode, error) {
	if len(weights) == 0 {
		node := &model.SchemaNode{Step: model.StepWtCashEqual}
		for _, ticker := range assets {
			node.Children = append(node.Children, assetNode(ticker, logger))
		}
		return node, nil
	}

	sum := 0.0
	for _, ticker := range assets {
		sum += weights[ticker]
	}
	if math.Abs(sum-1.0) > weightSumTolerance {
		return nil, &model.WeightSumMismatchError{Sum: sum}
	}

	node := &model.SchemaNode{Step: model.StepWtCashSpecified}
	for _, ticker := range assets {
		child := assetNode(ticker, logger)
		allocation := weights[ticker]
		child.Allocation = &allocation
		node.Children = append(node.Children, child)
	}
	return node, nil
}

func assetNode(ticker string, logger *zap.Logger) *model.SchemaNode {
	v, ok := venueTable[ticker]
	if !ok {
		logger.Warn("Unknown venue for ticker, using default exchange",
			zap.String("ticker", ticker),
			zap.String("exchange", defaultExchange))
		v = venue{exchange: defaultExchange, name: ticker}
	}
	return &model.SchemaNode{
		Step:     model.StepAsset,
		Ticker:   ticker,
		Exchange: v.exchange,
		Name:     v.name,
	}
}
