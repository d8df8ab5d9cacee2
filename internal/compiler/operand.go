package compiler

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/yourorg/symphony-service/internal/model"
)

// The platform rejects an instantaneous-price function inside conditional
// nodes, so a bare ticker (or TICKER_price) resolves to a one-day moving
// average instead. The two are equivalent on daily bars; if the platform ever
// accepts current price in conditions this is the one constant to change.
const priceProxyWindow = 1

var (
	reLiteral   = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)
	reTicker    = regexp.MustCompile(`^[A-Z][A-Z0-9.]*$`)
	rePrice     = regexp.MustCompile(`^([A-Z][A-Z0-9.]*)_price$`)
	reMA        = regexp.MustCompile(`^([A-Z][A-Z0-9.]*)_([0-9]+)d_MA$`)
	reCumReturn = regexp.MustCompile(`^([A-Z][A-Z0-9.]*)_cumulative_return_([0-9]+)d$`)
	reRSI       = regexp.MustCompile(`^([A-Z][A-Z0-9.]*)_RSI_([0-9]+)d$`)
	reEMA       = regexp.MustCompile(`^([A-Z][A-Z0-9.]*)_EMA_([0-9]+)d$`)
)

// acceptedFormats is quoted in UnsupportedOperandFormatError so a rejected
// operand can be fixed without reading the resolver source.
var acceptedFormats = []string{
	"TICKER",
	"TICKER_price",
	"TICKER_<N>d_MA",
	"TICKER_cumulative_return_<N>d",
	"TICKER_RSI_<N>d",
	"TICKER_EMA_<N>d",
	"a non-negative number",
}

// ResolveOperand maps one side of a condition to its canonical form. It is
// pure and total over the accepted grammar; anything else fails hard, never
// silently defaults.
func ResolveOperand(text string) (model.OperandRef, error) {
	trimmed := strings.TrimSpace(text)

	if reLiteral.MatchString(trimmed) {
		value, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return model.OperandRef{}, unsupported(trimmed)
		}
		return model.OperandRef{Kind: model.OperandLiteral, Value: value}, nil
	}

	if reTicker.MatchString(trimmed) {
		return priceRef(trimmed), nil
	}
	if m := rePrice.FindStringSubmatch(trimmed); m != nil {
		return priceRef(m[1]), nil
	}
	if m := reMA.FindStringSubmatch(trimmed); m != nil {
		return windowedRef(trimmed, m[1], model.FnMovingAverage, m[2])
	}
	if m := reCumReturn.FindStringSubmatch(trimmed); m != nil {
		return windowedRef(trimmed, m[1], model.FnCumulativeReturn, m[2])
	}
	if m := reRSI.FindStringSubmatch(trimmed); m != nil {
		return windowedRef(trimmed, m[1], model.FnRSI, m[2])
	}
	if m := reEMA.FindStringSubmatch(trimmed); m != nil {
		return windowedRef(trimmed, m[1], model.FnEMA, m[2])
	}

	return model.OperandRef{}, unsupported(trimmed)
}

func priceRef(ticker string) model.OperandRef {
	return model.OperandRef{
		Kind:   model.OperandReference,
		Ticker: ticker,
		Fn:     model.FnMovingAverage,
		Window: priceProxyWindow,
	}
}

func windowedRef(text, ticker string, fn model.FunctionName, window string) (model.OperandRef, error) {
	n, err := strconv.Atoi(window)
	if err != nil || n < 1 {
		return model.OperandRef{}, unsupported(text)
	}
	return model.OperandRef{
		Kind:   model.OperandReference,
		Ticker: ticker,
		Fn:     fn,
		Window: n,
	}, nil
}

func unsupported(operand string) error {
	return &model.UnsupportedOperandFormatError{
		Operand:  operand,
		Accepted: acceptedFormats,
	}
}
