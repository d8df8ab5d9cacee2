package compiler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/symphony-service/internal/model"
)

func TestResolveOperand(t *testing.T) {
	tests := []struct {
		name string
		text string
		want model.OperandRef
	}{
		{
			name: "bare ticker resolves to price proxy",
			text: "SPY",
			want: model.OperandRef{Kind: model.OperandReference, Ticker: "SPY", Fn: model.FnMovingAverage, Window: 1},
		},
		{
			name: "explicit price suffix",
			text: "VIXY_price",
			want: model.OperandRef{Kind: model.OperandReference, Ticker: "VIXY", Fn: model.FnMovingAverage, Window: 1},
		},
		{
			name: "generic moving average window",
			text: "AGG_20d_MA",
			want: model.OperandRef{Kind: model.OperandReference, Ticker: "AGG", Fn: model.FnMovingAverage, Window: 20},
		},
		{
			name: "legacy 200 day moving average",
			text: "SPY_200d_MA",
			want: model.OperandRef{Kind: model.OperandReference, Ticker: "SPY", Fn: model.FnMovingAverage, Window: 200},
		},
		{
			name: "legacy 50 day moving average",
			text: "QQQ_50d_MA",
			want: model.OperandRef{Kind: model.OperandReference, Ticker: "QQQ", Fn: model.FnMovingAverage, Window: 50},
		},
		{
			name: "cumulative return",
			text: "TQQQ_cumulative_return_10d",
			want: model.OperandRef{Kind: model.OperandReference, Ticker: "TQQQ", Fn: model.FnCumulativeReturn, Window: 10},
		},
		{
			name: "rsi",
			text: "SPY_RSI_14d",
			want: model.OperandRef{Kind: model.OperandReference, Ticker: "SPY", Fn: model.FnRSI, Window: 14},
		},
		{
			name: "ema",
			text: "QQQ_EMA_21d",
			want: model.OperandRef{Kind: model.OperandReference, Ticker: "QQQ", Fn: model.FnEMA, Window: 21},
		},
		{
			name: "integer literal",
			text: "22",
			want: model.OperandRef{Kind: model.OperandLiteral, Value: 22},
		},
		{
			name: "decimal literal",
			text: "0.05",
			want: model.OperandRef{Kind: model.OperandLiteral, Value: 0.05},
		},
		{
			name: "surrounding whitespace is tolerated",
			text: "  SPY_200d_MA  ",
			want: model.OperandRef{Kind: model.OperandReference, Ticker: "SPY", Fn: model.FnMovingAverage, Window: 200},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveOperand(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveOperandRejectsUnknownFormats(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"made-up suffix", "VIXY_banana"},
		{"negative number", "-5"},
		{"zero-day window", "SPY_0d_MA"},
		{"lowercase ticker", "spy"},
		{"missing window", "SPY_d_MA"},
		{"empty string", ""},
		{"wrong indicator order", "RSI_14d_SPY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveOperand(tt.text)
			require.Error(t, err)

			var operandErr *model.UnsupportedOperandFormatError
			require.True(t, errors.As(err, &operandErr))
			assert.Contains(t, operandErr.Error(), tt.text)
			assert.NotEmpty(t, operandErr.Accepted)
		})
	}
}
