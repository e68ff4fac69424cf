package market

import (
	"math"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/momentum"
	"github.com/cinar/indicator/v2/trend"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"tradedesk/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Summary holds the latest indicator values computed over a kline window.
type Summary struct {
	Symbol string
	Period int
	SMA    decimal.Decimal
	EMA    decimal.Decimal
	RSI    decimal.Decimal
	Last   decimal.Decimal
}

// Summarize computes SMA/EMA/RSI over the closes of the given klines.
// Klines are expected oldest first, as returned by the API client.
func Summarize(symbol string, klines []domain.Kline, period int) (Summary, error) {
	if period <= 0 {
		return Summary{}, errors.New("period must be positive")
	}
	// RSI needs one extra point for the first delta
	if len(klines) < period+1 {
		return Summary{}, errors.Errorf("not enough klines: need %d, got %d", period+1, len(klines))
	}

	closes := make([]float64, len(klines))
	for i, k := range klines {
		closes[i], _ = k.Close.Float64()
	}

	sma := lastValue(trend.NewSmaWithPeriod[float64](period).Compute(helper.SliceToChan(closes)))
	ema := lastValue(trend.NewEmaWithPeriod[float64](period).Compute(helper.SliceToChan(closes)))
	rsi := lastValue(momentum.NewRsiWithPeriod[float64](period).Compute(helper.SliceToChan(closes)))

	return Summary{
		Symbol: symbol,
		Period: period,
		SMA:    toDecimal(sma),
		EMA:    toDecimal(ema),
		RSI:    toDecimal(rsi),
		Last:   klines[len(klines)-1].Close,
	}, nil
}

func lastValue(ch <-chan float64) float64 {
	var last float64
	for v := range ch {
		last = v
	}
	return last
}

// toDecimal guards against NaN/Inf, which RSI produces on an all-gain or
// all-loss window.
func toDecimal(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}
