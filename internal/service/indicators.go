package service

import (
	"math"

	"arc-exchange/internal/core/domain"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/momentum"
	"github.com/cinar/indicator/v2/trend"
)

const (
	smaPeriod = 20
	emaPeriod = 20
	rsiPeriod = 14
)

// computeIndicators derives SMA-20, EMA-20 and RSI-14 from the closing
// prices of points. Indicators the series is too short for stay nil.
func computeIndicators(points []domain.PricePoint) domain.Indicators {
	closes := make([]float64, len(points))
	for i, p := range points {
		closes[i] = p.Price.InexactFloat64()
	}

	var ind domain.Indicators
	if len(closes) >= smaPeriod {
		sma := trend.NewSmaWithPeriod[float64](smaPeriod)
		ind.SMA20 = lastValue(sma.Compute(helper.SliceToChan(closes)))
	}
	if len(closes) >= emaPeriod {
		ema := trend.NewEmaWithPeriod[float64](emaPeriod)
		ind.EMA20 = lastValue(ema.Compute(helper.SliceToChan(closes)))
	}
	if len(closes) > rsiPeriod {
		rsi := momentum.NewRsiWithPeriod[float64](rsiPeriod)
		ind.RSI14 = lastValue(rsi.Compute(helper.SliceToChan(closes)))
	}
	return ind
}

// lastValue drains c and returns its final finite value.
func lastValue(c <-chan float64) *float64 {
	values := helper.ChanToSlice(c)
	if len(values) == 0 {
		return nil
	}
	v := values[len(values)-1]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	v = math.Round(v*1e8) / 1e8
	return &v
}
