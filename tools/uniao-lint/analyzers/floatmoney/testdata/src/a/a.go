package a

import "github.com/shopspring/decimal"

type Meter struct{}

func (Meter) Float64() float64 { return 0 }

func bad(paid decimal.Decimal, ptr *decimal.Decimal) float64 {
	f, _ := paid.Float64()          // want "decimal converted with Float64"
	return f + ptr.InexactFloat64() // want "decimal converted with InexactFloat64"
}

func good(paid decimal.Decimal, m Meter) (string, float64) {
	return paid.String(), m.Float64()
}
