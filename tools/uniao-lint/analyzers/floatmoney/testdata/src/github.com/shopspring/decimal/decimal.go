package decimal

type Decimal struct{ value string }

func (d Decimal) Float64() (float64, bool) { return 0, false }

func (d Decimal) InexactFloat64() float64 { return 0 }

func (d Decimal) String() string { return d.value }
