package risk

type Policy struct {
	// Risk limits
	MaxRiskPct float64 // 0.01

	// Circuit breaker on cumulative realized loss, as a fraction of the
	// starting capital
	MaxLossPct float64 // 0.2

	// Exposure limits
	MaxOpenTrades int // 1

	// Trade constraints
	MinRR float64 // 1.5
}

type TradeIntent struct {
	Units float64

	Entry      float64
	Stop       float64
	TakeProfit float64
}

type AccountSnapshot struct {
	StartBalance float64
	Equity       float64
	NetProfit    float64
	OpenTrades   int
}
