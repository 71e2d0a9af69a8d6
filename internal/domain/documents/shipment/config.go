package shipment

import "ebase/internal/core/numerator"

const (
	// NumeratorPrefix marks internal numbers of repair-driven shipments.
	NumeratorPrefix = "SH"

	// NumeratorStrategy is strict: numbers roll back with the repair save that took them.
	NumeratorStrategy = numerator.StrategyStrict
)
