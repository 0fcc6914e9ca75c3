package model

import "github.com/shopspring/decimal"

// OptionalHours is an allocation read that keeps "no row" distinct from an
// explicit value. Consumers that treat both the same call OrZero.
type OptionalHours struct {
	Hours decimal.Decimal
	Set   bool
}

// SomeHours returns a set OptionalHours.
func SomeHours(h decimal.Decimal) OptionalHours {
	return OptionalHours{Hours: h, Set: true}
}

// OrZero returns the hours, or zero when unset.
func (o OptionalHours) OrZero() decimal.Decimal {
	if !o.Set {
		return decimal.Zero
	}
	return o.Hours
}
