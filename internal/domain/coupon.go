package domain

import "time"

type Coupon struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	ValidFrom time.Time `json:"valid_from"`
	ValidTo   time.Time `json:"valid_to"`
	Discount  int       `json:"discount"` // percent, 0 to 100
	Active    bool      `json:"active"`
}

// ValidAt reports whether the coupon may be applied at the given moment.
func (c *Coupon) ValidAt(t time.Time) bool {
	return c.Active && !t.Before(c.ValidFrom) && !t.After(c.ValidTo)
}
