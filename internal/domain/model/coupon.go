package model

type DiscountKind string

const (
	DiscountFixed   DiscountKind = "fixed"
	DiscountPercent DiscountKind = "percent"
)

// Coupon discounts a single product. The same code may exist on several
// rows, one per product, each with its own usage counter.
type Coupon struct {
	ID         string // UUID
	Code       string
	ProductID  string
	Kind       DiscountKind
	Value      int64  // fixed amount, or percent when Kind is percent
	UsageLimit *int64 // nil = unlimited
	UsedCount  int64
}

// DiscountFor computes the discount this coupon yields against the
// given price, clamped to [0, price].
func (c *Coupon) DiscountFor(price int64) int64 {
	var d int64
	switch c.Kind {
	case DiscountPercent:
		d = price * c.Value / 100
	default:
		d = c.Value
	}
	if d > price {
		d = price
	}
	if d < 0 {
		d = 0
	}
	return d
}

// Exhausted reports whether the usage limit has been reached.
func (c *Coupon) Exhausted() bool {
	return c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit
}

// CouponValidation is the result of checking a code against a set of products.
type CouponValidation struct {
	Valid    bool            `json:"valid"`
	Discount int64           `json:"discount"`
	Coupons  []AppliedCoupon `json:"coupons"`
}
