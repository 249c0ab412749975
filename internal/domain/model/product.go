package model

type DurationUnit string

const (
	DurationDay     DurationUnit = "day"
	DurationMonth   DurationUnit = "month"
	DurationYear    DurationUnit = "year"
	DurationForever DurationUnit = "forever"
)

// Product is a purchasable content package. AccessID names the
// entitlement it grants; DurationValue/DurationUnit say for how long.
type Product struct {
	ID            string
	Name          string
	Price         int64 // catalog price in minor units
	AccessID      string
	DurationValue int
	DurationUnit  DurationUnit
}

// CartItem is a product reference with the price captured at checkout time.
type CartItem struct {
	ProductID string `json:"product_id"`
	Price     int64  `json:"price"`
}
