package shop

import (
	"math"
	"strconv"
	"time"

	"github.com/zhouzirui/recordhub/backend/internal/validate"
)

// Product is a catalog entry. Products are read-only at runtime.
type Product struct {
	ID    int     `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

func (p Product) Validate() error {
	if p.ID <= 0 {
		return validate.Errorf("id", "must be greater than 0")
	}
	return validate.First(
		validate.NotBlank("name", p.Name),
		validate.Positive("price", p.Price),
	)
}

// CartItem is one cart line. Name and price are copied from the catalog when
// the line is created.
type CartItem struct {
	ID          int       `json:"id"`
	ProductID   int       `json:"product_id"`
	Name        string    `json:"name"`
	Price       float64   `json:"price"`
	Quantity    int       `json:"quantity"`
	LastUpdated time.Time `json:"last_updated"`
}

func (c CartItem) RecordID() string { return strconv.Itoa(c.ID) }

func (c CartItem) WithID(id string) CartItem {
	c.ID, _ = strconv.Atoi(id)
	return c
}

func (c CartItem) Validate() error {
	if c.ProductID <= 0 {
		return validate.Errorf("product_id", "must be greater than 0")
	}
	if c.Quantity <= 0 {
		return validate.Errorf("quantity", "must be greater than 0")
	}
	return nil
}

// Derive refreshes last_updated and pins the product fields on update.
func (c CartItem) Derive(prev *CartItem, now time.Time) CartItem {
	if prev != nil {
		c.ProductID = prev.ProductID
		c.Name = prev.Name
		c.Price = prev.Price
	}
	c.LastUpdated = now
	return c
}

// Subtotal is price × quantity rounded to cents.
func (c CartItem) Subtotal() float64 {
	return RoundCents(c.Price * float64(c.Quantity))
}

// QuantityPatch changes the quantity of a cart line.
type QuantityPatch struct {
	Quantity *int `json:"quantity"`
}

func (p QuantityPatch) Apply(c CartItem) CartItem {
	if p.Quantity != nil {
		c.Quantity = *p.Quantity
	}
	return c
}

// ReceiptLine is a checked-out cart line.
type ReceiptLine struct {
	ProductID int     `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Subtotal  float64 `json:"subtotal"`
}

// Receipt is the result of a checkout.
type Receipt struct {
	TotalCost float64       `json:"total_cost"`
	Items     []ReceiptLine `json:"items"`
}

// RoundCents rounds half away from zero to two decimals.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
