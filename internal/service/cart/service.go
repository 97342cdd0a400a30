package cart

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/zhouzirui/recordhub/backend/internal/model/shop"
	"github.com/zhouzirui/recordhub/backend/internal/service/records"
	"github.com/zhouzirui/recordhub/backend/internal/validate"
)

var (
	ErrEmptyCart       = errors.New("cannot checkout an empty cart")
	ErrProductNotFound = errors.New("product not found in catalog")
)

// Action tells whether an add created a new line or grew an existing one.
type Action string

const (
	ActionAdded   Action = "added"
	ActionUpdated Action = "updated"
)

// AddResult summarises a cart add.
type AddResult struct {
	Message         string `json:"message"`
	Action          Action `json:"action"`
	CurrentQuantity int    `json:"current_quantity"`
	ProductID       int    `json:"product_id"`
	ProductName     string `json:"product_name"`
}

// Service is the shopping cart on top of a cart-line record service.
type Service struct {
	catalog *Catalog
	lines   *records.Service[shop.CartItem]
	log     zerolog.Logger
}

// NewService wires the cart to its catalog and line storage.
func NewService(catalog *Catalog, lines *records.Service[shop.CartItem], logger zerolog.Logger) *Service {
	return &Service{
		catalog: catalog,
		lines:   lines,
		log:     logger.With().Str("component", "cart").Logger(),
	}
}

// Catalog exposes the product catalog.
func (s *Service) Catalog() *Catalog {
	return s.catalog
}

// Lines exposes the underlying line service for per-line CRUD.
func (s *Service) Lines() *records.Service[shop.CartItem] {
	return s.lines
}

// Add puts quantity units of productID in the cart.
func (s *Service) Add(ctx context.Context, productID, quantity int) (AddResult, error) {
	if productID <= 0 {
		return AddResult{}, validate.Errorf("product_id", "must be greater than 0")
	}
	if quantity <= 0 {
		return AddResult{}, validate.Errorf("quantity", "must be greater than 0")
	}
	product, ok := s.catalog.Find(productID)
	if !ok {
		return AddResult{}, fmt.Errorf("product %d: %w", productID, ErrProductNotFound)
	}

	existing, err := s.lines.Filter(ctx, func(c shop.CartItem) bool { return c.ProductID == productID })
	if err != nil {
		return AddResult{}, err
	}

	var line shop.CartItem
	action := ActionAdded
	if len(existing) > 0 {
		total := existing[0].Quantity + quantity
		line, err = s.lines.Patch(ctx, existing[0].RecordID(), shop.QuantityPatch{Quantity: &total})
		action = ActionUpdated
	} else {
		line, err = s.lines.Create(ctx, shop.CartItem{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  quantity,
		})
	}
	if err != nil {
		return AddResult{}, err
	}

	s.log.Info().
		Str("action", string(action)).
		Int("product_id", productID).
		Int("quantity", line.Quantity).
		Msg("cart updated")

	return AddResult{
		Message:         fmt.Sprintf("Product %d %s to cart", productID, action),
		Action:          action,
		CurrentQuantity: line.Quantity,
		ProductID:       product.ID,
		ProductName:     product.Name,
	}, nil
}

// Items returns the cart lines in insertion order.
func (s *Service) Items(ctx context.Context) ([]shop.CartItem, error) {
	return s.lines.List(ctx)
}

// ByProduct returns the cart keyed by product id.
func (s *Service) ByProduct(ctx context.Context) (map[string]shop.CartItem, error) {
	items, err := s.lines.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]shop.CartItem, len(items))
	for _, item := range items {
		out[strconv.Itoa(item.ProductID)] = item
	}
	return out, nil
}

// Checkout totals the cart and empties it. Lines whose product has left the
// catalog are not charged.
func (s *Service) Checkout(ctx context.Context) (shop.Receipt, error) {
	items, err := s.lines.List(ctx)
	if err != nil {
		return shop.Receipt{}, err
	}
	if len(items) == 0 {
		return shop.Receipt{}, ErrEmptyCart
	}

	receipt := shop.Receipt{Items: make([]shop.ReceiptLine, 0, len(items))}
	var total float64
	for _, item := range items {
		if _, ok := s.catalog.Find(item.ProductID); !ok {
			s.log.Warn().Int("product_id", item.ProductID).Msg("product no longer in catalog, skipping")
			continue
		}
		subtotal := item.Subtotal()
		total += item.Price * float64(item.Quantity)
		receipt.Items = append(receipt.Items, shop.ReceiptLine{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
			Subtotal:  subtotal,
		})
	}
	receipt.TotalCost = shop.RoundCents(total)

	if err := s.Clear(ctx); err != nil {
		return shop.Receipt{}, err
	}
	s.log.Info().Float64("total_cost", receipt.TotalCost).Msg("cart checked out")
	return receipt, nil
}

// Clear removes every line.
func (s *Service) Clear(ctx context.Context) error {
	items, err := s.lines.List(ctx)
	if err != nil {
		return err
	}
	for _, item := range items {
		if err := s.lines.Delete(ctx, item.RecordID()); err != nil {
			return err
		}
	}
	return nil
}
