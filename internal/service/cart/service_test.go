package cart

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/recordhub/backend/internal/model/shop"
	"github.com/zhouzirui/recordhub/backend/internal/service/records"
	"github.com/zhouzirui/recordhub/backend/internal/store"
	"github.com/zhouzirui/recordhub/backend/internal/validate"
)

func newCart(t *testing.T, products ...shop.Product) *Service {
	t.Helper()
	if products == nil {
		products = []shop.Product{
			{ID: 1, Name: "Pen", Price: 1.1},
			{ID: 2, Name: "Notebook", Price: 3.333},
		}
	}
	lines := records.NewService[shop.CartItem]("cart", "Cart item",
		store.NewCollection[shop.CartItem](store.NewSequence(), nil, zerolog.Nop()))
	return NewService(NewCatalog(products, zerolog.Nop()), lines, zerolog.Nop())
}

func TestAddCreatesThenUpdatesLine(t *testing.T) {
	svc := newCart(t)
	ctx := context.Background()

	first, err := svc.Add(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, AddResult{
		Message:         "Product 1 added to cart",
		Action:          ActionAdded,
		CurrentQuantity: 2,
		ProductID:       1,
		ProductName:     "Pen",
	}, first)

	second, err := svc.Add(ctx, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, ActionUpdated, second.Action)
	assert.Equal(t, 5, second.CurrentQuantity)

	items, err := svc.Items(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)

	byProduct, err := svc.ByProduct(ctx)
	require.NoError(t, err)
	assert.Contains(t, byProduct, "1")
}

func TestAddRejectsUnknownProductAndBadQuantity(t *testing.T) {
	svc := newCart(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, 42, 1)
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = svc.Add(ctx, 1, 0)
	var verr *validate.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "quantity", verr.Field)
}

func TestCheckoutTotalsAndClears(t *testing.T) {
	svc := newCart(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, 1, 3)
	require.NoError(t, err)
	_, err = svc.Add(ctx, 2, 2)
	require.NoError(t, err)

	receipt, err := svc.Checkout(ctx)
	require.NoError(t, err)

	want := shop.Receipt{
		TotalCost: 9.97,
		Items: []shop.ReceiptLine{
			{ProductID: 1, Name: "Pen", Price: 1.1, Quantity: 3, Subtotal: 3.3},
			{ProductID: 2, Name: "Notebook", Price: 3.333, Quantity: 2, Subtotal: 6.67},
		},
	}
	if diff := cmp.Diff(want, receipt); diff != "" {
		t.Fatalf("receipt mismatch (-want +got):\n%s", diff)
	}

	items, err := svc.Items(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = svc.Checkout(ctx)
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestLoadCatalogSkipsInvalidEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	data := `[
		{"id": 1, "name": "Pen", "price": 1.5},
		{"id": 2, "name": "", "price": 2},
		{"id": 3, "name": "Free", "price": 0},
		{"id": "four", "name": "Typo", "price": 1},
		{"id": 1, "name": "Duplicate", "price": 9},
		{"id": 5, "name": "Lamp", "price": 20}
	]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	c, err := LoadCatalog(path, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, []shop.Product{{ID: 1, Name: "Pen", Price: 1.5}, {ID: 5, Name: "Lamp", Price: 20}}, c.Products())

	_, ok := c.Find(3)
	assert.False(t, ok)
}

func TestLoadCatalogMissingOrCorruptFile(t *testing.T) {
	dir := t.TempDir()

	c, err := LoadCatalog(filepath.Join(dir, "nope.json"), zerolog.Nop())
	require.NoError(t, err)
	assert.Zero(t, c.Len())

	corrupt := filepath.Join(dir, "corrupt.json")
	require.NoError(t, os.WriteFile(corrupt, []byte(`{"id": 1}`), 0o644))
	c, err = LoadCatalog(corrupt, zerolog.Nop())
	assert.ErrorIs(t, err, store.ErrParse)
	assert.Zero(t, c.Len())
}
