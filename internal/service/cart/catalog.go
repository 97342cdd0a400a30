package cart

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/recordhub/backend/internal/model/shop"
	"github.com/zhouzirui/recordhub/backend/internal/store"
)

// Catalog is the read-only product list, in file order.
type Catalog struct {
	items []shop.Product
	byID  map[int]shop.Product
}

// NewCatalog keeps the valid products, skipping invalid entries and
// duplicate ids with a warning.
func NewCatalog(products []shop.Product, logger zerolog.Logger) *Catalog {
	c := &Catalog{byID: make(map[int]shop.Product, len(products))}
	for idx, p := range products {
		if err := p.Validate(); err != nil {
			logger.Warn().Err(err).Int("index", idx).Msg("skipping invalid product")
			continue
		}
		if _, dup := c.byID[p.ID]; dup {
			logger.Warn().Int("index", idx).Int("product_id", p.ID).Msg("skipping duplicate product id")
			continue
		}
		c.byID[p.ID] = p
		c.items = append(c.items, p)
	}
	return c
}

// LoadCatalog reads a JSON array of products from path. A missing file gives
// an empty catalog. A file that is not a JSON array gives an empty catalog
// and an error wrapping store.ErrParse.
func LoadCatalog(path string, logger zerolog.Logger) (*Catalog, error) {
	logger = logger.With().Str("component", "catalog").Str("path", path).Logger()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn().Msg("products file not found, catalog is empty")
		return NewCatalog(nil, logger), nil
	}
	if err != nil {
		return NewCatalog(nil, logger), fmt.Errorf("read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return NewCatalog(nil, logger), nil
	}

	var raw []jsontext.Value
	if err := json.Unmarshal(data, &raw); err != nil {
		return NewCatalog(nil, logger), fmt.Errorf("decode %s: %w: %v", path, store.ErrParse, err)
	}

	products := make([]shop.Product, 0, len(raw))
	for idx, entry := range raw {
		var p shop.Product
		if err := json.Unmarshal(entry, &p); err != nil {
			logger.Warn().Err(err).Int("index", idx).Msg("skipping malformed product")
			continue
		}
		products = append(products, p)
	}

	c := NewCatalog(products, logger)
	logger.Info().Int("count", c.Len()).Msg("catalog loaded")
	return c, nil
}

// Products returns a copy of every product.
func (c *Catalog) Products() []shop.Product {
	return append([]shop.Product{}, c.items...)
}

// Find looks up a product by id.
func (c *Catalog) Find(id int) (shop.Product, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// Len reports the number of products.
func (c *Catalog) Len() int {
	return len(c.items)
}
