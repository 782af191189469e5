// Package mockapi is a development stand-in for the storefront REST API. It
// serves products and stock from memory, seeded from JSON.
package mockapi

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/fjod/go_cart/storefront-cart/internal/domain"
)

var ErrProductNotFound = errors.New("product not found")

//go:embed seed.json
var defaultSeed []byte

type Seed struct {
	Stock    []domain.Stock   `json:"stock"`
	Products []domain.Product `json:"products"`
}

// Inventory keeps products and stock levels in memory.
type Inventory struct {
	mu       sync.RWMutex
	stock    map[int64]int
	products map[int64]domain.Product
}

func NewInventory() *Inventory {
	return &Inventory{
		stock:    make(map[int64]int),
		products: make(map[int64]domain.Product),
	}
}

// LoadSeed reads a seed file, or the bundled seed when path is empty.
func LoadSeed(path string) (*Seed, error) {
	data := defaultSeed
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read seed failed: %w", err)
		}
		data = raw
	}

	var seed Seed
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("unmarshal seed failed: %w", err)
	}
	return &seed, nil
}

func (inv *Inventory) Apply(seed *Seed) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	for _, p := range seed.Products {
		p.Amount = 0
		inv.products[p.ID] = p
	}
	for _, s := range seed.Stock {
		inv.stock[s.ID] = s.Amount
	}
}

// SetStock sets the available quantity of a product
func (inv *Inventory) SetStock(productID int64, amount int) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.stock[productID] = amount
}

func (inv *Inventory) Stock(productID int64) (domain.Stock, error) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	amount, ok := inv.stock[productID]
	if !ok {
		return domain.Stock{}, ErrProductNotFound
	}
	return domain.Stock{ID: productID, Amount: amount}, nil
}

func (inv *Inventory) Product(productID int64) (domain.Product, error) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	p, ok := inv.products[productID]
	if !ok {
		return domain.Product{}, ErrProductNotFound
	}
	return p, nil
}

// Products returns all products ordered by id.
func (inv *Inventory) Products() []domain.Product {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	out := make([]domain.Product, 0, len(inv.products))
	for _, p := range inv.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
