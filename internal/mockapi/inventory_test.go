package mockapi

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupInventory(t *testing.T) *Inventory {
	seed, err := LoadSeed("")
	require.NoError(t, err)
	inv := NewInventory()
	inv.Apply(seed)
	return inv
}

func TestLoadSeed_Default(t *testing.T) {
	seed, err := LoadSeed("")
	require.NoError(t, err)

	assert.Len(t, seed.Products, 6)
	assert.Len(t, seed.Stock, 6)
}

func TestLoadSeed_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"stock":[{"id":9,"amount":1}],"products":[{"id":9,"title":"Chinelo","price":19.9}]}`), 0o600))

	seed, err := LoadSeed(path)
	require.NoError(t, err)
	require.Len(t, seed.Products, 1)
	assert.Equal(t, "Chinelo", seed.Products[0].Title)
}

func TestLoadSeed_Errors(t *testing.T) {
	_, err := LoadSeed(filepath.Join(t.TempDir(), "missing.json"))
	require.ErrorContains(t, err, "read seed failed")

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{`), 0o600))
	_, err = LoadSeed(path)
	require.ErrorContains(t, err, "unmarshal seed failed")
}

func TestInventory_StockAndProducts(t *testing.T) {
	inv := setupInventory(t)

	stock, err := inv.Stock(6)
	require.NoError(t, err)
	assert.Equal(t, 10, stock.Amount)

	product, err := inv.Product(3)
	require.NoError(t, err)
	assert.Equal(t, "Tênis Adidas Duramo Lite 2.0", product.Title)

	products := inv.Products()
	require.Len(t, products, 6)
	for i, p := range products {
		assert.Equal(t, int64(i+1), p.ID)
	}
}

func TestInventory_Missing(t *testing.T) {
	inv := NewInventory()

	_, err := inv.Stock(1)
	assert.ErrorIs(t, err, ErrProductNotFound)
	_, err = inv.Product(1)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestInventory_SetStock(t *testing.T) {
	inv := setupInventory(t)
	inv.SetStock(1, 0)

	stock, err := inv.Stock(1)
	require.NoError(t, err)
	assert.Equal(t, 0, stock.Amount)
}
