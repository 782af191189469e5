package domain

// Product is a catalog entry. Inside a cart it doubles as a line item,
// with Amount holding the requested quantity.
type Product struct {
	ID     int64   `json:"id" bson:"id"`
	Title  string  `json:"title" bson:"title"`
	Price  float64 `json:"price" bson:"price"`
	Image  string  `json:"image" bson:"image"`
	Amount int     `json:"amount" bson:"amount"`
}

// Stock is the available quantity of a product as reported by the stock service
type Stock struct {
	ID     int64 `json:"id"`
	Amount int   `json:"amount"`
}

type UpdateProductAmount struct {
	ProductID int64 `json:"productId"`
	Amount    int   `json:"amount"`
}

func (p Product) Subtotal() float64 {
	return p.Price * float64(p.Amount)
}
