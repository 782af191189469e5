package domain

import "errors"

var (
	ErrInvalidCart   = errors.New("invalid cart payload")
	ErrInvalidAmount = errors.New("amount must be at least 1")
	ErrNotInCart     = errors.New("product not found in the cart")
)

// User facing notification messages
const (
	MsgOutOfStock   = "requested quantity unavailable in stock"
	MsgAddFailed    = "failed to add product"
	MsgRemoveFailed = "failed to remove product"
	MsgUpdateFailed = "failed to update product quantity"
)
