package service

import "errors"

var (
	ErrEmptyCart = errors.New("cart has no purchasable items")
)
