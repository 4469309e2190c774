package cart

import (
	"context"
	"errors"

	"github.com/fjod/go_shop/internal/domain"
)

// Store is the session transport the cart lives in: a per-customer external
// key/value capability. Saves are explicit; a crashed process loses nothing
// durable.
type Store interface {
	Get(ctx context.Context, sessionID string) (*domain.CartState, error)
	Set(ctx context.Context, sessionID string, state *domain.CartState) error
	Delete(ctx context.Context, sessionID string) error
}

var ErrSessionNotFound = errors.New("cart session not found")
