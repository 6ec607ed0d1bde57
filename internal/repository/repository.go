package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/utafrali/rocketshoes/internal/domain"
)

// SnapshotKey is the storage key of the cart snapshot.
const SnapshotKey = "@RocketShoes:cart"

// SnapshotRepository stores the whole cart as one snapshot. Every Save
// overwrites the previous snapshot.
type SnapshotRepository interface {
	// Load returns the stored cart, or an error wrapping
	// apperrors.ErrNotFound when no snapshot exists.
	Load(ctx context.Context) (domain.Cart, error)

	// Save replaces the stored snapshot with cart.
	Save(ctx context.Context, cart domain.Cart) error

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
}

// EncodeSnapshot serializes cart as a JSON list. A nil cart encodes as [].
func EncodeSnapshot(cart domain.Cart) ([]byte, error) {
	if cart == nil {
		cart = domain.Cart{}
	}
	data, err := json.Marshal(cart)
	if err != nil {
		return nil, fmt.Errorf("marshal cart snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot parses a JSON list produced by EncodeSnapshot. A JSON null
// decodes to an empty cart.
func DecodeSnapshot(data []byte) (domain.Cart, error) {
	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart snapshot: %w", err)
	}
	if cart == nil {
		cart = domain.Cart{}
	}
	return cart, nil
}
