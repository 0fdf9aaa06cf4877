package session

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/taskdeck/pkg/credstore"
)

// putFlowValue writes a short-lived login flow value (nonce, verifier, return path).
func (m *Manager) putFlowValue(ctx context.Context, store credstore.Store, name, value string) error {
	return store.Set(ctx, name, value, m.cookies.flowOptions())
}

// takeFlowValue reads and removes a login flow value. The value is removed
// even when the read fails or finds nothing.
func (m *Manager) takeFlowValue(ctx context.Context, store credstore.Store, name string) (string, error) {
	value, getErr := store.Get(ctx, name)
	rmErr := store.Remove(ctx, name, m.cookies.flowOptions())

	if getErr != nil && !errors.Is(getErr, credstore.ErrNotFound) {
		return "", getErr
	}
	if rmErr != nil {
		return "", rmErr
	}
	return value, nil
}

// ClearNonce discards any pending login nonce, as the login page does before
// offering a fresh sign-in.
func (m *Manager) ClearNonce(ctx context.Context, store credstore.Store) error {
	return store.Remove(ctx, NonceName, m.cookies.flowOptions())
}
