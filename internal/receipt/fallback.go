package receipt

import (
	"errors"
	"fmt"
	"log/slog"
)

// FallbackStore writes to a primary store and falls back to a secondary one when
// the primary rejects a write. Reads merge both, preferring the primary.
type FallbackStore struct {
	primary  Store
	fallback Store
}

// NewFallbackStore creates a FallbackStore
func NewFallbackStore(primary, fallback Store) *FallbackStore {
	return &FallbackStore{primary: primary, fallback: fallback}
}

// Append tries the primary store first, then the fallback
func (f *FallbackStore) Append(receipt *Receipt) error {
	primaryErr := f.primary.Append(receipt)
	if primaryErr == nil {
		return nil
	}
	slog.Error("Primary store append failed, using fallback", "id", receipt.ID, "error", primaryErr)

	if err := f.fallback.Append(receipt); err != nil {
		return fmt.Errorf("appending receipt: %w", errors.Join(primaryErr, err))
	}
	slog.Info("Receipt saved to fallback store", "id", receipt.ID)
	return nil
}

// GetReceipt looks in the primary store, then the fallback
func (f *FallbackStore) GetReceipt(id string) (*Receipt, error) {
	receipt, err := f.primary.GetReceipt(id)
	if err == nil {
		return receipt, nil
	}
	if !errors.Is(err, ErrNotFound) {
		slog.Warn("Primary store read failed", "id", id, "error", err)
	}
	return f.fallback.GetReceipt(id)
}

// ListReceipts returns receipts from both stores, deduplicated by ID
func (f *FallbackStore) ListReceipts() ([]*Receipt, error) {
	primary, err := f.primary.ListReceipts()
	if err != nil {
		return nil, fmt.Errorf("listing primary store: %w", err)
	}
	secondary, err := f.fallback.ListReceipts()
	if err != nil {
		return nil, fmt.Errorf("listing fallback store: %w", err)
	}

	seen := make(map[string]bool, len(primary))
	receipts := make([]*Receipt, 0, len(primary)+len(secondary))
	for _, r := range primary {
		seen[r.ID] = true
		receipts = append(receipts, r)
	}
	for _, r := range secondary {
		if seen[r.ID] {
			continue
		}
		receipts = append(receipts, r)
	}
	return receipts, nil
}

// DeleteReceipt removes the receipt from whichever stores hold it
func (f *FallbackStore) DeleteReceipt(id string) error {
	primaryErr := f.primary.DeleteReceipt(id)
	fallbackErr := f.fallback.DeleteReceipt(id)
	if errors.Is(primaryErr, ErrNotFound) && errors.Is(fallbackErr, ErrNotFound) {
		return primaryErr
	}

	var errs []error
	for _, err := range []error{primaryErr, fallbackErr} {
		if err != nil && !errors.Is(err, ErrNotFound) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes both stores
func (f *FallbackStore) Close() error {
	return errors.Join(f.primary.Close(), f.fallback.Close())
}
