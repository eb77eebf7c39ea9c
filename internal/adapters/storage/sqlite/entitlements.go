package sqlite

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/hylla/famboard/internal/app"
)

var _ app.Entitlements = (*Entitlements)(nil)

// Entitlements records purchases locally; any purchased premium product grants premium.
type Entitlements struct {
	repo     *Repository
	products []string
}

// NewEntitlements accepts purchases of products only.
func NewEntitlements(repo *Repository, products []string) *Entitlements {
	clean := make([]string, 0, len(products))
	for _, p := range products {
		if p = strings.TrimSpace(p); p != "" && !slices.Contains(clean, p) {
			clean = append(clean, p)
		}
	}
	return &Entitlements{repo: repo, products: clean}
}

// IsPremium reports whether userID bought any configured product.
func (e *Entitlements) IsPremium(ctx context.Context, userID string) (bool, error) {
	rows, err := e.repo.db.QueryContext(ctx, `SELECT product_id FROM purchases WHERE user_id = ?`, userID)
	if err != nil {
		return false, err
	}
	defer rows.Close()
	for rows.Next() {
		var product string
		if err := rows.Scan(&product); err != nil {
			return false, err
		}
		if slices.Contains(e.products, product) {
			return true, nil
		}
	}
	return false, rows.Err()
}

// Purchase records productID for userID; buying twice is a no-op.
func (e *Entitlements) Purchase(ctx context.Context, userID, productID string) error {
	productID = strings.TrimSpace(productID)
	if !slices.Contains(e.products, productID) {
		return fmt.Errorf("%w: unknown product %q", app.ErrEntitlement, productID)
	}
	_, err := e.repo.db.ExecContext(ctx, `
		INSERT INTO purchases(user_id, product_id, purchased_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id, product_id) DO NOTHING
	`, userID, productID, ts(e.repo.now()))
	return err
}

// Restore re-reads the stored purchases.
func (e *Entitlements) Restore(ctx context.Context, userID string) (bool, error) {
	return e.IsPremium(ctx, userID)
}
