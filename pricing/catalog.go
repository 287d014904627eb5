package pricing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// STORE - Price definition persistence
// =============================================================================

// Store loads price definitions. Writes go through SavePrice so the
// (owner, code) uniqueness and non-negativity invariants hold at the boundary.
type Store interface {
	// LoadPrices returns every definition owned by any of the given owners.
	LoadPrices(ctx context.Context, owners ...OwnerID) ([]PriceDefinition, error)

	// SavePrice upserts a definition on (OwnerID, Code).
	SavePrice(ctx context.Context, def PriceDefinition) error
}

// =============================================================================
// CATALOG - Two-tier price resolution
// =============================================================================

// Catalog resolves prices for an owner: override, then system default, then zero.
type Catalog struct {
	Store Store
}

func NewCatalog(store Store) *Catalog {
	return &Catalog{Store: store}
}

// Resolve returns the effective price of one code for one owner.
func (c *Catalog) Resolve(ctx context.Context, owner OwnerID, code Code) (decimal.Decimal, error) {
	pivot, err := c.ResolvePivot(ctx, owner)
	if err != nil {
		return decimal.Zero, err
	}
	return pivot.Get(code), nil
}

// ResolvePivot resolves every known code for the owner in one pass.
func (c *Catalog) ResolvePivot(ctx context.Context, owner OwnerID) (Pivot, error) {
	owners := []OwnerID{SystemOwner}
	if !owner.IsSystem() {
		owners = append(owners, owner)
	}

	defs, err := c.Store.LoadPrices(ctx, owners...)
	if err != nil {
		return nil, fmt.Errorf("failed to load prices for owner %d: %w", owner, err)
	}
	return BuildPivot(owner, defs), nil
}

// BuildPivot layers the owner's definitions over the system defaults.
// Definitions belonging to any other owner are ignored.
func BuildPivot(owner OwnerID, defs []PriceDefinition) Pivot {
	pivot := make(Pivot, len(defs))

	// Defaults first, so overrides win regardless of input order.
	for _, d := range defs {
		if d.OwnerID.IsSystem() {
			pivot[d.Code] = d.Price
		}
	}
	if owner.IsSystem() {
		return pivot
	}
	for _, d := range defs {
		if d.OwnerID == owner {
			pivot[d.Code] = d.Price
		}
	}
	return pivot
}

// SavePrice validates and persists one definition.
func (c *Catalog) SavePrice(ctx context.Context, def PriceDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	return c.Store.SavePrice(ctx, def)
}
