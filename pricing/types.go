/*
Package pricing resolves the tunable multipliers and bonuses used by the
compensation formulas.

PURPOSE:
  Every formula term is weighted by a price code (e.g. "seminar.kamal_bonus").
  A code may be defined twice: once by the system (the default every owner
  starts from) and once by an owner who wants a different rate. Resolution
  is a plain two-tier lookup:

    override(owner, code) ?? default(code) ?? 0

  There is no hidden "current price" state. The owner is passed explicitly
  to every call.

KEY CONCEPTS:
  - PriceDefinition: One stored (owner, code) -> price row
  - Pivot: All codes resolved for one owner, built once and reused
  - Catalog: The resolver, backed by a Store

PERMISSIVE DEFAULTS:
  An unknown code resolves to zero, never to an error. Adding a new code to
  a formula therefore never breaks pricing of existing owners.

SEE ALSO:
  - catalog.go: Resolve / ResolvePivot
  - factory.go: JSON price sheets
  - formula/codes.go: The codes the formulas reference
*/
package pricing

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

// OwnerID identifies the user a price definition (and the records priced
// with it) belongs to.
type OwnerID int64

// SystemOwner owns the default price of every code.
const SystemOwner OwnerID = 0

func (o OwnerID) IsSystem() bool { return o == SystemOwner }

// Code identifies one tunable multiplier or bonus in a formula.
type Code string

// =============================================================================
// PRICE DEFINITION - Stored (owner, code) -> price row
// =============================================================================

// PriceDefinition is one stored price. At most one exists per (OwnerID, Code).
type PriceDefinition struct {
	ID          string
	Code        Code
	OwnerID     OwnerID
	Price       decimal.Decimal
	Description string
}

// Validate enforces the write-boundary invariants.
func (d PriceDefinition) Validate() error {
	if d.Code == "" {
		return ErrEmptyCode
	}
	if d.Price.IsNegative() {
		return &NegativePriceError{OwnerID: d.OwnerID, Code: d.Code, Price: d.Price}
	}
	return nil
}

// =============================================================================
// PIVOT - Flattened code -> price map for one owner
// =============================================================================

// Pivot maps every known code to its resolved price for one owner.
// Absent codes read as zero.
type Pivot map[Code]decimal.Decimal

// Get returns the resolved price, or zero when the code is unknown.
func (p Pivot) Get(code Code) decimal.Decimal {
	if v, ok := p[code]; ok {
		return v
	}
	return decimal.Zero
}

// Has reports whether the code resolved to a stored price.
func (p Pivot) Has(code Code) bool {
	_, ok := p[code]
	return ok
}
