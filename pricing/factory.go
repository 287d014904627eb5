/*
factory.go - JSON price sheets

PURPOSE:
  Converts a JSON price sheet into PriceDefinitions so owners (or the system
  defaults) can be loaded without code changes.

JSON SCHEMA:
  {
    "owner_id": 0,
    "prices": [
      {"code": "lesson.base", "price": "50", "description": "Base per report"},
      {"code": "seminar.kamal_bonus", "price": 20}
    ]
  }

  Prices accept JSON numbers or strings. A sheet may not define the same code
  twice and may not contain negative prices.

SEE ALSO:
  - catalog.go: Resolution of the loaded definitions
  - cmd/server/main.go: Loads the configured sheet at startup
*/
package pricing

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// SheetJSON is the JSON representation of a price sheet.
type SheetJSON struct {
	OwnerID OwnerID     `json:"owner_id"`
	Prices  []PriceJSON `json:"prices"`
}

// PriceJSON is one entry of a sheet.
type PriceJSON struct {
	Code        string          `json:"code"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description,omitempty"`
}

// =============================================================================
// PARSING
// =============================================================================

// ParseSheet parses a JSON sheet into definitions.
func ParseSheet(r io.Reader) ([]PriceDefinition, error) {
	var sj SheetJSON
	if err := json.NewDecoder(r).Decode(&sj); err != nil {
		return nil, fmt.Errorf("failed to parse price sheet JSON: %w", err)
	}
	return FromSheet(sj)
}

// FromSheet validates a sheet and converts it to definitions.
func FromSheet(sj SheetJSON) ([]PriceDefinition, error) {
	seen := make(map[Code]bool, len(sj.Prices))
	defs := make([]PriceDefinition, 0, len(sj.Prices))

	for _, p := range sj.Prices {
		def := PriceDefinition{
			Code:        Code(p.Code),
			OwnerID:     sj.OwnerID,
			Price:       p.Price,
			Description: p.Description,
		}
		if err := def.Validate(); err != nil {
			return nil, err
		}
		if seen[def.Code] {
			return nil, &DuplicatePriceError{OwnerID: def.OwnerID, Code: def.Code}
		}
		seen[def.Code] = true
		defs = append(defs, def)
	}
	return defs, nil
}

// ToSheet converts definitions of a single owner back to a sheet.
func ToSheet(owner OwnerID, defs []PriceDefinition) SheetJSON {
	sj := SheetJSON{OwnerID: owner}
	for _, d := range defs {
		if d.OwnerID != owner {
			continue
		}
		sj.Prices = append(sj.Prices, PriceJSON{
			Code:        string(d.Code),
			Price:       d.Price,
			Description: d.Description,
		})
	}
	return sj
}
