package pricing_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/teacher-payroll/pricing"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// sliceStore is a minimal pricing.Store for catalog tests.
type sliceStore struct {
	defs  []pricing.PriceDefinition
	err   error
	calls int
}

func (s *sliceStore) LoadPrices(_ context.Context, owners ...pricing.OwnerID) ([]pricing.PriceDefinition, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	var out []pricing.PriceDefinition
	for _, d := range s.defs {
		for _, o := range owners {
			if d.OwnerID == o {
				out = append(out, d)
			}
		}
	}
	return out, nil
}

func (s *sliceStore) SavePrice(_ context.Context, def pricing.PriceDefinition) error {
	for i, d := range s.defs {
		if d.OwnerID == def.OwnerID && d.Code == def.Code {
			s.defs[i] = def
			return nil
		}
	}
	s.defs = append(s.defs, def)
	return nil
}

func price(owner pricing.OwnerID, code string, v string) pricing.PriceDefinition {
	return pricing.PriceDefinition{Code: pricing.Code(code), OwnerID: owner, Price: decimal.RequireFromString(v)}
}

// =============================================================================
// RESOLUTION TESTS
// =============================================================================

func TestResolve_OverrideWinsOverDefault(t *testing.T) {
	// GIVEN: A system default of 50 and an override of 70 for owner 7
	// WHEN: Resolving for owner 7 and for owner 8
	// THEN: Owner 7 sees 70, owner 8 falls back to 50

	store := &sliceStore{defs: []pricing.PriceDefinition{
		price(7, "lesson.base", "70"),
		price(pricing.SystemOwner, "lesson.base", "50"),
	}}
	catalog := pricing.NewCatalog(store)
	ctx := context.Background()

	got, err := catalog.Resolve(ctx, 7, "lesson.base")
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.NewFromInt(70)), "got %s", got)

	got, err = catalog.Resolve(ctx, 8, "lesson.base")
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.NewFromInt(50)), "got %s", got)
}

func TestResolve_UnknownCodeIsZero(t *testing.T) {
	catalog := pricing.NewCatalog(&sliceStore{})

	got, err := catalog.Resolve(context.Background(), 3, "does.not.exist")
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestResolvePivot_SinglePassAllCodes(t *testing.T) {
	// GIVEN: Defaults for three codes, an override for one, and another owner's override
	// WHEN: Resolving the pivot for owner 7
	// THEN: One store call, three codes, the other owner's row ignored

	store := &sliceStore{defs: []pricing.PriceDefinition{
		price(pricing.SystemOwner, "a", "1"),
		price(pricing.SystemOwner, "b", "2"),
		price(pricing.SystemOwner, "c", "3"),
		price(7, "b", "20"),
		price(9, "c", "300"),
	}}
	catalog := pricing.NewCatalog(store)

	pivot, err := catalog.ResolvePivot(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, 1, store.calls)
	assert.Len(t, pivot, 3)
	assert.True(t, pivot.Get("a").Equal(decimal.NewFromInt(1)))
	assert.True(t, pivot.Get("b").Equal(decimal.NewFromInt(20)))
	assert.True(t, pivot.Get("c").Equal(decimal.NewFromInt(3)))
	assert.False(t, pivot.Has("d"))
	assert.True(t, pivot.Get("d").IsZero())
}

func TestResolvePivot_OverrideOnlyCode(t *testing.T) {
	// A code with no system default still resolves for the owner who defined it.
	store := &sliceStore{defs: []pricing.PriceDefinition{price(7, "custom", "4.5")}}
	catalog := pricing.NewCatalog(store)

	pivot, err := catalog.ResolvePivot(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, pivot.Get("custom").Equal(decimal.RequireFromString("4.5")))

	pivot, err = catalog.ResolvePivot(context.Background(), 8)
	require.NoError(t, err)
	assert.False(t, pivot.Has("custom"))
}

func TestResolvePivot_StoreError(t *testing.T) {
	boom := errors.New("boom")
	catalog := pricing.NewCatalog(&sliceStore{err: boom})

	_, err := catalog.ResolvePivot(context.Background(), 1)
	assert.ErrorIs(t, err, boom)
}

func TestBuildPivot_OrderIndependent(t *testing.T) {
	a := []pricing.PriceDefinition{price(7, "x", "9"), price(pricing.SystemOwner, "x", "1")}
	b := []pricing.PriceDefinition{price(pricing.SystemOwner, "x", "1"), price(7, "x", "9")}

	assert.True(t, pricing.BuildPivot(7, a).Get("x").Equal(pricing.BuildPivot(7, b).Get("x")))
	assert.True(t, pricing.BuildPivot(pricing.SystemOwner, a).Get("x").Equal(decimal.NewFromInt(1)))
}

// =============================================================================
// WRITE BOUNDARY TESTS
// =============================================================================

func TestSavePrice_RejectsNegative(t *testing.T) {
	store := &sliceStore{}
	catalog := pricing.NewCatalog(store)

	err := catalog.SavePrice(context.Background(), price(7, "x", "-1"))

	assert.ErrorIs(t, err, pricing.ErrNegativePrice)
	var negErr *pricing.NegativePriceError
	require.ErrorAs(t, err, &negErr)
	assert.Equal(t, pricing.Code("x"), negErr.Code)
	assert.Empty(t, store.defs)
}

func TestSavePrice_UpsertsOnOwnerAndCode(t *testing.T) {
	store := &sliceStore{}
	catalog := pricing.NewCatalog(store)
	ctx := context.Background()

	require.NoError(t, catalog.SavePrice(ctx, price(7, "x", "1")))
	require.NoError(t, catalog.SavePrice(ctx, price(7, "x", "2")))

	require.Len(t, store.defs, 1)
	assert.True(t, store.defs[0].Price.Equal(decimal.NewFromInt(2)))
}

// =============================================================================
// PRICE SHEET TESTS
// =============================================================================

func TestParseSheet(t *testing.T) {
	sheet := `{
		"owner_id": 0,
		"prices": [
			{"code": "lesson.base", "price": "50", "description": "base"},
			{"code": "seminar.watch_mult", "price": 1.5}
		]
	}`

	defs, err := pricing.ParseSheet(strings.NewReader(sheet))
	require.NoError(t, err)
	require.Len(t, defs, 2)

	assert.Equal(t, pricing.SystemOwner, defs[0].OwnerID)
	assert.Equal(t, "base", defs[0].Description)
	assert.True(t, defs[1].Price.Equal(decimal.RequireFromString("1.5")))

	round := pricing.ToSheet(pricing.SystemOwner, defs)
	assert.Len(t, round.Prices, 2)
}

func TestParseSheet_Duplicate(t *testing.T) {
	sheet := `{"owner_id": 4, "prices": [{"code": "a", "price": 1}, {"code": "a", "price": 2}]}`

	_, err := pricing.ParseSheet(strings.NewReader(sheet))
	assert.ErrorIs(t, err, pricing.ErrDuplicatePrice)
}

func TestParseSheet_Invalid(t *testing.T) {
	_, err := pricing.ParseSheet(strings.NewReader(`{"prices": [{"code": "", "price": 1}]}`))
	assert.ErrorIs(t, err, pricing.ErrEmptyCode)

	_, err = pricing.ParseSheet(strings.NewReader(`{"prices": [{"code": "a", "price": -3}]}`))
	assert.ErrorIs(t, err, pricing.ErrNegativePrice)

	_, err = pricing.ParseSheet(strings.NewReader(`not json`))
	assert.Error(t, err)
}
