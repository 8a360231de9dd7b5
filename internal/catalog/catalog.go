// =============================================================================
// Excursion POS - Catalog
// =============================================================================
//
// The catalog is the agency's price list: one row per combination of
// excursion category, package tier, transport mode and circuit, each with a
// per-person base price.
//
// SOURCE FILE (CSV or XLSX, first sheet):
//
//   | Type     | Formule  | Transport | Circuit        | Prix  |
//   |----------|----------|-----------|----------------|-------|
//   | Terre    | Standard | Minibus   | Cascades       | 40    |
//   | Mer      | Premium  | Bateau    | Lagon Bleu     | 80,50 |
//
//   Columns are matched by header name, so their order is free. Circuit and
//   Prix are required. A catalog without a Type column holds land excursions
//   only; missing Formule or Transport columns read as "".
//
// LOOKUP:
//   FindEntry returns the FIRST row, in file order, matching all four filters.
//   Filters compare case-insensitively after trimming. There is no fallback
//   price: a combination absent from the file is a NotFoundError.
//
// =============================================================================

package catalog

import (
	"fmt"
	"strings"

	"github.com/laka-amlay/excursion-pos/internal/types"
)

// Column names of the catalog file.
const (
	ColumnType      = "Type"
	ColumnFormule   = "Formule"
	ColumnTransport = "Transport"
	ColumnCircuit   = "Circuit"
	ColumnPrix      = "Prix"
)

// Catalog is a loaded, read-only price list.
type Catalog struct {
	// SourceFile is the path the catalog was loaded from.
	SourceFile string

	entries []types.CatalogEntry
}

// New builds a catalog from entries already in memory.
func New(entries []types.CatalogEntry) *Catalog {
	out := make([]types.CatalogEntry, len(entries))
	copy(out, entries)
	return &Catalog{entries: out}
}

// Entries returns every row of the catalog in file order.
func (c *Catalog) Entries() []types.CatalogEntry {
	out := make([]types.CatalogEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Len returns the number of rows.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// FindEntry returns the first entry matching the category, package tier,
// transport mode and circuit.
//
// PARAMETERS:
//   - category: Land or Sea.
//   - packageTier, transportMode, circuit: Exact values of the Formule,
//     Transport and Circuit columns. Case and surrounding spaces are ignored.
//
// RETURNS:
//   - The matching entry.
//   - A *types.NotFoundError if no row matches.
func (c *Catalog) FindEntry(category types.Category, packageTier, transportMode, circuit string) (types.CatalogEntry, error) {
	for _, e := range c.entries {
		if e.Category == category &&
			same(e.PackageTier, packageTier) &&
			same(e.TransportMode, transportMode) &&
			same(e.CircuitDescription, circuit) {
			return e, nil
		}
	}
	return types.CatalogEntry{}, &types.NotFoundError{
		What: "catalog entry",
		Key:  fmt.Sprintf("%s / %s / %s / %s", category, packageTier, transportMode, circuit),
	}
}

// Filter narrows DistinctValues to the rows matching every non-empty field.
type Filter struct {
	Category      *types.Category
	PackageTier   string
	TransportMode string
}

// Match reports whether an entry passes the filter.
func (f Filter) Match(e types.CatalogEntry) bool {
	if f.Category != nil && e.Category != *f.Category {
		return false
	}
	if f.PackageTier != "" && !same(e.PackageTier, f.PackageTier) {
		return false
	}
	if f.TransportMode != "" && !same(e.TransportMode, f.TransportMode) {
		return false
	}
	return true
}

// DistinctValues lists the values of a column among the rows matching filter,
// in order of first appearance. These are the choices offered to the operator
// at each step of a booking (category, then tier, then transport, then
// circuit).
func (c *Catalog) DistinctValues(column string, filter Filter) ([]string, error) {
	var get func(types.CatalogEntry) string
	switch column {
	case ColumnType:
		get = func(e types.CatalogEntry) string { return e.Category.String() }
	case ColumnFormule:
		get = func(e types.CatalogEntry) string { return e.PackageTier }
	case ColumnTransport:
		get = func(e types.CatalogEntry) string { return e.TransportMode }
	case ColumnCircuit:
		get = func(e types.CatalogEntry) string { return e.CircuitDescription }
	default:
		return nil, fmt.Errorf("unknown catalog column %q", column)
	}

	var values []string
	seen := make(map[string]bool)
	for _, e := range c.entries {
		if !filter.Match(e) {
			continue
		}
		v := get(e)
		key := strings.ToLower(v)
		if v == "" || seen[key] {
			continue
		}
		seen[key] = true
		values = append(values, v)
	}
	return values, nil
}

func same(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
