package factory

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/benefits"
	"github.com/warp/attendance-engine/generic"
)

// =============================================================================
// CATALOG SCHEMA
// =============================================================================

// StatusItemJSON is the document form of one benefit code.
type StatusItemJSON struct {
	Code        string  `json:"code" yaml:"code"`
	Description string  `json:"description" yaml:"description"`
	Year        int     `json:"year,omitempty" yaml:"year,omitempty"` // 0 = every year
	Class       string  `json:"class" yaml:"class"`                   // ACC, GPO
	Entitlement float64 `json:"entitlement" yaml:"entitlement"`
	Category    string  `json:"category" yaml:"category"`
}

// CatalogJSON wraps the list so documents can grow other keys later.
type CatalogJSON struct {
	Codes []StatusItemJSON `json:"codes" yaml:"codes"`
}

// DefaultCatalogJSON is a starter catalog: yearly leave, hour permits and
// two overtime pools.
const DefaultCatalogJSON = `{
  "codes": [
    {"code": "15", "description": "Ferie", "class": "GPO", "entitlement": 26, "category": "leave-day"},
    {"code": "40", "description": "Permessi ROL", "class": "GPO", "entitlement": 72, "category": "leave-hours"},
    {"code": "45", "description": "Banca ore", "class": "ACC", "entitlement": 0, "category": "overtime"},
    {"code": "50", "description": "Straordinario", "class": "ACC", "entitlement": 0, "category": "overtime"},
    {"code": "90", "description": "Malattia", "class": "GPO", "entitlement": 0, "category": "info"}
  ]
}`

// =============================================================================
// CATALOG FACTORY
// =============================================================================

type CatalogFactory struct{}

func NewCatalogFactory() *CatalogFactory {
	return &CatalogFactory{}
}

// ParseCatalog decodes a catalog document. A bare list of codes is accepted
// as well as the {"codes": [...]} form.
func (f *CatalogFactory) ParseCatalog(data []byte, format Format) (benefits.Catalog, error) {
	var doc CatalogJSON
	if err := decode(data, format, &doc); err != nil {
		var items []StatusItemJSON
		if listErr := decode(data, format, &items); listErr != nil {
			return nil, fmt.Errorf("%w: %v", generic.ErrInvalidCatalog, err)
		}
		doc.Codes = items
	}
	return f.FromJSON(doc.Codes)
}

// FromJSON validates and converts document items in order.
func (f *CatalogFactory) FromJSON(items []StatusItemJSON) (benefits.Catalog, error) {
	catalog := make(benefits.Catalog, 0, len(items))
	seen := make(map[string]bool, len(items))
	for i, ij := range items {
		item, err := f.ItemFromJSON(ij)
		if err != nil {
			return nil, fmt.Errorf("codes[%d]: %w", i, err)
		}
		key := fmt.Sprintf("%s/%d", item.Code, item.Year)
		if seen[key] {
			return nil, fmt.Errorf("codes[%d]: %w: duplicate code %q for year %d", i, generic.ErrInvalidCatalog, item.Code, item.Year)
		}
		seen[key] = true
		catalog = append(catalog, item)
	}
	return catalog, nil
}

// ItemFromJSON converts a single code. An empty class means GPO.
func (f *CatalogFactory) ItemFromJSON(ij StatusItemJSON) (benefits.StatusItem, error) {
	item := benefits.StatusItem{
		Code:        strings.TrimSpace(ij.Code),
		Description: strings.TrimSpace(ij.Description),
		Year:        ij.Year,
		Class:       benefits.Class(strings.ToUpper(strings.TrimSpace(ij.Class))),
		Entitlement: decimal.NewFromFloat(ij.Entitlement),
		Category:    benefits.Category(strings.TrimSpace(ij.Category)),
	}
	if item.Class == "" {
		item.Class = benefits.ClassConsumption
	}

	switch {
	case item.Code == "":
		return benefits.StatusItem{}, fmt.Errorf("%w: code is required", generic.ErrInvalidCatalog)
	case item.Year < 0:
		return benefits.StatusItem{}, fmt.Errorf("%w: year must be >= 0", generic.ErrInvalidCatalog)
	case item.Class != benefits.ClassAccrual && item.Class != benefits.ClassConsumption:
		return benefits.StatusItem{}, fmt.Errorf("%w: unknown class %q", generic.ErrInvalidCatalog, ij.Class)
	case !item.Category.Valid():
		return benefits.StatusItem{}, fmt.Errorf("%w: unknown category %q", generic.ErrInvalidCatalog, ij.Category)
	}
	return item, nil
}

// ToJSON renders a code back to its document form.
func (f *CatalogFactory) ToJSON(item benefits.StatusItem) StatusItemJSON {
	return StatusItemJSON{
		Code:        item.Code,
		Description: item.Description,
		Year:        item.Year,
		Class:       string(item.Class),
		Entitlement: item.Entitlement.InexactFloat64(),
		Category:    string(item.Category),
	}
}
