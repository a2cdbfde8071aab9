package core

import (
	"fmt"
	"strings"
)

// Category identifies one of the fixed taxonomy categories.
// The set is closed; adding a category is a taxonomy change, not a runtime operation.
type Category int

const (
	// CategoryNone marks the absence of a category (e.g. no ingestion hint).
	CategoryNone Category = iota
	CategoryBusiness
	CategoryTechnical
	CategoryWeather
	CategoryEducation
	CategoryHealthcare
	CategoryProduct
	CategoryLocation
	CategoryTime
	CategoryFinancial
	// CategoryGeneral is assigned to terms no category claims.
	CategoryGeneral
)

const categoryCount = int(CategoryGeneral)

var categoryNames = [...]string{
	CategoryNone:       "none",
	CategoryBusiness:   "business",
	CategoryTechnical:  "technical",
	CategoryWeather:    "weather",
	CategoryEducation:  "education",
	CategoryHealthcare: "healthcare",
	CategoryProduct:    "product",
	CategoryLocation:   "location",
	CategoryTime:       "time",
	CategoryFinancial:  "financial",
	CategoryGeneral:    "general",
}

// Categories returns all taxonomy categories in enum order.
func Categories() []Category {
	out := make([]Category, 0, categoryCount)
	for c := CategoryBusiness; c <= CategoryGeneral; c++ {
		out = append(out, c)
	}
	return out
}

// Valid reports whether c is one of the taxonomy categories.
func (c Category) Valid() bool {
	return c >= CategoryBusiness && c <= CategoryGeneral
}

func (c Category) String() string {
	if c < CategoryNone || int(c) >= len(categoryNames) {
		return fmt.Sprintf("category(%d)", int(c))
	}
	return categoryNames[c]
}

// ParseCategory resolves a category name case-insensitively.
// The empty string and "none" parse to CategoryNone.
func ParseCategory(name string) (Category, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return CategoryNone, nil
	}
	for i, n := range categoryNames {
		if n == name {
			return Category(i), nil
		}
	}
	return CategoryNone, fmt.Errorf("%w: %q", ErrUnknownCategory, name)
}
