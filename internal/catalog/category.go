package catalog

import "fmt"

// Category is the product category chosen on the registration form.
type Category string

const (
	CategoryNone    Category = ""
	CategoryApparel Category = "apparel"
	CategoryCap     Category = "cap"
	CategoryShoes   Category = "shoes"
	CategoryBag     Category = "bag"
)

// Gender is the target gender of a product.
type Gender string

const (
	GenderNone  Gender = ""
	GenderWoman Gender = "woman"
	GenderMan   Gender = "man"
)

// Sizing describes how a category breaks its stock down by size.
type Sizing struct {
	// MaxEntries is the largest number of size/stock entries allowed.
	MaxEntries int
	// Sizes is the allowed size vocabulary. Empty means the category is not sized.
	Sizes []string
}

// Sized reports whether entries of this category carry a size label.
func (s Sizing) Sized() bool { return len(s.Sizes) > 0 }

// Allows reports whether size is part of the vocabulary.
func (s Sizing) Allows(size string) bool {
	for _, v := range s.Sizes {
		if v == size {
			return true
		}
	}
	return false
}

var (
	clothingSizes = []string{"Small", "Medium", "Large"}
	shoeSizes     = func() []string {
		sizes := make([]string, 0, 13)
		for mm := 220; mm <= 280; mm += 5 {
			sizes = append(sizes, fmt.Sprintf("%d", mm))
		}
		return sizes
	}()
)

// Sizing returns the size rules for the category. The zero Sizing (cap 1, no
// vocabulary) is returned while no category is chosen.
func (c Category) Sizing() Sizing {
	switch c {
	case CategoryApparel, CategoryCap:
		return Sizing{MaxEntries: 3, Sizes: clothingSizes}
	case CategoryShoes:
		return Sizing{MaxEntries: 12, Sizes: shoeSizes}
	case CategoryBag:
		return Sizing{MaxEntries: 1}
	default:
		return Sizing{MaxEntries: 1}
	}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryApparel, CategoryCap, CategoryShoes, CategoryBag:
		return true
	}
	return false
}

// Valid reports whether g is one of the known genders.
func (g Gender) Valid() bool {
	return g == GenderWoman || g == GenderMan
}

// ParseCategory converts form input into a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if c != CategoryNone && !c.Valid() {
		return CategoryNone, fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return c, nil
}

// ParseGender converts form input into a Gender.
func ParseGender(s string) (Gender, error) {
	g := Gender(s)
	if g != GenderNone && !g.Valid() {
		return GenderNone, fmt.Errorf("%w: %q", ErrUnknownGender, s)
	}
	return g, nil
}
