package catalog

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of registerDate and sellByDate.
const DateLayout = "2006-01-02"

// Draft is a product being composed for sale. It starts empty, is filled in
// field by field and only leaves its owner as a Payload.
type Draft struct {
	images       []string
	Name         string
	Description  string
	Gender       Gender
	category     Category
	sizes        *SizeStockList
	Price        string
	RegisterDate time.Time
	SellByDate   time.Time
}

// NewDraft returns an empty draft.
func NewDraft() *Draft {
	return &Draft{sizes: NewSizeStockList(CategoryNone)}
}

// Category returns the selected category.
func (d *Draft) Category() Category { return d.category }

// SetCategory selects a category. The size list is reset to one empty entry.
func (d *Draft) SetCategory(c Category) {
	d.category = c
	d.sizes.Reset(c)
}

// Sizes exposes the draft's size/stock list for editing.
func (d *Draft) Sizes() *SizeStockList { return d.sizes }

// AddImage appends an image given as a data URL.
func (d *Draft) AddImage(dataURL string) {
	d.images = append(d.images, dataURL)
}

// RemoveImage drops the image at index.
func (d *Draft) RemoveImage(index int) bool {
	if index < 0 || index >= len(d.images) {
		return false
	}
	d.images = append(d.images[:index], d.images[index+1:]...)
	return true
}

// Images returns the uploaded images in order.
func (d *Draft) Images() []string {
	out := make([]string, len(d.images))
	copy(out, d.images)
	return out
}

// SetRegisterDate parses a YYYY-MM-DD date; "" unsets it.
func (d *Draft) SetRegisterDate(s string) error {
	t, err := parseDate(s)
	if err != nil {
		return err
	}
	d.RegisterDate = t
	return nil
}

// SetSellByDate parses a YYYY-MM-DD date; "" unsets it.
func (d *Draft) SetSellByDate(s string) error {
	t, err := parseDate(s)
	if err != nil {
		return err
	}
	d.SellByDate = t
	return nil
}

// Problems lists the form fields that currently keep the draft from being
// submitted, in form order.
func (d *Draft) Problems() []string {
	var out []string
	if !d.category.Valid() {
		out = append(out, "category")
	}
	if !d.Gender.Valid() {
		out = append(out, "gender")
	}
	entries := d.sizes.Entries()
	if d.category != CategoryBag {
		for _, e := range entries {
			if e.Size == "" {
				out = append(out, "sizes")
				break
			}
		}
	}
	for _, e := range entries {
		if e.Stock <= 0 {
			out = append(out, "stock")
			break
		}
	}
	if d.Name == "" {
		out = append(out, "name")
	}
	if d.Description == "" {
		out = append(out, "description")
	}
	if !PositivePrice(d.Price) {
		out = append(out, "price")
	}
	if d.RegisterDate.IsZero() {
		out = append(out, "registerDate")
	}
	if d.SellByDate.IsZero() {
		out = append(out, "sellByDate")
	}
	if len(d.images) == 0 {
		out = append(out, "images")
	}
	return out
}

// Valid reports whether every required field is filled in correctly.
func (d *Draft) Valid() bool {
	return len(d.Problems()) == 0
}

// PositivePrice reports whether s is a numeric string greater than zero.
func PositivePrice(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	p, err := decimal.NewFromString(s)
	if err != nil {
		return false
	}
	return p.IsPositive()
}

// Payload is the JSON body sent to POST /api/product/add.
type Payload struct {
	Images       []string    `json:"images" validate:"required,min=1,dive,required"`
	Name         string      `json:"name" validate:"required,max=200"`
	Description  string      `json:"description" validate:"required,max=2000"`
	Gender       Gender      `json:"gender" validate:"required,oneof=woman man"`
	Category     Category    `json:"category" validate:"required,oneof=apparel cap shoes bag"`
	Sizes        []SizeStock `json:"sizes" validate:"required,min=1,max=12"`
	Price        string      `json:"price" validate:"required"`
	RegisterDate string      `json:"registerDate" validate:"required,datetime=2006-01-02"`
	SellByDate   string      `json:"sellByDate" validate:"required,datetime=2006-01-02"`
}

// Payload serializes a valid draft. ErrInvalidDraft names the failing fields
// otherwise.
func (d *Draft) Payload() (Payload, error) {
	if problems := d.Problems(); len(problems) > 0 {
		return Payload{}, fmt.Errorf("%w: %s", ErrInvalidDraft, strings.Join(problems, ", "))
	}
	return Payload{
		Images:       d.Images(),
		Name:         d.Name,
		Description:  d.Description,
		Gender:       d.Gender,
		Category:     d.category,
		Sizes:        d.sizes.Entries(),
		Price:        strings.TrimSpace(d.Price),
		RegisterDate: d.RegisterDate.Format(DateLayout),
		SellByDate:   d.SellByDate.Format(DateLayout),
	}, nil
}

// FromPayload rebuilds a draft from a submitted payload, applying the same
// size rules the form enforces. The result still has to pass Valid.
func FromPayload(p Payload) (*Draft, error) {
	d := NewDraft()
	c, err := ParseCategory(string(p.Category))
	if err != nil {
		return nil, err
	}
	g, err := ParseGender(string(p.Gender))
	if err != nil {
		return nil, err
	}
	d.SetCategory(c)
	d.Gender = g
	d.Name = p.Name
	d.Description = p.Description
	d.Price = p.Price
	for _, img := range p.Images {
		d.AddImage(img)
	}
	if err := d.SetRegisterDate(p.RegisterDate); err != nil {
		return nil, err
	}
	if err := d.SetSellByDate(p.SellByDate); err != nil {
		return nil, err
	}

	sizes := d.Sizes()
	for i, e := range p.Sizes {
		if i > 0 && !sizes.AddEntry() {
			return nil, fmt.Errorf("%w: %s allows %d entries", ErrIndexOutOfRange, c, c.Sizing().MaxEntries)
		}
		if e.Size != "" || c.Sizing().Sized() {
			if err := sizes.SetSize(i, e.Size); err != nil {
				return nil, err
			}
		}
		if err := sizes.SetStock(i, strconv.Itoa(e.Stock)); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}
