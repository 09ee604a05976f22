package catalog

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// NoticeTTL is how long a duplicate-size notice stays visible.
const NoticeTTL = 3 * time.Second

// DuplicateSizeNotice is the text shown when a size is picked twice.
const DuplicateSizeNotice = "size already selected"

// SizeStock is one size/quantity pairing. Stock 0 means "not entered".
type SizeStock struct {
	Size  string `json:"size"`
	Stock int    `json:"stock"`
}

// SizeStockList is the ordered size/stock breakdown of a draft. It is owned by
// a single form and is not safe for concurrent use.
type SizeStockList struct {
	category Category
	entries  []SizeStock

	notice   string
	noticeAt time.Time
	now      func() time.Time
}

// NewSizeStockList returns a list for category holding one empty entry.
func NewSizeStockList(category Category) *SizeStockList {
	l := &SizeStockList{now: time.Now}
	l.Reset(category)
	return l
}

// Reset switches the list to category and leaves exactly one empty entry.
func (l *SizeStockList) Reset(category Category) {
	l.category = category
	l.entries = []SizeStock{{}}
	l.notice = ""
}

// Category returns the category the list is constrained by.
func (l *SizeStockList) Category() Category { return l.category }

// Len returns the number of entries.
func (l *SizeStockList) Len() int { return len(l.entries) }

// Entries returns a copy of the entries in order.
func (l *SizeStockList) Entries() []SizeStock {
	out := make([]SizeStock, len(l.entries))
	copy(out, l.entries)
	return out
}

// CanAdd reports whether AddEntry would append.
func (l *SizeStockList) CanAdd() bool {
	if l.category == CategoryNone {
		return false
	}
	return len(l.entries) < l.category.Sizing().MaxEntries
}

// AddEntry appends an empty entry. It does nothing once the category cap is
// reached and reports whether an entry was added.
func (l *SizeStockList) AddEntry() bool {
	if !l.CanAdd() {
		return false
	}
	l.entries = append(l.entries, SizeStock{})
	return true
}

// RemoveEntry deletes the entry at index. The last remaining entry is never
// removed.
func (l *SizeStockList) RemoveEntry(index int) bool {
	if len(l.entries) <= 1 || index < 0 || index >= len(l.entries) {
		return false
	}
	l.entries = append(l.entries[:index], l.entries[index+1:]...)
	return true
}

// SetSize assigns value to the entry at index. A value already used by another
// entry clears this entry's size instead, raises the duplicate notice and
// returns ErrDuplicateSize. An empty value clears the size.
func (l *SizeStockList) SetSize(index int, value string) error {
	if err := l.checkIndex(index); err != nil {
		return err
	}
	sizing := l.category.Sizing()
	if !sizing.Sized() {
		return fmt.Errorf("%w: %s", ErrSizeNotApplicable, l.category)
	}
	value = strings.TrimSpace(value)
	if value != "" && !sizing.Allows(value) {
		return fmt.Errorf("%w: %q for %s", ErrUnknownSize, value, l.category)
	}

	if value != "" && l.usedElsewhere(index, value) {
		l.entries[index].Size = ""
		l.notice = DuplicateSizeNotice
		l.noticeAt = l.now()
		return fmt.Errorf("%w: %s", ErrDuplicateSize, value)
	}

	l.entries[index].Size = value
	l.notice = ""
	return nil
}

// SetStock parses value as a positive integer. Anything else clears the
// entry's stock rather than storing an invalid quantity.
func (l *SizeStockList) SetStock(index int, value string) error {
	if err := l.checkIndex(index); err != nil {
		return err
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n <= 0 {
		n = 0
	}
	l.entries[index].Stock = n
	return nil
}

// Notice returns the pending duplicate-size notice, or "" once it has expired.
func (l *SizeStockList) Notice() string {
	if l.notice == "" {
		return ""
	}
	if l.now().Sub(l.noticeAt) >= NoticeTTL {
		l.notice = ""
	}
	return l.notice
}

func (l *SizeStockList) usedElsewhere(index int, value string) bool {
	for i, e := range l.entries {
		if i != index && e.Size == value {
			return true
		}
	}
	return false
}

func (l *SizeStockList) checkIndex(index int) error {
	if index < 0 || index >= len(l.entries) {
		return fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, index, len(l.entries))
	}
	return nil
}
