package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is an item a seller registered for sale.
type Product struct {
	ID           string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	SellerID     string          `json:"sellerId,omitempty" gorm:"index;type:varchar(36)"`
	Name         string          `json:"name" gorm:"type:varchar(200);not null"`
	Description  string          `json:"description" gorm:"type:text"`
	Gender       string          `json:"gender" gorm:"type:varchar(16)"`
	Category     string          `json:"category" gorm:"type:varchar(16);index"`
	Price        decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	RegisterDate time.Time       `json:"registerDate"`
	SellByDate   time.Time       `json:"sellByDate" gorm:"index"`
	Sizes        []ProductSize   `json:"sizes" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Images       []ProductImage  `json:"images" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt  `json:"-" gorm:"index"`
}

// ProductSize is the stock held for one size of a product. Size is empty for
// unsized categories.
type ProductSize struct {
	ID        uint   `json:"-" gorm:"primaryKey"`
	ProductID string `json:"-" gorm:"type:varchar(36);uniqueIndex:ux_product_size"`
	Size      string `json:"size" gorm:"type:varchar(16);uniqueIndex:ux_product_size"`
	Stock     int    `json:"stock"`
}

// ProductImage is a stored product photo.
type ProductImage struct {
	ID        uint   `json:"-" gorm:"primaryKey"`
	ProductID string `json:"-" gorm:"type:varchar(36);index"`
	Position  int    `json:"position"`
	Key       string `json:"-" gorm:"type:varchar(255)"`
	URL       string `json:"url" gorm:"type:varchar(1024)"`
}

// StockFor returns the stock of size and whether the product offers it.
func (p *Product) StockFor(size string) (int, bool) {
	for _, s := range p.Sizes {
		if s.Size == size {
			return s.Stock, true
		}
	}
	return 0, false
}
