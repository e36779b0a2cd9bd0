package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Category is the closed set of catalog categories.
type Category string

const (
	CategoryElectronique Category = "Électronique"
	CategoryMode         Category = "Mode"
	CategoryMaison       Category = "Maison"
	CategoryBeaute       Category = "Beauté"
	CategorySport        Category = "Sport"
	CategoryAlimentation Category = "Alimentation"
	CategoryAutre        Category = "Autre"
)

// AllCategories lists every legal category, in display order.
var AllCategories = []Category{
	CategoryElectronique,
	CategoryMode,
	CategoryMaison,
	CategoryBeaute,
	CategorySport,
	CategoryAlimentation,
	CategoryAutre,
}

func (c Category) Valid() bool {
	for _, v := range AllCategories {
		if c == v {
			return true
		}
	}
	return false
}

// Stock status values derived from the stock count.
const (
	StockStatusOut = "out_of_stock"
	StockStatusLow = "low_stock"
	StockStatusIn  = "in_stock"
)

// Stock adjustment operations.
const (
	StockOpSet      = "set"
	StockOpAdd      = "add"
	StockOpSubtract = "subtract"
)

// PlaceholderImage is substituted when a product is created without images.
const PlaceholderImage = "https://via.placeholder.com/500x500?text=Mireb+Commercial"

// ImageList stores an ordered sequence of image URLs as a JSON text column.
type ImageList []string

func (l ImageList) Value() (driver.Value, error) {
	if l == nil {
		l = ImageList{}
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *ImageList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = ImageList{}
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported image list source type %T", src)
	}
}

// Product is a catalog entry. Soft delete is the IsActive flag: inactive
// products disappear from public listings and detail fetches but stay in
// the store until an admin hard-deletes them.
type Product struct {
	gorm.Model

	Nom         string    `gorm:"not null;index" json:"nom"`
	Prix        float64   `gorm:"not null" json:"prix"`
	Images      ImageList `gorm:"type:text" json:"images"`
	Categorie   Category  `gorm:"type:varchar(32);index" json:"categorie"`
	Stock       int       `gorm:"default:0" json:"stock"`
	Description string    `gorm:"type:text" json:"description"`

	// IsActive carries no column default: a default-true tag would make
	// GORM skip the zero value on insert and silently store false as true.
	// Creation paths set the flag explicitly.
	IsActive   bool `json:"est_actif"`
	IsFeatured bool `gorm:"default:false" json:"est_en_vedette"`

	// Vues counts detail fetches; bumped with an atomic column update.
	Vues int `gorm:"default:0" json:"vues"`

	// CreatedBy is a weak reference to the creating admin, display only.
	CreatedBy uint `gorm:"index" json:"cree_par"`
}

// Normalize applies creation-time defaults before the record reaches the
// store. Replaces what the original site did in a pre-save hook.
func (p *Product) Normalize() {
	if len(p.Images) == 0 {
		p.Images = ImageList{PlaceholderImage}
	}
}

// StockStatus derives the availability label from the stock count. Computed
// on read, never stored.
func (p *Product) StockStatus() string {
	return StockStatusFor(p.Stock)
}

func StockStatusFor(stock int) string {
	switch {
	case stock == 0:
		return StockStatusOut
	case stock <= 5:
		return StockStatusLow
	default:
		return StockStatusIn
	}
}

// AdjustStock computes the new stock count for an adjustment operation.
// "set" assigns max(0, quantity); "add" applies the raw delta; "subtract"
// decrements floored at zero.
func AdjustStock(current, quantity int, operation string) (int, error) {
	switch operation {
	case StockOpSet:
		if quantity < 0 {
			return 0, nil
		}
		return quantity, nil
	case StockOpAdd:
		return current + quantity, nil
	case StockOpSubtract:
		next := current - quantity
		if next < 0 {
			return 0, nil
		}
		return next, nil
	default:
		return 0, errors.New("opération de stock invalide")
	}
}
