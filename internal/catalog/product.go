package catalog

import (
	"errors"
	"strings"
)

// DateLayout is the calendar-date format used for release dates.
const DateLayout = "2006-01-02"

var (
	ErrNotFound             = errors.New("product not found")
	ErrConfirmationRequired = errors.New("delete requires confirmation")
)

type Category string

const (
	CategoryElectronics Category = "Elektronik"
	CategoryClothing    Category = "Pakaian"
	CategoryFood        Category = "Makanan"
)

// Categories lists the selectable categories in form order.
var Categories = []Category{CategoryElectronics, CategoryClothing, CategoryFood}

func IsCategory(c Category) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

func categoryList() string {
	names := make([]string, len(Categories))
	for i, c := range Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

type Product struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Category    Category `json:"category"`
	ReleaseDate string   `json:"releaseDate"`
	Stock       int      `json:"stock"`
	IsActive    bool     `json:"isActive"`
}

// Draft holds the mutable fields of a product after validation and trimming.
type Draft struct {
	Name        string
	Description string
	Price       float64
	Category    Category
	ReleaseDate string
	Stock       int
	IsActive    bool
}

func (d Draft) product(id int64) Product {
	return Product{
		ID:          id,
		Name:        strings.TrimSpace(d.Name),
		Description: strings.TrimSpace(d.Description),
		Price:       d.Price,
		Category:    d.Category,
		ReleaseDate: d.ReleaseDate,
		Stock:       d.Stock,
		IsActive:    d.IsActive,
	}
}

func seedProducts() []Product {
	return []Product{
		{
			ID:          1,
			Name:        "Makanan",
			Description: "Produk makanan siap saji",
			Price:       15000,
			Category:    CategoryFood,
			ReleaseDate: "2024-01-01",
			Stock:       100,
			IsActive:    true,
		},
		{
			ID:          2,
			Name:        "Minuman",
			Description: "Aneka minuman dingin & hangat",
			Price:       8000,
			Category:    CategoryFood,
			ReleaseDate: "2024-01-01",
			Stock:       100,
			IsActive:    true,
		},
	}
}
