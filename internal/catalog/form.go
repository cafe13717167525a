package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	FieldName        = "name"
	FieldDescription = "description"
	FieldPrice       = "price"
	FieldCategory    = "category"
	FieldReleaseDate = "releaseDate"
	FieldStock       = "stock"
	FieldIsActive    = "isActive"
)

// FieldErrors maps a form field to the message of its first failing rule.
type FieldErrors map[string]string

// FormValue is a numeric form input kept as typed text. It decodes from a
// JSON string, number or null.
type FormValue string

func (v *FormValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*v = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = FormValue(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("form value must be a string or a number: %w", err)
	}
	*v = FormValue(n.String())
	return nil
}

type FormFields struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       FormValue `json:"price"`
	Category    string    `json:"category"`
	ReleaseDate string    `json:"releaseDate"`
	Stock       FormValue `json:"stock"`
	IsActive    bool      `json:"isActive"`
}

func DefaultForm() FormFields {
	return FormFields{Stock: "0", IsActive: true}
}

func FormFromProduct(p Product) FormFields {
	return FormFields{
		Name:        p.Name,
		Description: p.Description,
		Price:       FormValue(strconv.FormatFloat(p.Price, 'f', -1, 64)),
		Category:    string(p.Category),
		ReleaseDate: p.ReleaseDate,
		Stock:       FormValue(strconv.Itoa(p.Stock)),
		IsActive:    p.IsActive,
	}
}

// Apply overwrites the named fields and returns them sorted. Unknown names
// leave the form untouched.
func (f *FormFields) Apply(patch map[string]json.RawMessage) ([]string, error) {
	next := *f
	touched := make([]string, 0, len(patch))

	for name, raw := range patch {
		var err error
		switch name {
		case FieldName:
			err = json.Unmarshal(raw, &next.Name)
		case FieldDescription:
			err = json.Unmarshal(raw, &next.Description)
		case FieldPrice:
			err = json.Unmarshal(raw, &next.Price)
		case FieldCategory:
			err = json.Unmarshal(raw, &next.Category)
		case FieldReleaseDate:
			err = json.Unmarshal(raw, &next.ReleaseDate)
		case FieldStock:
			err = json.Unmarshal(raw, &next.Stock)
		case FieldIsActive:
			err = json.Unmarshal(raw, &next.IsActive)
		default:
			return nil, fmt.Errorf("unknown form field %q", name)
		}
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
		touched = append(touched, name)
	}

	sort.Strings(touched)
	*f = next
	return touched, nil
}

// draft converts fields that already passed validation.
func (f FormFields) draft() Draft {
	price, _ := parseNumber(string(f.Price))
	stock, _ := parseNumber(string(f.Stock))

	date := strings.TrimSpace(f.ReleaseDate)
	if t, err := time.Parse(DateLayout, date); err == nil {
		date = t.Format(DateLayout)
	}

	return Draft{
		Name:        f.Name,
		Description: f.Description,
		Price:       price,
		Category:    Category(f.Category),
		ReleaseDate: date,
		Stock:       int(stock),
		IsActive:    f.IsActive,
	}
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}
