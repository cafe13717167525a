package catalog

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type formInput struct {
	Name        string `json:"name" validate:"required,min=3,max=50"`
	Description string `json:"description" validate:"max=200"`
	Price       string `json:"price" validate:"required,numeral,gtzero"`
	Category    string `json:"category" validate:"required,category"`
	ReleaseDate string `json:"releaseDate" validate:"required,isodate,notfuture"`
	Stock       string `json:"stock" validate:"required,numeral,gtezero,whole"`
}

const msgNameTaken = "Product name already exists."

var messages = map[string]map[string]string{
	FieldName: {
		"required": "Product name is required.",
		"min":      "Product name must be at least 3 characters.",
		"max":      "Product name must be at most 50 characters.",
	},
	FieldDescription: {
		"max": "Description must be at most 200 characters.",
	},
	FieldPrice: {
		"required": "Price is required.",
		"":         "Price must be a number greater than 0.",
	},
	FieldCategory: {
		"required": "Category is required.",
		"":         "Category must be one of " + categoryList() + ".",
	},
	FieldReleaseDate: {
		"required":  "Release date is required.",
		"notfuture": "Release date cannot be in the future.",
		"":          "Release date must be a valid date (YYYY-MM-DD).",
	},
	FieldStock: {
		"required": "Stock is required.",
		"":         "Stock must be a whole number and cannot be negative.",
	},
}

// Validator checks submitted form fields against the catalog. It never
// mutates its inputs; "today" comes from the injected clock.
type Validator struct {
	v   *validator.Validate
	now func() time.Time
}

func NewValidator(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	val := &Validator{v: validator.New(validator.WithRequiredStructEnabled()), now: now}

	val.v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})

	mustRegister(val.v, "numeral", func(fl validator.FieldLevel) bool {
		_, ok := parseNumber(fl.Field().String())
		return ok
	})
	mustRegister(val.v, "gtzero", func(fl validator.FieldLevel) bool {
		n, ok := parseNumber(fl.Field().String())
		return ok && n > 0
	})
	mustRegister(val.v, "gtezero", func(fl validator.FieldLevel) bool {
		n, ok := parseNumber(fl.Field().String())
		return ok && n >= 0
	})
	mustRegister(val.v, "whole", func(fl validator.FieldLevel) bool {
		n, ok := parseNumber(fl.Field().String())
		return ok && n == math.Trunc(n) && n <= math.MaxInt32
	})
	mustRegister(val.v, "category", func(fl validator.FieldLevel) bool {
		return IsCategory(Category(fl.Field().String()))
	})
	mustRegister(val.v, "isodate", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(DateLayout, strings.TrimSpace(fl.Field().String()))
		return err == nil
	})
	mustRegister(val.v, "notfuture", func(fl validator.FieldLevel) bool {
		return !val.isFuture(fl.Field().String())
	})

	return val
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

func (v *Validator) isFuture(s string) bool {
	now := v.now()
	d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), now.Location())
	if err != nil {
		return false
	}
	y, m, day := now.Date()
	today := time.Date(y, m, day, 0, 0, 0, 0, now.Location())
	return d.After(today)
}

// Validate returns an empty map when the submission can be written.
// editingID excludes that record from the duplicate-name check; pass 0 when
// creating.
func (v *Validator) Validate(f FormFields, existing []Product, editingID int64) FieldErrors {
	in := formInput{
		Name:        strings.TrimSpace(f.Name),
		Description: f.Description,
		Price:       string(f.Price),
		Category:    f.Category,
		ReleaseDate: f.ReleaseDate,
		Stock:       string(f.Stock),
	}

	errs := FieldErrors{}
	if err := v.v.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			panic(err)
		}
		for _, fe := range verrs {
			errs[fe.Field()] = message(fe.Field(), fe.Tag())
		}
	}

	if _, bad := errs[FieldName]; !bad && nameTaken(in.Name, existing, editingID) {
		errs[FieldName] = msgNameTaken
	}
	return errs
}

func message(field, tag string) string {
	byTag := messages[field]
	if m, ok := byTag[tag]; ok {
		return m
	}
	if m, ok := byTag[""]; ok {
		return m
	}
	return "Invalid value."
}

func nameTaken(name string, existing []Product, editingID int64) bool {
	for _, p := range existing {
		if p.ID != editingID && strings.EqualFold(p.Name, name) {
			return true
		}
	}
	return false
}
