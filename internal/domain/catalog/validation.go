package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/storefront/backend/internal/domain/shared"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// fieldErrors converts validator output into domain field errors.
// Paths drop the root struct name, so "Product.images[0].url" becomes "images[0].url".
func fieldErrors(err error) []shared.FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []shared.FieldError{{Field: "", Message: err.Error()}}
	}
	out := make([]shared.FieldError, 0, len(verrs))
	for _, e := range verrs {
		field := e.Namespace()
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}
		out = append(out, shared.FieldError{Field: field, Message: validationMessage(e)})
	}
	return out
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "max":
		return "Must be at most " + e.Param() + " characters"
	case "oneof":
		return "Must be one of: " + e.Param()
	default:
		return "Invalid value"
	}
}

// ValidateCatalog checks every product against the at-rest schema and
// rejects duplicate ids. Field paths are prefixed with the product index.
func ValidateCatalog(products []Product) error {
	var fields []shared.FieldError
	seen := make(map[string]int, len(products))
	for i := range products {
		if err := products[i].Validate(); err != nil {
			var verr *shared.ValidationError
			if errors.As(err, &verr) {
				for _, f := range verr.Fields {
					fields = append(fields, shared.FieldError{
						Field:   fmt.Sprintf("[%d].%s", i, f.Field),
						Message: f.Message,
					})
				}
			}
		}
		id := products[i].ID
		if id == "" {
			continue
		}
		if first, dup := seen[id]; dup {
			fields = append(fields, shared.FieldError{
				Field:   fmt.Sprintf("[%d].id", i),
				Message: fmt.Sprintf("Duplicate id %q (first seen at index %d)", id, first),
			})
			continue
		}
		seen[id] = i
	}
	if len(fields) > 0 {
		return shared.NewValidationError("Invalid catalog", fields...)
	}
	return nil
}

// DecodeCatalog parses a stored products document. An empty body is an empty
// catalog. Anything that is not a JSON array of valid products fails with
// ErrMalformedDocument wrapping the cause.
func DecodeCatalog(data []byte) ([]Product, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []Product{}, nil
	}
	if trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: products document is not an array", shared.ErrMalformedDocument)
	}
	var products []Product
	if err := json.Unmarshal(trimmed, &products); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrMalformedDocument, err)
	}
	if err := ValidateCatalog(products); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrMalformedDocument, err)
	}
	if products == nil {
		products = []Product{}
	}
	return products, nil
}

// EncodeCatalog renders the products document with two-space indentation
func EncodeCatalog(products []Product) ([]byte, error) {
	if products == nil {
		products = []Product{}
	}
	return json.MarshalIndent(products, "", "  ")
}
