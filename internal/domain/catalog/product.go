package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// Product errors
var (
	ErrProductNotFound = shared.NewDomainError("PRODUCT_NOT_FOUND", "Product not found")
	ErrProductExists   = shared.NewDomainError("PRODUCT_EXISTS", "A product with this id already exists")
)

// ProductImage is one entry of a product's gallery
type ProductImage struct {
	URL    string `json:"url" validate:"required"`
	IsMain bool   `json:"isMain"`
}

// Product is a catalog entry as stored in the products document.
// Only ID and Name are mandatory at rest; listings created or edited through
// the admin surface must also pass ValidateListing.
type Product struct {
	ID          string         `json:"id" validate:"required,max=128"`
	Name        string         `json:"name" validate:"required,max=200"`
	Description string         `json:"description,omitempty"`
	Price       *Price         `json:"price,omitempty"`
	Category    Category       `json:"category,omitempty" validate:"omitempty,oneof=Perfumes Apparel Creams"`
	Image       string         `json:"image,omitempty"`
	Images      []ProductImage `json:"images,omitempty" validate:"omitempty,dive"`
	Video       string         `json:"video,omitempty"`
	Whatsapp    string         `json:"whatsapp,omitempty"`
	Facebook    string         `json:"facebook,omitempty"`
	Instagram   string         `json:"instagram,omitempty"`
	Snapchat    string         `json:"snapchat,omitempty"`
	DataAIHint  string         `json:"dataAiHint,omitempty"`
	CreatedAt   *time.Time     `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time     `json:"updatedAt,omitempty"`
}

// NewProductID returns a fresh product identifier
func NewProductID() string {
	return uuid.NewString()
}

// Validate checks the at-rest schema
func (p *Product) Validate() error {
	var fields []shared.FieldError
	if err := validate.Struct(p); err != nil {
		fields = append(fields, fieldErrors(err)...)
	}
	if p.Price != nil && p.Price.IsNegative() {
		fields = append(fields, shared.FieldError{Field: "price", Message: "Must be greater than or equal to 0"})
	}
	if len(fields) > 0 {
		return shared.NewValidationError("Invalid product", fields...)
	}
	return nil
}

// ValidateListing checks the stricter schema used by admin create and edit:
// name, description, price and category are all required.
func (p *Product) ValidateListing() error {
	var missing []shared.FieldError
	if strings.TrimSpace(p.Name) == "" {
		missing = append(missing, shared.FieldError{Field: "name", Message: "This field is required"})
	}
	if strings.TrimSpace(p.Description) == "" {
		missing = append(missing, shared.FieldError{Field: "description", Message: "This field is required"})
	}
	if p.Price == nil {
		missing = append(missing, shared.FieldError{Field: "price", Message: "This field is required"})
	}
	if p.Category == "" {
		missing = append(missing, shared.FieldError{Field: "category", Message: "This field is required"})
	}
	if len(missing) > 0 {
		return shared.NewValidationError("Missing required fields", missing...)
	}
	return p.Validate()
}

// ProductPatch is a partial update. Nil fields are left untouched.
type ProductPatch struct {
	Name        *string
	Description *string
	Price       *Price
	Category    *Category
	Image       *string
	Images      *[]ProductImage
	Video       *string
	Whatsapp    *string
	Facebook    *string
	Instagram   *string
	Snapchat    *string
	DataAIHint  *string
}

// Apply returns a copy of p with the patch applied and UpdatedAt set to now
func (patch ProductPatch) Apply(p Product, now time.Time) Product {
	next := p
	if patch.Name != nil {
		next.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		next.Description = *patch.Description
	}
	if patch.Price != nil {
		price := *patch.Price
		next.Price = &price
	}
	if patch.Category != nil {
		next.Category = *patch.Category
	}
	if patch.Image != nil {
		next.Image = *patch.Image
	}
	if patch.Images != nil {
		next.Images = append([]ProductImage(nil), (*patch.Images)...)
	}
	if patch.Video != nil {
		next.Video = *patch.Video
	}
	if patch.Whatsapp != nil {
		next.Whatsapp = *patch.Whatsapp
	}
	if patch.Facebook != nil {
		next.Facebook = *patch.Facebook
	}
	if patch.Instagram != nil {
		next.Instagram = *patch.Instagram
	}
	if patch.Snapchat != nil {
		next.Snapchat = *patch.Snapchat
	}
	if patch.DataAIHint != nil {
		next.DataAIHint = *patch.DataAIHint
	}
	updated := now.UTC()
	next.UpdatedAt = &updated
	return next
}
