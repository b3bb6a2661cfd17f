package handler

import (
	"time"

	"github.com/choriweb/shop-api/internal/core/domain"
)

// ErrorResponse is the envelope returned on every 4xx/5xx response.
type ErrorResponse struct {
	Message []string `json:"message"`
}

// messageResponse is returned by operations that only confirm success.
type messageResponse struct {
	Message string `json:"message"`
}

// --- Auth ---

// registerRequest has no role field: self-registered accounts are always clients.
type registerRequest struct {
	Name     string `json:"name"     validate:"required,min=2"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,password"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Captcha  string `json:"captcha"`
}

type identityResponse struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	Active    bool        `json:"active"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	Token     string      `json:"token,omitempty"`
}

// --- Catalog ---

type createCategoryRequest struct {
	Name        string `json:"name"        validate:"required,min=3"`
	Description string `json:"description" validate:"max=500"`
}

type updateCategoryRequest struct {
	Name        *string `json:"name"        validate:"omitempty,min=3"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	Active      *bool   `json:"active"`
}

type createProductRequest struct {
	Name        string   `json:"name"        validate:"required,min=3"`
	Description string   `json:"description" validate:"max=1000"`
	Price       *float64 `json:"price"       validate:"required,gte=0"`
	Available   *bool    `json:"available"`
	CategoryID  string   `json:"category_id" validate:"required,mongodb"`
	ImageURL    string   `json:"image_url"   validate:"omitempty,url"`
}

type updateProductRequest struct {
	Name        *string  `json:"name"        validate:"omitempty,min=3"`
	Description *string  `json:"description" validate:"omitempty,max=1000"`
	Price       *float64 `json:"price"       validate:"omitempty,gte=0"`
	Available   *bool    `json:"available"`
	CategoryID  *string  `json:"category_id" validate:"omitempty,mongodb"`
	ImageURL    *string  `json:"image_url"   validate:"omitempty,url"`
}

// --- Cart ---

type addToCartRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity"   validate:"omitempty,min=1"`
}

type cartResponse struct {
	UserID string            `json:"user_id"`
	Items  []domain.CartItem `json:"items"`
	Total  float64           `json:"total"`
}

// --- Orders ---

type orderLineRequest struct {
	ProductID string `json:"product_id" validate:"required,mongodb"`
	Quantity  int    `json:"quantity"   validate:"required,min=1"`
}

type addressRequest struct {
	Street       string `json:"street"       validate:"required"`
	Number       string `json:"number"       validate:"required"`
	Neighborhood string `json:"neighborhood" validate:"required"`
	Municipality string `json:"municipality" validate:"required"`
	State        string `json:"state"        validate:"required"`
	ZipCode      string `json:"zip_code"     validate:"required"`
	Phone        string `json:"phone"        validate:"required"`
	References   string `json:"references"   validate:"max=300"`
}

type createOrderRequest struct {
	Items         []orderLineRequest `json:"items"          validate:"dive"`
	Address       addressRequest     `json:"address"        validate:"required"`
	PaymentMethod string             `json:"payment_method" validate:"omitempty,oneof=cash_on_delivery transfer"`
}

type orderCreatedResponse struct {
	Message string        `json:"message"`
	Order   *domain.Order `json:"order"`
}

type updateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending preparing on_the_way delivered cancelled"`
}

type updatePaymentRequest struct {
	PaymentStatus string `json:"payment_status" validate:"required,oneof=pending paid"`
}
