package handler

import (
	"github.com/choriweb/shop-api/internal/core/domain"
	"github.com/choriweb/shop-api/internal/core/ports"
)

// --- Service output → Response ---

func toIdentityResponse(id domain.Identity, token string) identityResponse {
	return identityResponse{
		ID:        id.ID,
		Name:      id.Name,
		Email:     id.Email,
		Role:      id.Role,
		Active:    id.Active,
		CreatedAt: id.CreatedAt,
		UpdatedAt: id.UpdatedAt,
		Token:     token,
	}
}

func toCartResponse(c *domain.Cart) cartResponse {
	items := c.Items
	if items == nil {
		items = []domain.CartItem{}
	}
	return cartResponse{UserID: c.UserID, Items: items, Total: c.Total()}
}

// --- Request → Service input ---

func toProductInput(req createProductRequest, image *ports.ImageInput) ports.ProductInput {
	var price float64
	if req.Price != nil {
		price = *req.Price
	}
	return ports.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       price,
		Available:   req.Available,
		CategoryID:  req.CategoryID,
		ImageURL:    req.ImageURL,
		Image:       image,
	}
}

func toProductPatch(req updateProductRequest, image *ports.ImageInput) ports.ProductPatch {
	return ports.ProductPatch{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Available:   req.Available,
		CategoryID:  req.CategoryID,
		ImageURL:    req.ImageURL,
		Image:       image,
	}
}

func toPlaceOrderInput(req createOrderRequest, userID string) ports.PlaceOrderInput {
	lines := make([]ports.OrderLineInput, 0, len(req.Items))
	for _, it := range req.Items {
		lines = append(lines, ports.OrderLineInput{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return ports.PlaceOrderInput{
		UserID: userID,
		Items:  lines,
		Address: domain.ShippingAddress{
			Street:       req.Address.Street,
			Number:       req.Address.Number,
			Neighborhood: req.Address.Neighborhood,
			Municipality: req.Address.Municipality,
			State:        req.Address.State,
			ZipCode:      req.Address.ZipCode,
			Phone:        req.Address.Phone,
			References:   req.Address.References,
		},
		PaymentMethod: domain.PaymentMethod(req.PaymentMethod),
	}
}
