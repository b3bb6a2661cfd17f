package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/choriweb/shop-api/internal/core/domain"
	"github.com/choriweb/shop-api/internal/core/ports"
)

// imageField is the multipart field carrying the product picture.
const imageField = "imagen"

type ProductHandler struct {
	catalog ports.CatalogService
}

func NewProductHandler(catalog ports.CatalogService) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

// Create adds a product. Accepts JSON or multipart/form-data with an
// optional "imagen" file.
//
// @Summary      Create product
// @Tags         products
// @Accept       json,mpfd
// @Produce      json
// @Security     BearerAuth
// @Param        body    body      createProductRequest  true   "Product"
// @Param        imagen  formData  file                  false  "Product image"
// @Success      201     {object}  domain.Product
// @Failure      400     {object}  ErrorResponse
// @Failure      403     {object}  ErrorResponse
// @Router       /api/productos [post]
func (h *ProductHandler) Create(c echo.Context) error {
	var req createProductRequest
	if isMultipart(c) {
		if err := readProductForm(c, &req.Name, &req.Description, &req.CategoryID, &req.ImageURL, &req.Price, &req.Available); err != nil {
			return err
		}
	} else if err := c.Bind(&req); err != nil {
		return domain.ErrInvalidPayload
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	image, closeImage, err := openImage(c)
	if err != nil {
		return err
	}
	defer closeImage()

	p, err := h.catalog.CreateProduct(c.Request().Context(), toProductInput(req, image))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

// List returns the whole catalog, including unavailable products.
//
// @Summary      List all products
// @Tags         products
// @Produce      json
// @Success      200  {array}  domain.Product
// @Router       /api/productos [get]
func (h *ProductHandler) List(c echo.Context) error {
	return h.list(c, ports.ProductFilter{})
}

// ListAvailable returns only products that can be ordered.
//
// @Summary      List available products
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  domain.Product
// @Failure      401  {object}  ErrorResponse
// @Router       /api/productos/getallproducts [get]
func (h *ProductHandler) ListAvailable(c echo.Context) error {
	return h.list(c, ports.ProductFilter{OnlyAvailable: true})
}

func (h *ProductHandler) list(c echo.Context, filter ports.ProductFilter) error {
	products, err := h.catalog.ListProducts(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	if products == nil {
		products = []*domain.Product{}
	}
	return c.JSON(http.StatusOK, products)
}

// Get returns a single product.
//
// @Summary      Get product
// @Tags         products
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  domain.Product
// @Failure      404  {object}  ErrorResponse
// @Router       /api/productos/{id} [get]
func (h *ProductHandler) Get(c echo.Context) error {
	p, err := h.catalog.GetProduct(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// Update patches a product. A new "imagen" file replaces the stored URL.
//
// @Summary      Update product
// @Tags         products
// @Accept       json,mpfd
// @Produce      json
// @Security     BearerAuth
// @Param        id      path      string                true   "Product ID"
// @Param        body    body      updateProductRequest  true   "Fields to change"
// @Param        imagen  formData  file                  false  "Product image"
// @Success      200     {object}  domain.Product
// @Failure      400     {object}  ErrorResponse
// @Failure      404     {object}  ErrorResponse
// @Router       /api/productos/{id} [put]
func (h *ProductHandler) Update(c echo.Context) error {
	var req updateProductRequest
	if isMultipart(c) {
		var name, desc, categoryID, imageURL string
		var price *float64
		if err := readProductForm(c, &name, &desc, &categoryID, &imageURL, &price, &req.Available); err != nil {
			return err
		}
		req.Name = formPtr(c, "name", name)
		req.Description = formPtr(c, "description", desc)
		req.CategoryID = formPtr(c, "category_id", categoryID)
		req.ImageURL = formPtr(c, "image_url", imageURL)
		req.Price = price
	} else if err := c.Bind(&req); err != nil {
		return domain.ErrInvalidPayload
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	image, closeImage, err := openImage(c)
	if err != nil {
		return err
	}
	defer closeImage()

	p, err := h.catalog.UpdateProduct(c.Request().Context(), c.Param("id"), toProductPatch(req, image))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// Delete removes a product.
//
// @Summary      Delete product
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  messageResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /api/productos/{id} [delete]
func (h *ProductHandler) Delete(c echo.Context) error {
	if err := h.catalog.DeleteProduct(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Producto eliminado correctamente"})
}

func isMultipart(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}

// readProductForm copies the text fields of a multipart product form.
// Numeric and boolean fields are parsed only when present.
func readProductForm(c echo.Context, name, desc, categoryID, imageURL *string, price **float64, available **bool) error {
	*name = c.FormValue("name")
	*desc = c.FormValue("description")
	*categoryID = c.FormValue("category_id")
	*imageURL = c.FormValue("image_url")

	if raw := c.FormValue("price"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return domain.NewValidationError("El precio debe ser un número")
		}
		*price = &v
	}
	if raw := c.FormValue("available"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return domain.NewValidationError("El campo available debe ser verdadero o falso")
		}
		*available = &v
	}
	return nil
}

// formPtr returns nil when the field was not sent at all.
func formPtr(c echo.Context, field, value string) *string {
	form, err := c.MultipartForm()
	if err != nil {
		return nil
	}
	if _, ok := form.Value[field]; !ok {
		return nil
	}
	return &value
}

// openImage returns the uploaded "imagen" file, or nil when none was sent.
func openImage(c echo.Context) (*ports.ImageInput, func(), error) {
	noop := func() {}
	if !isMultipart(c) {
		return nil, noop, nil
	}

	fh, err := c.FormFile(imageField)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, noop, nil
	}
	if err != nil {
		return nil, noop, domain.ErrInvalidPayload
	}

	f, err := fh.Open()
	if err != nil {
		return nil, noop, domain.ErrImageUpload
	}
	return &ports.ImageInput{Filename: fh.Filename, Body: f}, func() { _ = f.Close() }, nil
}
