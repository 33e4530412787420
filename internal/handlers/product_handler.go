package handlers

import (
	"net/url"
	"strconv"

	"catalog/internal/apperror"
	"catalog/internal/models"
	"catalog/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/shopspring/decimal"
)

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service  *services.ProductService
	validate *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService, validate *validator.Validate) *ProductHandler {
	if validate == nil {
		validate = NewValidator()
	}
	return &ProductHandler{
		service:  service,
		validate: validate,
	}
}

// RegisterRoutes registers the product routes. writeGuards run in front of every
// route that modifies the catalog.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, writeGuards ...fiber.Handler) {
	guarded := func(handler fiber.Handler) []fiber.Handler {
		return append(append([]fiber.Handler{}, writeGuards...), handler)
	}

	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/name/:name", h.HandleGetProductByName)
	productRoutes.Get("/price/:price", h.HandleGetProductByPrice)
	productRoutes.Get("/stock/:stock", h.HandleGetProductByStock)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Post("/create", guarded(h.HandleCreateProduct)...)
	productRoutes.Put("/update/:id", guarded(h.HandleUpdateProduct)...)
	productRoutes.Patch("/update/:id", guarded(h.HandleUpdateProductPartial)...)
	productRoutes.Delete("/:id", guarded(h.HandleDeleteProduct)...)
}

// HandleGetProducts retrieves all products.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(products)
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	id, err := productID(c)
	if err != nil {
		return err
	}
	product, err := h.service.GetProductByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(product)
}

func (h *ProductHandler) HandleGetProductByName(c *fiber.Ctx) error {
	name := utils.CopyString(c.Params("name"))
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	product, err := h.service.GetProductByName(c.UserContext(), name)
	if err != nil {
		return err
	}
	return c.JSON(product)
}

func (h *ProductHandler) HandleGetProductByPrice(c *fiber.Ctx) error {
	price, err := decimal.NewFromString(c.Params("price"))
	if err != nil {
		return apperror.Validation(map[string]string{"price": "must be a decimal number"})
	}
	product, err := h.service.GetProductByPrice(c.UserContext(), price)
	if err != nil {
		return err
	}
	return c.JSON(product)
}

func (h *ProductHandler) HandleGetProductByStock(c *fiber.Ctx) error {
	stock, err := strconv.Atoi(c.Params("stock"))
	if err != nil {
		return apperror.Validation(map[string]string{"stock": "must be an integer"})
	}
	product, err := h.service.GetProductByStock(c.UserContext(), stock)
	if err != nil {
		return err
	}
	return c.JSON(product)
}

// HandleCreateProduct creates a new product.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var input models.ProductInput
	if err := h.parseProductBody(c, &input); err != nil {
		return err
	}

	product, err := h.service.CreateProduct(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct replaces every field of an existing product.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	id, err := productID(c)
	if err != nil {
		return err
	}
	var input models.ProductInput
	if err := h.parseProductBody(c, &input); err != nil {
		return err
	}

	product, err := h.service.UpdateProduct(c.UserContext(), id, input)
	if err != nil {
		return err
	}
	return c.JSON(product)
}

// HandleUpdateProductPartial updates only the fields present in the body.
func (h *ProductHandler) HandleUpdateProductPartial(c *fiber.Ctx) error {
	id, err := productID(c)
	if err != nil {
		return err
	}
	var input models.PartialProductInput
	if err := h.parseProductBody(c, &input); err != nil {
		return err
	}

	product, err := h.service.UpdateProductPartial(c.UserContext(), id, input)
	if err != nil {
		return err
	}
	return c.JSON(product)
}

// HandleDeleteProduct deletes a product by its ID.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	id, err := productID(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteProduct(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ProductHandler) parseProductBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return apperror.Validation(map[string]string{"body": err.Error()})
	}
	return validateStruct(h.validate, out, apperror.ValidationMessage)
}

func productID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.Validation(map[string]string{"id": "must be a positive integer"})
	}
	return uint(id), nil
}
