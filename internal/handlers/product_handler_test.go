package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"catalog/internal/database"
	"catalog/internal/handlers"
	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupApp builds a Fiber app backed by a private in-memory SQLite database.
func setupApp(t *testing.T) *fiber.App {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := database.Open("sqlite", dsn, nil)
	require.NoError(t, err, "failed to connect to in-memory database")
	require.NoError(t, database.Migrate(db), "failed to auto-migrate database")
	t.Cleanup(func() { _ = database.Close(db) })

	productService := services.NewProductService(repositories.NewGORMProductRepository(db), nil, nil)

	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler(nil)})
	handlers.NewProductHandler(productService, handlers.NewValidator()).RegisterRoutes(app)
	return app
}

func doRequest(t *testing.T, app *fiber.App, method, target string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeProduct(t *testing.T, resp *http.Response) models.Product {
	t.Helper()

	var product models.Product
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&product))
	return product
}

type errorBody struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

func decodeError(t *testing.T, resp *http.Response) errorBody {
	t.Helper()

	var body errorBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestProductLifecycle(t *testing.T) {
	app := setupApp(t)

	resp := doRequest(t, app, http.MethodPost, "/products/create", map[string]interface{}{
		"name": "Widget", "price": 9.99, "stock": 10,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeProduct(t, resp)
	assert.Equal(t, uint(1), created.ID)
	assert.Equal(t, "Widget", created.Name)

	resp = doRequest(t, app, http.MethodPost, "/products/create", map[string]interface{}{
		"name": "widget", "price": 1, "stock": 1,
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Product already exists with the name: widget", decodeError(t, resp).Message)

	resp = doRequest(t, app, http.MethodPatch, "/products/update/1", map[string]interface{}{"stock": 5})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	patched := decodeProduct(t, resp)
	assert.Equal(t, "Widget", patched.Name)
	assert.True(t, decimal.RequireFromString("9.99").Equal(patched.Price.Decimal), "price was %s", patched.Price)
	assert.Equal(t, 5, patched.Stock)

	resp = doRequest(t, app, http.MethodDelete, "/products/1", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doRequest(t, app, http.MethodGet, "/products/1", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Product not found with ID: 1", decodeError(t, resp).Message)
}

func TestGetProducts(t *testing.T) {
	app := setupApp(t)

	resp := doRequest(t, app, http.MethodGet, "/products", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var products []models.Product
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&products))
	assert.Empty(t, products)

	doRequest(t, app, http.MethodPost, "/products/create", map[string]interface{}{"name": "Laptop", "price": "1200.00", "stock": 10})
	doRequest(t, app, http.MethodPost, "/products/create", map[string]interface{}{"name": "Mouse", "price": 25, "stock": 50})

	resp = doRequest(t, app, http.MethodGet, "/products", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&products))
	require.Len(t, products, 2)
	assert.Equal(t, "Laptop", products[0].Name)
	assert.Equal(t, "Mouse", products[1].Name)
}

func TestGetProductByLookups(t *testing.T) {
	app := setupApp(t)

	resp := doRequest(t, app, http.MethodPost, "/products/create", map[string]interface{}{
		"name": "Desk Lamp", "description": "LED", "price": 19.5, "stock": 4,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doRequest(t, app, http.MethodGet, "/products/name/desk%20LAMP", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Desk Lamp", decodeProduct(t, resp).Name)

	resp = doRequest(t, app, http.MethodGet, "/products/price/19.50", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Desk Lamp", decodeProduct(t, resp).Name)

	resp = doRequest(t, app, http.MethodGet, "/products/stock/4", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Desk Lamp", decodeProduct(t, resp).Name)

	resp = doRequest(t, app, http.MethodGet, "/products/name/chair", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Product not found with name: chair", decodeError(t, resp).Message)

	resp = doRequest(t, app, http.MethodGet, "/products/price/3.10", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doRequest(t, app, http.MethodGet, "/products/stock/40", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMalformedPathParameters(t *testing.T) {
	app := setupApp(t)

	for _, target := range []string{"/products/abc", "/products/0", "/products/price/cheap", "/products/stock/lots"} {
		resp := doRequest(t, app, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, target)
	}
}

func TestCreateProductValidation(t *testing.T) {
	app := setupApp(t)

	tests := []struct {
		name        string
		body        map[string]interface{}
		wantField   string
		wantMessage string
	}{
		{
			name:        "blank name",
			body:        map[string]interface{}{"name": "   ", "price": 1, "stock": 1},
			wantField:   "name",
			wantMessage: "must not be blank",
		},
		{
			name:        "missing price",
			body:        map[string]interface{}{"name": "Widget", "stock": 1},
			wantField:   "price",
			wantMessage: "must not be null",
		},
		{
			name:        "zero price",
			body:        map[string]interface{}{"name": "Widget", "price": 0, "stock": 1},
			wantField:   "price",
			wantMessage: "The field cannot be less than 0",
		},
		{
			name:        "three decimal places",
			body:        map[string]interface{}{"name": "Widget", "price": "0.105", "stock": 1},
			wantField:   "price",
			wantMessage: "must have at most 17 integer digits and 2 decimal places",
		},
		{
			name:        "tiny price",
			body:        map[string]interface{}{"name": "Widget", "price": "1e-400", "stock": 1},
			wantField:   "price",
			wantMessage: "must have at most 17 integer digits and 2 decimal places",
		},
		{
			name:        "eighteen integer digits",
			body:        map[string]interface{}{"name": "Widget", "price": "123456789012345678", "stock": 1},
			wantField:   "price",
			wantMessage: "must have at most 17 integer digits and 2 decimal places",
		},
		{
			name:        "negative stock",
			body:        map[string]interface{}{"name": "Widget", "price": 1, "stock": -3},
			wantField:   "stock",
			wantMessage: "The field cannot be less than 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, app, http.MethodPost, "/products/create", tt.body)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)

			body := decodeError(t, resp)
			assert.Equal(t, "Please, fill the required fields: name (must not be blank), price and stock (must not be negative or null).", body.Message)
			assert.Equal(t, tt.wantMessage, body.Errors[tt.wantField])
		})
	}

	resp := doRequest(t, app, http.MethodGet, "/products", nil)
	var products []models.Product
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&products))
	assert.Empty(t, products, "rejected payloads must not be stored")
}

func TestCreateProductMalformedJSON(t *testing.T) {
	app := setupApp(t)

	req := httptest.NewRequest(http.MethodPost, "/products/create", strings.NewReader(`{"name":`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdateProduct(t *testing.T) {
	app := setupApp(t)

	doRequest(t, app, http.MethodPost, "/products/create", map[string]interface{}{"name": "Widget", "price": 9.99, "stock": 10})
	doRequest(t, app, http.MethodPost, "/products/create", map[string]interface{}{"name": "Gadget", "price": 5, "stock": 2})

	// keeping its own name is not a collision
	resp := doRequest(t, app, http.MethodPut, "/products/update/1", map[string]interface{}{
		"name": "WIDGET", "description": "renamed", "price": 12, "stock": 8,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decodeProduct(t, resp)
	assert.Equal(t, uint(1), updated.ID)
	assert.Equal(t, "WIDGET", updated.Name)
	assert.Equal(t, "renamed", updated.Description)
	assert.True(t, decimal.NewFromInt(12).Equal(updated.Price.Decimal))
	assert.Equal(t, 8, updated.Stock)

	resp = doRequest(t, app, http.MethodPut, "/products/update/1", map[string]interface{}{
		"name": "gadget", "price": 12, "stock": 8,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// full update needs price and stock
	resp = doRequest(t, app, http.MethodPut, "/products/update/1", map[string]interface{}{"name": "Widget", "stock": 8})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decodeError(t, resp).Errors, "price")

	resp = doRequest(t, app, http.MethodPut, "/products/update/99", map[string]interface{}{
		"name": "Nothing", "price": 1, "stock": 1,
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateProductPartial(t *testing.T) {
	app := setupApp(t)

	doRequest(t, app, http.MethodPost, "/products/create", map[string]interface{}{
		"name": "Widget", "description": "small", "price": 9.99, "stock": 10,
	})

	// blank strings leave the stored values alone
	resp := doRequest(t, app, http.MethodPatch, "/products/update/1", map[string]interface{}{
		"name": " ", "description": "", "price": "4.25",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	patched := decodeProduct(t, resp)
	assert.Equal(t, "Widget", patched.Name)
	assert.Equal(t, "small", patched.Description)
	assert.Equal(t, "4.25", patched.Price.String())
	assert.Equal(t, 10, patched.Stock)

	resp = doRequest(t, app, http.MethodPatch, "/products/update/1", map[string]interface{}{"stock": 0})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "The field cannot be less than 0", decodeError(t, resp).Errors["stock"])

	resp = doRequest(t, app, http.MethodPatch, "/products/update/7", map[string]interface{}{"stock": 1})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteProductNotFound(t *testing.T) {
	app := setupApp(t)

	resp := doRequest(t, app, http.MethodDelete, "/products/5", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Product not found with ID: 5", decodeError(t, resp).Message)
}

func TestCreateProductKeepsLargePrice(t *testing.T) {
	app := setupApp(t)

	resp := doRequest(t, app, http.MethodPost, "/products/create", map[string]interface{}{
		"name": "Mainframe", "price": "12345678901234567.89", "stock": 1,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "12345678901234567.89", decodeProduct(t, resp).Price.String())

	resp = doRequest(t, app, http.MethodGet, "/products/1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "12345678901234567.89", decodeProduct(t, resp).Price.String())

	resp = doRequest(t, app, http.MethodGet, "/products/price/12345678901234567.89", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Mainframe", decodeProduct(t, resp).Name)

	resp = doRequest(t, app, http.MethodPatch, "/products/update/1", map[string]interface{}{"price": "0.001"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "must have at most 17 integer digits and 2 decimal places", decodeError(t, resp).Errors["price"])
}
