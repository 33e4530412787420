package handlers_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"catalog/internal/apperror"
	"catalog/internal/handlers"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestErrorHandler(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler(zap.New(core))})
	app.Get("/missing", func(c *fiber.Ctx) error {
		return apperror.NotFound("ID", 7)
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("disk full")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/missing", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	rejected := logs.FilterMessage("request rejected").All()
	require.Len(t, rejected, 1)
	assert.Equal(t, zapcore.DebugLevel, rejected[0].Level)
	assert.Equal(t, "not_found", rejected[0].ContextMap()["kind"])

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	body := decodeError(t, resp)
	assert.Equal(t, "An unexpected error occurred: disk full", body.Message)
	assert.Len(t, logs.FilterMessage("request failed").All(), 1)
}
