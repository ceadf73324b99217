package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext(method, target string, body string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.RequestIDContextKey, "req-42")
	return c, w
}

func TestGetRequestID(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(*gin.Context)
		expectedID string
	}{
		{
			name: "from context",
			setup: func(c *gin.Context) {
				c.Set(middleware.RequestIDContextKey, "ctx-request-id")
			},
			expectedID: "ctx-request-id",
		},
		{
			name: "from header when context empty",
			setup: func(c *gin.Context) {
				c.Request.Header.Set(middleware.RequestIDHeader, "header-request-id")
			},
			expectedID: "header-request-id",
		},
		{
			name:       "empty when not set",
			setup:      func(c *gin.Context) {},
			expectedID: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("GET", "/", nil)
			tt.setup(c)

			assert.Equal(t, tt.expectedID, getRequestID(c))
		})
	}
}

func TestBaseHandler_HandleError(t *testing.T) {
	h := &BaseHandler{}

	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"product not found", catalog.ErrProductNotFound, http.StatusNotFound, dto.ErrCodeNotFound, "Product not found"},
		{"version conflict", shared.ErrConcurrencyConflict, http.StatusConflict, dto.ErrCodeConcurrencyConflict, "Resource was modified by another process"},
		{"wrapped store failure", fmt.Errorf("%w: dial tcp: timeout", shared.ErrStoreUnavailable), http.StatusInternalServerError, dto.ErrCodeStoreUnavailable, "Storage backend is unavailable"},
		{"malformed document", fmt.Errorf("%w: not an array", shared.ErrMalformedDocument), http.StatusInternalServerError, dto.ErrCodeMalformedDocument, "Stored document is malformed"},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestContext("GET", "/", "")
			h.HandleError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			resp := decodeError(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.code, resp.Code)
			assert.Equal(t, tt.message, resp.Error)
			assert.Equal(t, "req-42", resp.RequestID)
		})
	}

	t.Run("validation errors list their fields", func(t *testing.T) {
		c, w := newTestContext("GET", "/", "")
		h.HandleError(c, shared.NewValidationError("Missing required fields",
			shared.FieldError{Field: "price", Message: "This field is required"},
			shared.FieldError{Field: "category", Message: "This field is required"},
		))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeError(t, w)
		assert.Equal(t, dto.ErrCodeValidation, resp.Code)
		assert.Equal(t, "Missing required fields", resp.Error)
		require.Len(t, resp.Details, 2)
		assert.Equal(t, "price", resp.Details[0].Field)
		assert.Equal(t, "category", resp.Details[1].Field)
	})

	t.Run("nil error writes nothing", func(t *testing.T) {
		c, w := newTestContext("GET", "/", "")
		h.HandleError(c, nil)
		assert.False(t, c.Writer.Written())
		assert.Empty(t, w.Body.String())
	})
}

func TestBaseHandler_BindError(t *testing.T) {
	type body struct {
		ProductID string `json:"productId" binding:"required"`
	}
	h := &BaseHandler{}
	middleware.SetupValidator()

	t.Run("syntax error is invalid JSON", func(t *testing.T) {
		c, w := newTestContext("POST", "/", `{"productId":`)
		var b body
		h.BindError(c, c.ShouldBindJSON(&b))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidJSON, decodeError(t, w).Code)
	})

	t.Run("binding tags produce details", func(t *testing.T) {
		c, w := newTestContext("POST", "/", `{}`)
		var b body
		h.BindError(c, c.ShouldBindJSON(&b))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeError(t, w)
		assert.Equal(t, dto.ErrCodeValidation, resp.Code)
		require.Len(t, resp.Details, 1)
		assert.Equal(t, "productId", resp.Details[0].Field)
	})

	t.Run("oversized body is 413", func(t *testing.T) {
		c, w := newTestContext("POST", "/", `{"productId":"`+strings.Repeat("x", 64)+`"}`)
		c.Request.Body = http.MaxBytesReader(w, c.Request.Body, 16)
		var b body
		h.BindError(c, c.ShouldBindJSON(&b))

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Equal(t, dto.ErrCodePayloadTooLarge, decodeError(t, w).Code)
	})
}

func TestBaseHandler_OK(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext("DELETE", "/", "")
	h.OK(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())
}
