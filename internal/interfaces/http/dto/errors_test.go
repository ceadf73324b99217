package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeUnknown, http.StatusInternalServerError},
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeInvalidCredentials, http.StatusUnauthorized},
		{ErrCodeTokenRevoked, http.StatusUnauthorized},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeAlreadyExists, http.StatusConflict},
		{ErrCodeConcurrencyConflict, http.StatusConflict},
		{ErrCodeEmptyCart, http.StatusUnprocessableEntity},
		{ErrCodeNoContact, http.StatusUnprocessableEntity},
		{ErrCodePayloadTooLarge, http.StatusRequestEntityTooLarge},
		{ErrCodeUnsupportedMedia, http.StatusUnsupportedMediaType},
		{ErrCodeStoreUnavailable, http.StatusInternalServerError},
		{ErrCodeMalformedDocument, http.StatusInternalServerError},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		// Unknown code should return 500
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"NOT_FOUND", ErrCodeNotFound},
		{"PRODUCT_NOT_FOUND", ErrCodeNotFound},
		{"CART_ITEM_NOT_FOUND", ErrCodeNotFound},
		{"PRODUCT_EXISTS", ErrCodeAlreadyExists},
		{"VALIDATION_ERROR", ErrCodeValidation},
		{"INVALID_CATEGORY", ErrCodeValidation},
		{"CONCURRENCY_CONFLICT", ErrCodeConcurrencyConflict},
		{"EMPTY_CART", ErrCodeEmptyCart},
		{"RESERVED_KEY", ErrCodeForbidden},
		{"FILE_TOO_LARGE", ErrCodePayloadTooLarge},
		{"DISALLOWED_CONTENT_TYPE", ErrCodeUnsupportedMedia},
		{"MALFORMED_DOCUMENT", ErrCodeMalformedDocument},
		{"STORE_UNAVAILABLE", ErrCodeStoreUnavailable},
		{"INVALID_CREDENTIALS", ErrCodeInvalidCredentials},
		// Response codes pass through unchanged
		{ErrCodeNotFound, ErrCodeNotFound},
		// Unknown codes pass through unchanged
		{"CUSTOM_ERROR", "CUSTOM_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeErrorCode(tt.input))
		})
	}
}

func TestEveryMappedCodeHasAStatus(t *testing.T) {
	for domainCode, code := range DomainErrorCodeMapping {
		t.Run(domainCode, func(t *testing.T) {
			_, ok := ErrorCodeHTTPStatus[code]
			assert.True(t, ok, "Error code %s should be in ErrorCodeHTTPStatus map", code)
			assert.Contains(t, code, "ERR_")
		})
	}
}

func TestNewErrorResponse(t *testing.T) {
	resp := NewErrorResponse("PRODUCT_NOT_FOUND", "Product not found")

	assert.False(t, resp.Success)
	assert.Equal(t, ErrCodeNotFound, resp.Code)
	assert.Equal(t, "Product not found", resp.Error)
	assert.Empty(t, resp.Details)
}

func TestNewValidationErrorResponse(t *testing.T) {
	details := []ValidationDetail{
		{Field: "name", Message: "This field is required"},
		{Field: "price", Message: "This field is required"},
	}

	resp := NewValidationErrorResponse("Missing required fields", "req-789", details)

	assert.False(t, resp.Success)
	assert.Equal(t, ErrCodeValidation, resp.Code)
	assert.Equal(t, "req-789", resp.RequestID)
	require.Len(t, resp.Details, 2)
	assert.Equal(t, "name", resp.Details[0].Field)
}

func TestErrorResponseJSON(t *testing.T) {
	resp := NewErrorResponseWithRequestID(ErrCodeNotFound, "Product not found", "req-test-123")

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, false, decoded["success"])
	assert.Equal(t, "Product not found", decoded["error"])
	assert.Equal(t, ErrCodeNotFound, decoded["code"])
	assert.Equal(t, "req-test-123", decoded["requestId"])
	_, hasDetails := decoded["details"]
	assert.False(t, hasDetails)
}
