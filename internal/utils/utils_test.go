package utils

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserContext(t *testing.T) {
	t.Run("SetUserContext and GetUserIDFromContext", func(t *testing.T) {
		ctx := SetUserContext(context.Background(), "admin-7", RoleAdmin)

		id, ok := GetUserIDFromContext(ctx)
		assert.True(t, ok)
		assert.Equal(t, "admin-7", id)
		assert.Equal(t, RoleAdmin, GetUserRoleFromContext(ctx))
	})

	t.Run("GetUserIDFromContext with empty context", func(t *testing.T) {
		_, ok := GetUserIDFromContext(context.Background())
		assert.False(t, ok)
		assert.Empty(t, GetUserRoleFromContext(context.Background()))
	})
}

func TestServiceCaller(t *testing.T) {
	assert.False(t, IsServiceCaller(context.Background()))
	assert.True(t, IsServiceCaller(WithServiceCaller(context.Background())))
}

func TestFormatIDR(t *testing.T) {
	tests := []struct {
		amount   int64
		expected string
	}{
		{0, "Rp 0"},
		{100, "Rp 100"},
		{1000, "Rp 1.000"},
		{50000, "Rp 50.000"},
		{1000000, "Rp 1.000.000"},
		{123456789, "Rp 123.456.789"},
		{-2500, "-Rp 2.500"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatIDR(tt.amount))
		})
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		input string
		id    string
		local string
	}{
		{"081234567890", "+6281234567890", "081234567890"},
		{"+62 812-3456-7890", "+6281234567890", "081234567890"},
		{"6281234567890", "+6281234567890", "081234567890"},
		{"81234567890", "+6281234567890", "081234567890"},
		{"", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.id, NormalizePhoneID(tt.input))
			assert.Equal(t, tt.local, NormalizePhoneLocal(tt.input))
		})
	}
}

func TestPtrHelpers(t *testing.T) {
	str := "test"
	assert.Equal(t, "test", PtrString(&str))
	assert.Equal(t, "", PtrString(nil))
	assert.Equal(t, "x", *StrPtr("x"))
}

func TestWriteJSONError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSONError(w, "error message", http.StatusBadRequest)

	resp := w.Result()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body map[string]string
	json.NewDecoder(resp.Body).Decode(&body)
	assert.Equal(t, "error message", body["error"])
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, http.StatusCreated, map[string]any{"success": true})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())
}
