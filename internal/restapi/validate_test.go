package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type testPayload struct {
	Name string `json:"name" validate:"required"`
}

func TestDecodeAndValidateRejectsMalformedBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	var dst testPayload
	ok := decodeAndValidate(rec, req, &dst)

	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDecodeAndValidateRejectsMissingRequiredField(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	var dst testPayload
	ok := decodeAndValidate(rec, req, &dst)

	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDecodeAndValidateAcceptsValidBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"alice"}`))
	rec := httptest.NewRecorder()

	var dst testPayload
	ok := decodeAndValidate(rec, req, &dst)

	assert.True(t, ok)
	assert.Equal(t, "alice", dst.Name)
}
