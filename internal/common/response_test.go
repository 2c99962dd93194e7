package common

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteErrorAppError(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, NotFound("menu item not found", errors.New("missing")))
	require.Equal(t, http.StatusNotFound, rr.Code)

	var body struct {
		Error ErrorBody `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "NOT_FOUND", body.Error.Code)
	require.Equal(t, "menu item not found", body.Error.Message)
}

func TestWriteErrorUnknown(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, errors.New("boom"))
	require.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"itemIds":[],"tip":"5"}`))
	var dst struct {
		ItemIDs []string `json:"itemIds"`
	}
	err := DecodeJSON(req, &dst)

	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)
}

func TestDecodeJSONOversizedBody(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"itemIds":["a","b","c","d"]}`))
	req.Body = http.MaxBytesReader(rr, req.Body, 10)

	var dst map[string]any
	err := DecodeJSON(req, &dst)

	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, http.StatusRequestEntityTooLarge, appErr.HTTPStatus)
	require.Equal(t, "PAYLOAD_TOO_LARGE", appErr.Code)
	require.Equal(t, map[string]any{"limit": int64(10)}, appErr.Details)
}
