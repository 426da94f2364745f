package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tweetflow/internal/domain"
	"tweetflow/pkg/logger"
)

func TestWriteErrorHidesInternalDetailsAndLogsThem(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.ErrorLevel, &buf)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/tweets", nil)
	writeError(rec, req, log, errors.New("disk full"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal error","kind":"internal_error"}`, rec.Body.String())

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "İstek işlenemedi", entry["message"])
	assert.Equal(t, "disk full", entry["error"])
	assert.Equal(t, "/api/tweets", entry["path"])
}

func TestWriteErrorKeepsClientErrorsOutOfErrorLog(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.ErrorLevel, &buf)

	rec := httptest.NewRecorder()
	writeError(rec, httptest.NewRequest(http.MethodGet, "/api/users/9", nil), log, domain.ErrUserNotFound)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"user not found","kind":"not_found"}`, rec.Body.String())
	assert.Empty(t, buf.String())
}
