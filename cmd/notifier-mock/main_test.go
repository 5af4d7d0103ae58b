package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockProvider_Send(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := SetupRouter(NewHandler(NewMockProvider(1, 0)))

	body, _ := json.Marshal(SendNotificationRequest{ID: "evt-1", To: "a@example.com", Subject: "Booked"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/notifications", bytes.NewReader(body)))

	require.Equal(t, http.StatusOK, w.Code)
	var resp SendNotificationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, StatusAccepted, resp.Status)
	assert.Equal(t, "evt-1", resp.NotificationID)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/notifications", nil))
	assert.Contains(t, w.Body.String(), "a@example.com")
}

func TestMockProvider_RejectsAll(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := SetupRouter(NewHandler(NewMockProvider(0, 0)))

	body, _ := json.Marshal(SendNotificationRequest{ID: "evt-2", To: "b@example.com", Subject: "Moved"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/notifications", bytes.NewReader(body)))

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), string(StatusRejected))
}

func TestMockProvider_BadRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := SetupRouter(NewHandler(NewMockProvider(1, 0)))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/notifications", bytes.NewReader([]byte(`{}`))))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
