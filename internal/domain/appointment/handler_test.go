package appointment

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupRouter trusts an X-User-ID header in place of the JWT middleware.
func setupRouter(t *testing.T) (*gin.Engine, *fixture) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := setup(t)
	router := gin.New()
	protected := router.Group("/api/v1")
	protected.Use(func(c *gin.Context) {
		if id, err := strconv.ParseInt(c.GetHeader("X-User-ID"), 10, 64); err == nil {
			c.Set("user_id", id)
		}
		c.Next()
	})
	RegisterRoutes(protected, NewHandler(f.svc))
	return router, f
}

func perform(router *gin.Engine, userID int64, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", strconv.FormatInt(userID, 10))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env.Error.Code
}

func TestHandler_Lifecycle(t *testing.T) {
	router, f := setupRouter(t)

	w := perform(router, requesterID, http.MethodPost, "/api/v1/appointments", gin.H{
		"listing_id":            f.listing.ID,
		"title":                 "Saturday viewing",
		"scheduled_at":          fixedNow.Add(-time.Minute).Format(time.RFC3339),
		"reminder_lead_minutes": 30,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))

	w = perform(router, ownerID, http.MethodPost, "/api/v1/appointments", gin.H{
		"listing_id":   f.listing.ID,
		"title":        "Own listing",
		"scheduled_at": fixedNow.Add(time.Hour).Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = perform(router, requesterID, http.MethodPost, "/api/v1/appointments", gin.H{
		"listing_id":            f.listing.ID,
		"title":                 "Saturday viewing",
		"scheduled_at":          fixedNow.Add(24 * time.Hour).Format(time.RFC3339),
		"reminder_lead_minutes": 30,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Data AppointmentResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "pending", created.Data.Status)
	base := "/api/v1/appointments/" + strconv.FormatInt(created.Data.ID, 10)

	w = perform(router, strangerID, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = perform(router, ownerID, http.MethodGet, "/api/v1/appointments/pending-for-my-listings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Saturday viewing")

	w = perform(router, requesterID, http.MethodPut, base+"/confirm", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, w))

	w = perform(router, ownerID, http.MethodPut, base+"/confirm", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"accepted"`)

	w = perform(router, requesterID, http.MethodPut, base+"/cancel", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = perform(router, requesterID, http.MethodGet, "/api/v1/appointments/mine", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = perform(router, ownerID, http.MethodGet, "/api/v1/appointments/for-my-listings", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = perform(router, requesterID, http.MethodPut, "/api/v1/appointments/abc/reject", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = perform(router, 0, http.MethodGet, "/api/v1/appointments/mine", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
