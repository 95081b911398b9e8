package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"shipment-tracking-service/internal/adapters/distance"
	"shipment-tracking-service/internal/adapters/events"
	"shipment-tracking-service/internal/adapters/repositories"
	"shipment-tracking-service/internal/api/dto"
	"shipment-tracking-service/internal/services"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	tracker := services.NewTracker(distance.NewGreatCircleProvider(1), services.DefaultSettings())
	tracker.Now = func() time.Time { return t0 }
	svc := services.NewShipmentService(
		repositories.NewMemoryShipmentRepository(),
		tracker,
		events.NewLogPublisher(nil),
	)
	return NewRouter(svc)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

const createBody = `{
	"containerId": "MSCU1234567",
	"cargo": "Electronics",
	"weightKg": 18000,
	"route": [
		{"name": "Rotterdam", "coordinates": {"lat": 0, "lng": 0}},
		{"name": "Suez", "coordinates": {"lat": 0, "lng": 5}},
		{"name": "Singapore", "coordinates": {"lat": 0, "lng": 10}}
	]
}`

func TestHealth(t *testing.T) {
	w := do(t, newTestServer(t), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestCreateAndGetShipment(t *testing.T) {
	h := newTestServer(t)

	w := do(t, h, http.MethodPost, "/shipments", createBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "/shipments/MSCU1234567", w.Header().Get("Location"))

	var created dto.ShipmentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "pending", created.Status)
	assert.Len(t, created.Route, 3)
	assert.Equal(t, "passed", created.Route[0].Status)
	assert.Equal(t, "current", created.Route[1].Status)
	assert.Equal(t, "upcoming", created.Route[2].Status)

	w = do(t, h, http.MethodPost, "/shipments", createBody)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, h, http.MethodGet, "/shipments/mscu1234567", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodGet, "/shipments/UNKNOWN", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateShipmentValidation(t *testing.T) {
	h := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"containerId":`},
		{"unknown field", `{"containerId":"A","route":[],"extra":1}`},
		{"short route", `{"containerId":"A","route":[{"name":"X","coordinates":{"lat":0,"lng":0}}]}`},
		{"missing lat", `{"containerId":"A","route":[{"name":"X","coordinates":{"lng":0}},{"name":"Y","coordinates":{"lat":1,"lng":1}}]}`},
		{"lat out of range", `{"containerId":"A","route":[{"name":"X","coordinates":{"lat":95,"lng":0}},{"name":"Y","coordinates":{"lat":1,"lng":1}}]}`},
		{"two objects", `{"containerId":"A"}{"containerId":"B"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/shipments", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

func TestLocationUpdateFlow(t *testing.T) {
	h := newTestServer(t)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/shipments", createBody).Code)

	report := `{"lat": 1, "lng": 5, "timestamp": "2026-01-02T08:00:00Z", "speed": 35}`
	w := do(t, h, http.MethodPost, "/shipments/MSCU1234567/location", report)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res dto.LocationUpdateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "in-transit", res.Shipment.Status)
	assert.Equal(t, uint64(1), res.Shipment.LastUpdateSeq)
	require.Len(t, res.Alerts, 1)
	assert.Equal(t, "route_deviation", res.Alerts[0].Type)
	assert.Equal(t, "high", res.Alerts[0].Severity)

	// Same report again.
	w = do(t, h, http.MethodPost, "/shipments/MSCU1234567/location", report)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, h, http.MethodPost, "/shipments/MSCU1234567/location", `{"lat": 0, "lng": 5, "timestamp": "2026-01-03T08:00:00Z", "heading": 400}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodGet, "/shipments/MSCU1234567/eta", "")
	require.Equal(t, http.StatusOK, w.Code)
	var eta dto.ETAResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &eta))
	assert.Equal(t, "Singapore", eta.Destination)
	assert.True(t, eta.CurrentETA.After(time.Date(2026, 1, 2, 8, 0, 0, 0, time.UTC)))
}

func TestStatusEndpoints(t *testing.T) {
	h := newTestServer(t)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/shipments", createBody).Code)

	w := do(t, h, http.MethodPut, "/shipments/MSCU1234567/status", `{"status":"held"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var s dto.ShipmentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &s))
	assert.Equal(t, "held", s.Status)
	assert.Equal(t, "manual", s.StatusSource)

	w = do(t, h, http.MethodPut, "/shipments/MSCU1234567/status", `{"status":"in-transit"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPut, "/shipments/MSCU1234567/status", `{"status":"sunk"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodDelete, "/shipments/MSCU1234567/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &s))
	assert.Equal(t, "pending", s.Status)
}

func TestUpdateShipmentDetails(t *testing.T) {
	h := newTestServer(t)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/shipments", createBody).Code)

	w := do(t, h, http.MethodPatch, "/shipments/mscu1234567", `{"cargo": "Machinery", "weightKg": 21000}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated dto.ShipmentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "Machinery", updated.Cargo)
	assert.Equal(t, 21000.0, updated.WeightKg)
	assert.Equal(t, uint64(1), updated.LastUpdateSeq)
	assert.Equal(t, "pending", updated.Status)

	w = do(t, h, http.MethodPatch, "/shipments/MSCU1234567", `{"weightKg": 0}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "Machinery", updated.Cargo)
	assert.Equal(t, 0.0, updated.WeightKg)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"empty body", `{}`, http.StatusBadRequest},
		{"negative weight", `{"weightKg": -5}`, http.StatusBadRequest},
		{"empty cargo", `{"cargo": ""}`, http.StatusBadRequest},
		{"blank cargo", `{"cargo": "   "}`, http.StatusBadRequest},
		{"unknown field", `{"cargo": "Grain", "status": "held"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPatch, "/shipments/MSCU1234567", tt.body)
			assert.Equal(t, tt.code, w.Code, w.Body.String())
		})
	}

	w = do(t, h, http.MethodPatch, "/shipments/UNKNOWN", `{"cargo": "Grain"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	require.Equal(t, http.StatusOK, do(t, h, http.MethodPut, "/shipments/MSCU1234567/status", `{"status": "cancelled"}`).Code)
	w = do(t, h, http.MethodPatch, "/shipments/MSCU1234567", `{"cargo": "Grain"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestListShipments(t *testing.T) {
	h := newTestServer(t)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/shipments", createBody).Code)

	w := do(t, h, http.MethodGet, "/shipments?status=pending&sort=eta&limit=10", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list dto.ListShipmentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Count)

	for _, q := range []string{"?status=lost", "?sort=name", "?limit=0", "?limit=101"} {
		w := do(t, h, http.MethodGet, "/shipments"+q, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestDeleteShipment(t *testing.T) {
	h := newTestServer(t)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/shipments", createBody).Code)

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/shipments/MSCU1234567", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, "/shipments/MSCU1234567", "").Code)
}

func TestMethodNotAllowed(t *testing.T) {
	w := do(t, newTestServer(t), http.MethodPut, "/shipments/MSCU1234567", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestRequestIDIsPropagated(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	newTestServer(t).ServeHTTP(w, r)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}
