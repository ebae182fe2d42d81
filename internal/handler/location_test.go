package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldmark/beacon/internal/handler"
	"github.com/fieldmark/beacon/internal/models"
	"github.com/fieldmark/beacon/internal/service"
)

// Mocks for the handler's collaborators.
type mockService struct {
	bestEffort     service.Resolution
	reading        service.Resolution
	readingErr     error
	validation     models.ValidationResult
	lastReading    models.LocationReading
	bestEffortHits int
}

func (m *mockService) ResolveBestEffort(_ context.Context) service.Resolution {
	m.bestEffortHits++
	return m.bestEffort
}

func (m *mockService) ResolveReading(
	_ context.Context,
	reading models.LocationReading,
) (service.Resolution, error) {
	m.lastReading = reading
	if m.readingErr != nil {
		return service.Resolution{}, m.readingErr
	}
	return m.reading, nil
}

func (m *mockService) Validate(_ models.ResolvedLocation, _ []models.GeofenceZone) models.ValidationResult {
	return m.validation
}

type mockSites struct {
	zones            []models.GeofenceZone
	err              error
	deactivateErr    error
	deactivatedLabel string
}

func (m *mockSites) FetchActiveSites(_ context.Context) ([]models.GeofenceZone, error) {
	return m.zones, m.err
}

func (m *mockSites) DeactivateSite(_ context.Context, label string) error {
	m.deactivatedLabel = label
	return m.deactivateErr
}

func newRouterForTest(svc *mockService, sites *mockSites) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := handler.NewLocationHandler(svc, sites, slog.Default())
	h.Register(router.Group("/v1"))
	return router
}

func gpsResolution() service.Resolution {
	return service.Resolution{
		Location: models.ResolvedLocation{
			LocationReading: models.LocationReading{
				Coordinates: models.Coordinates{Latitude: 50.4501, Longitude: 30.5234},
				Source:      models.SourceDeviceGPS,
			},
			Place:       models.PlaceDetails{City: "Kyiv", Provider: "nominatim", Confidence: 0.95},
			DisplayName: "Kyiv",
			IsValid:     true,
		},
		Method:   service.MethodGPS,
		Warnings: []string{},
	}
}

func TestLocationHandler_Resolve(t *testing.T) {
	t.Run("client-supplied reading", func(t *testing.T) {
		svc := &mockService{
			reading:    gpsResolution(),
			validation: models.ValidationResult{IsValid: true},
		}
		router := newRouterForTest(svc, &mockSites{})

		body := `{"latitude": 50.4501, "longitude": 30.5234, "accuracy": 12, "timestamp": 1748779200}`
		req := httptest.NewRequest(http.MethodPost, "/v1/location/resolve", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.InEpsilon(t, 50.4501, svc.lastReading.Latitude, 0.0001)
		assert.InEpsilon(t, 12.0, svc.lastReading.Accuracy, 0.0001)
		assert.Equal(t, int64(1748779200), svc.lastReading.Timestamp.Unix())
		assert.Zero(t, svc.bestEffortHits)

		var resp struct {
			Method     service.Method          `json:"method"`
			Validation models.ValidationResult `json:"validation"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, service.MethodGPS, resp.Method)
		assert.True(t, resp.Validation.IsValid)
	})

	t.Run("empty body runs the fallback chain", func(t *testing.T) {
		svc := &mockService{
			bestEffort: service.Resolution{
				Location: models.ResolvedLocation{IsValid: false},
				Method:   service.MethodFallback,
				Warnings: []string{"no real geolocation was available; using static fallback location"},
			},
		}
		router := newRouterForTest(svc, &mockSites{})

		req := httptest.NewRequest(http.MethodPost, "/v1/location/resolve", nil)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, svc.bestEffortHits)

		var resp struct {
			Method   service.Method `json:"method"`
			Warnings []string       `json:"warnings"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, service.MethodFallback, resp.Method)
		assert.Len(t, resp.Warnings, 1)
	})

	t.Run("missing longitude runs the fallback chain", func(t *testing.T) {
		svc := &mockService{bestEffort: gpsResolution()}
		router := newRouterForTest(svc, &mockSites{})

		req := httptest.NewRequest(
			http.MethodPost, "/v1/location/resolve", bytes.NewBufferString(`{"latitude": 50.4501}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, svc.bestEffortHits)
	})

	t.Run("invalid reading is rejected", func(t *testing.T) {
		svc := &mockService{readingErr: service.ErrInvalidReading}
		router := newRouterForTest(svc, &mockSites{})

		body := `{"latitude": 91, "longitude": 0}`
		req := httptest.NewRequest(http.MethodPost, "/v1/location/resolve", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed JSON is rejected", func(t *testing.T) {
		router := newRouterForTest(&mockService{}, &mockSites{})

		req := httptest.NewRequest(
			http.MethodPost, "/v1/location/resolve", bytes.NewBufferString(`{not json`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("site load failure is a server error", func(t *testing.T) {
		svc := &mockService{reading: gpsResolution()}
		router := newRouterForTest(svc, &mockSites{err: assert.AnError})

		body := `{"latitude": 50.4501, "longitude": 30.5234}`
		req := httptest.NewRequest(http.MethodPost, "/v1/location/resolve", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestLocationHandler_GetSites(t *testing.T) {
	t.Run("lists active sites", func(t *testing.T) {
		sites := &mockSites{
			zones: []models.GeofenceZone{
				{
					Coordinates:  models.Coordinates{Latitude: 50.4501, Longitude: 30.5234},
					RadiusMeters: 300,
					Label:        "head office",
				},
			},
		}
		router := newRouterForTest(&mockService{}, sites)

		req := httptest.NewRequest(http.MethodGet, "/v1/sites", nil)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var zones []models.GeofenceZone
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &zones))
		require.Len(t, zones, 1)
		assert.Equal(t, "head office", zones[0].Label)
	})

	t.Run("repository failure is a server error", func(t *testing.T) {
		router := newRouterForTest(&mockService{}, &mockSites{err: assert.AnError})

		req := httptest.NewRequest(http.MethodGet, "/v1/sites", nil)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestLocationHandler_DeactivateSite(t *testing.T) {
	t.Run("deactivates the named site", func(t *testing.T) {
		sites := &mockSites{}
		router := newRouterForTest(&mockService{}, sites)

		req := httptest.NewRequest(http.MethodDelete, "/v1/sites/head%20office", nil)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "head office", sites.deactivatedLabel)
	})

	t.Run("repository failure is a server error", func(t *testing.T) {
		sites := &mockSites{deactivateErr: assert.AnError}
		router := newRouterForTest(&mockService{}, sites)

		req := httptest.NewRequest(http.MethodDelete, "/v1/sites/warehouse", nil)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
