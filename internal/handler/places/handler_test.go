package places

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/zhixinliu/medichat/backend/internal/config"
	placesService "github.com/zhixinliu/medichat/backend/internal/service/places"
)

const nearbyOne = `{
	"status": "OK",
	"results": [
		{"place_id": "p1", "name": "Central Pharmacy", "vicinity": "Main St 1",
		 "geometry": {"location": {"lat": 52.521, "lng": 13.406}}, "rating": 4.2}
	]
}`

func setupRouter(upstream *httptest.Server) *chi.Mux {
	svc := placesService.NewService(config.PlacesConfig{BaseURL: upstream.URL})
	handler := New(svc)
	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r
}

func fakeNearby(body string, status int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
}

func TestSearchReturnsPlaces(t *testing.T) {
	upstream := fakeNearby(nearbyOne, http.StatusOK)
	defer upstream.Close()
	r := setupRouter(upstream)

	req := httptest.NewRequest(http.MethodGet, "/places?lat=52.52&lng=13.405&type=pharmacy", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Places []json.RawMessage `json:"places"`
		Type   string            `json:"type"`
		Total  int               `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Type != "pharmacy" || body.Total != 1 || len(body.Places) != 1 {
		t.Fatalf("unexpected envelope: %s", rec.Body.String())
	}
}

func TestSearchMissingCoordinates(t *testing.T) {
	upstream := fakeNearby(nearbyOne, http.StatusOK)
	defer upstream.Close()
	r := setupRouter(upstream)

	req := httptest.NewRequest(http.MethodGet, "/places?type=pharmacy", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSearchInvalidTypeListsValidTypes(t *testing.T) {
	upstream := fakeNearby(nearbyOne, http.StatusOK)
	defer upstream.Close()
	r := setupRouter(upstream)

	req := httptest.NewRequest(http.MethodGet, "/places?lat=37.77&lng=-122.42&type=bogus", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var body struct {
		Error      string   `json:"error"`
		ValidTypes []string `json:"validTypes"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.ValidTypes) != 5 {
		t.Fatalf("expected 5 valid types, got %v", body.ValidTypes)
	}
}

func TestSearchRelaysProviderFailure(t *testing.T) {
	upstream := fakeNearby(`{"status": "OVER_QUERY_LIMIT", "error_message": "quota exceeded"}`, http.StatusOK)
	defer upstream.Close()
	r := setupRouter(upstream)

	req := httptest.NewRequest(http.MethodGet, "/places?lat=52.52&lng=13.405&type=doctor", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "quota exceeded") {
		t.Fatalf("expected provider message, got %s", rec.Body.String())
	}
}

func TestSearchUnreachableProvider(t *testing.T) {
	upstream := fakeNearby(nearbyOne, http.StatusOK)
	r := setupRouter(upstream)
	upstream.Close()

	req := httptest.NewRequest(http.MethodGet, "/places?lat=52.52&lng=13.405&type=hospital", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestPhotoRedirects(t *testing.T) {
	upstream := fakeNearby(nearbyOne, http.StatusOK)
	defer upstream.Close()
	r := setupRouter(upstream)

	req := httptest.NewRequest(http.MethodGet, "/places/photo?reference=abc123&maxwidth=600", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	location := rec.Header().Get("Location")
	if !strings.Contains(location, "photoreference=abc123") || !strings.Contains(location, "maxwidth=600") {
		t.Fatalf("unexpected redirect target: %s", location)
	}
}

func TestPhotoRequiresReference(t *testing.T) {
	upstream := fakeNearby(nearbyOne, http.StatusOK)
	defer upstream.Close()
	r := setupRouter(upstream)

	req := httptest.NewRequest(http.MethodGet, "/places/photo", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestTravelTimesRequiresParams(t *testing.T) {
	upstream := fakeNearby(nearbyOne, http.StatusOK)
	defer upstream.Close()
	r := setupRouter(upstream)

	req := httptest.NewRequest(http.MethodGet, "/places/travel-times?origins=52.52,13.405", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestTravelTimesEnvelope(t *testing.T) {
	matrix := `{
		"status": "OK",
		"rows": [{"elements": [
			{"status": "OK", "duration": {"text": "7 mins", "value": 420}}
		]}]
	}`
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, matrix)
	}))
	defer upstream.Close()
	r := setupRouter(upstream)

	req := httptest.NewRequest(http.MethodGet, "/places/travel-times?origins=52.52,13.405&destinations=52.521,13.406", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		TravelTimes []struct {
			Walking string `json:"walking"`
			Driving string `json:"driving"`
		} `json:"travelTimes"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.TravelTimes) != 1 || body.TravelTimes[0].Walking != "7 mins" {
		t.Fatalf("unexpected payload: %s", rec.Body.String())
	}
}
