package places

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/zhixinliu/medichat/backend/internal/model/place"
	placesService "github.com/zhixinliu/medichat/backend/internal/service/places"
	"github.com/zhixinliu/medichat/backend/pkg/utils"
)

// Handler serves the nearby-facilities routes.
type Handler struct {
	placesSvc *placesService.Service
}

// New creates a places handler.
func New(placesSvc *placesService.Service) *Handler {
	return &Handler{placesSvc: placesSvc}
}

// RegisterRoutes mounts the facility search routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/places", h.handleSearch)
	r.Get("/places/photo", h.handlePhoto)
	r.Get("/places/travel-times", h.handleTravelTimes)
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	lat, latErr := strconv.ParseFloat(query.Get("lat"), 64)
	lng, lngErr := strconv.ParseFloat(query.Get("lng"), 64)
	if latErr != nil || lngErr != nil {
		utils.RespondError(w, http.StatusBadRequest, "lat and lng query parameters are required")
		return
	}

	facilityType := query.Get("type")
	if facilityType == "" {
		facilityType = "pharmacy"
	}
	if !place.IsValidType(facilityType) {
		utils.RespondErrorDetail(w, http.StatusBadRequest, "invalid facility type", map[string]interface{}{
			"validTypes": place.ValidTypes,
		})
		return
	}

	radius := 0
	if raw := query.Get("radius"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			utils.RespondError(w, http.StatusBadRequest, "radius must be a positive integer")
			return
		}
		radius = parsed
	}

	results, err := h.placesSvc.Search(r.Context(), placesService.SearchParams{
		Lat:    lat,
		Lng:    lng,
		Type:   facilityType,
		Radius: radius,
	})
	if err != nil {
		h.respondUpstreamError(w, "search", err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"places": results,
		"type":   facilityType,
		"total":  len(results),
	})
}

func (h *Handler) handlePhoto(w http.ResponseWriter, r *http.Request) {
	reference := r.URL.Query().Get("reference")
	if reference == "" {
		utils.RespondError(w, http.StatusBadRequest, "reference query parameter is required")
		return
	}

	maxWidth := 0
	if raw := r.URL.Query().Get("maxwidth"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			utils.RespondError(w, http.StatusBadRequest, "maxwidth must be a positive integer")
			return
		}
		maxWidth = parsed
	}

	http.Redirect(w, r, h.placesSvc.PhotoURL(reference, maxWidth), http.StatusFound)
}

func (h *Handler) handleTravelTimes(w http.ResponseWriter, r *http.Request) {
	origins := r.URL.Query().Get("origins")
	destinations := r.URL.Query().Get("destinations")
	if origins == "" || destinations == "" {
		utils.RespondError(w, http.StatusBadRequest, "origins and destinations query parameters are required")
		return
	}

	times, err := h.placesSvc.TravelTimes(r.Context(), origins, destinations)
	if err != nil {
		h.respondUpstreamError(w, "travel-times", err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"travelTimes": times,
	})
}

func (h *Handler) respondUpstreamError(w http.ResponseWriter, op string, err error) {
	log.Printf("[places] %s failed: %v", op, err)

	var provErr *placesService.ProviderError
	if errors.As(err, &provErr) {
		utils.RespondError(w, provErr.StatusCode, provErr.Message)
		return
	}
	if errors.Is(err, placesService.ErrUnreachable) {
		utils.RespondError(w, http.StatusServiceUnavailable, "places provider unreachable")
		return
	}
	utils.RespondError(w, http.StatusInternalServerError, "facility lookup failed")
}
