package articles

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/zhixinliu/medichat/backend/internal/model/article"
	"github.com/zhixinliu/medichat/backend/pkg/utils"
)

// Handler serves the health-articles feed.
type Handler struct {
	store article.Store
}

// New creates an articles handler backed by the given store.
func New(store article.Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes mounts the articles routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/articles", h.handleList)
	r.Get("/articles/{id}", h.handleGet)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page := parseIntParam(r, "page", 1)
	limit := parseIntParam(r, "limit", 10)

	utils.RespondJSON(w, http.StatusOK, h.store.Page(page, limit))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "article id must be numeric")
		return
	}

	item, ok := h.store.FindByID(id)
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "article not found")
		return
	}

	utils.RespondJSON(w, http.StatusOK, item)
}

// parseIntParam reads a query integer, falling back to the default on
// absence or garbage. Range clamping happens in the store.
func parseIntParam(r *http.Request, key string, defaultValue int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return value
}
