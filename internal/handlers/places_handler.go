package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/wanderlist/backend/internal/models"
	"github.com/wanderlist/backend/internal/services"
)

const defaultPhotoMaxWidth = 400

// PlacesHandler fronts the external places API. A nil service means no API
// key was configured; every endpoint then fails deterministically.
type PlacesHandler struct {
	places services.PlacesService
	logger *zap.SugaredLogger
}

func NewPlacesHandler(places services.PlacesService, logger *zap.SugaredLogger) *PlacesHandler {
	return &PlacesHandler{
		places: places,
		logger: logger,
	}
}

func (h *PlacesHandler) configured(w http.ResponseWriter) bool {
	if h.places == nil {
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("missing GOOGLE_MAPS_API_KEY"))
		return false
	}
	return true
}

func (h *PlacesHandler) Search(w http.ResponseWriter, r *http.Request) {
	if !h.configured(w) {
		return
	}

	query := r.URL.Query().Get("query")
	latStr := r.URL.Query().Get("lat")
	lngStr := r.URL.Query().Get("lng")
	if query == "" || latStr == "" || lngStr == "" {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("query, lat, lng are required"))
		return
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("lat must be a number"))
		return
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("lng must be a number"))
		return
	}

	results, err := h.places.Search(r.Context(), query, lat, lng)
	if err != nil {
		h.logger.Errorw("places search failed", "query", query, "error", err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("failed to search places"))
		return
	}

	writeJSON(w, http.StatusOK, results)
}

func (h *PlacesHandler) Details(w http.ResponseWriter, r *http.Request) {
	if !h.configured(w) {
		return
	}

	placeID := chi.URLParam(r, "placeId")

	detail, err := h.places.Details(r.Context(), placeID)
	if err != nil {
		h.logger.Errorw("place details failed", "placeId", placeID, "error", err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("failed to load place details"))
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

func (h *PlacesHandler) Photo(w http.ResponseWriter, r *http.Request) {
	if !h.configured(w) {
		return
	}

	ref := r.URL.Query().Get("ref")
	if ref == "" {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("ref is required"))
		return
	}

	maxWidth := defaultPhotoMaxWidth
	if mw := r.URL.Query().Get("maxwidth"); mw != "" {
		v, err := strconv.Atoi(mw)
		if err != nil || v <= 0 {
			writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("maxwidth must be a positive integer"))
			return
		}
		maxWidth = v
	}

	body, contentType, err := h.places.Photo(r.Context(), ref, maxWidth)
	if err != nil {
		h.logger.Errorw("place photo failed", "ref", ref, "error", err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("failed to load place photo"))
		return
	}
	defer body.Close()

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	io.Copy(w, body)
}
