package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/wanderlist/backend/internal/models"
	"github.com/wanderlist/backend/internal/services"
)

// CollectionHandler translates HTTP requests into collection service calls
// and service outcomes into status codes. No business logic lives here.
type CollectionHandler struct {
	collections services.CollectionService
	logger      *zap.SugaredLogger
}

func NewCollectionHandler(collections services.CollectionService, logger *zap.SugaredLogger) *CollectionHandler {
	return &CollectionHandler{
		collections: collections,
		logger:      logger,
	}
}

// writeServiceError maps the service error taxonomy onto status codes:
// validation -> 400, not found -> 404, everything else -> 500 with a generic
// body and the cause logged.
func (h *CollectionHandler) writeServiceError(w http.ResponseWriter, op string, err error) {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(ve.Msg, ve.Fields))
	case errors.Is(err, services.ErrCollectionNotFound):
		writeJSON(w, http.StatusNotFound, models.NewErrorResponse("collection not found"))
	case errors.Is(err, services.ErrLocationNotFound):
		writeJSON(w, http.StatusNotFound, models.NewErrorResponse("location not found"))
	default:
		h.logger.Errorw("collection service error", "op", op, "error", err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("internal server error"))
	}
}

func (h *CollectionHandler) CreateCollection(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	var req models.CreateCollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("invalid request body"))
		return
	}

	collection, err := h.collections.CreateCollection(r.Context(), userID, &req)
	if err != nil {
		h.writeServiceError(w, "CreateCollection", err)
		return
	}

	writeJSON(w, http.StatusCreated, collection)
}

func (h *CollectionHandler) ListCollections(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	collections, err := h.collections.ListCollections(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, "ListCollections", err)
		return
	}

	writeJSON(w, http.StatusOK, collections)
}

func (h *CollectionHandler) GetCollection(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	collectionID := chi.URLParam(r, "collectionId")

	collection, err := h.collections.GetCollection(r.Context(), userID, collectionID)
	if err != nil {
		h.writeServiceError(w, "GetCollection", err)
		return
	}

	writeJSON(w, http.StatusOK, collection)
}

func (h *CollectionHandler) UpdateCollection(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	collectionID := chi.URLParam(r, "collectionId")

	var req models.UpdateCollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("invalid request body"))
		return
	}

	collection, err := h.collections.UpdateCollection(r.Context(), userID, collectionID, &req)
	if err != nil {
		h.writeServiceError(w, "UpdateCollection", err)
		return
	}

	writeJSON(w, http.StatusOK, collection)
}

func (h *CollectionHandler) CreateLocation(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	collectionID := chi.URLParam(r, "collectionId")

	var req models.CreateLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("invalid request body"))
		return
	}

	location, err := h.collections.CreateLocation(r.Context(), userID, collectionID, &req)
	if err != nil {
		h.writeServiceError(w, "CreateLocation", err)
		return
	}

	writeJSON(w, http.StatusCreated, models.CreateLocationResponse{
		CollectionID: collectionID,
		Location:     location,
	})
}

func (h *CollectionHandler) ListLocations(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	collectionID := chi.URLParam(r, "collectionId")

	locations, err := h.collections.ListLocations(r.Context(), userID, collectionID)
	if err != nil {
		h.writeServiceError(w, "ListLocations", err)
		return
	}

	writeJSON(w, http.StatusOK, locations)
}

func (h *CollectionHandler) GetLocation(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	collectionID := chi.URLParam(r, "collectionId")
	locationID := chi.URLParam(r, "itemId")

	location, err := h.collections.GetLocation(r.Context(), userID, collectionID, locationID)
	if err != nil {
		h.writeServiceError(w, "GetLocation", err)
		return
	}

	writeJSON(w, http.StatusOK, location)
}

func (h *CollectionHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	collectionID := chi.URLParam(r, "collectionId")
	locationID := chi.URLParam(r, "itemId")

	var patch models.LocationPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("invalid request body"))
		return
	}

	location, err := h.collections.UpdateLocation(r.Context(), userID, collectionID, locationID, &patch)
	if err != nil {
		h.writeServiceError(w, "UpdateLocation", err)
		return
	}

	writeJSON(w, http.StatusOK, location)
}

func (h *CollectionHandler) DeleteLocation(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	collectionID := chi.URLParam(r, "collectionId")
	locationID := chi.URLParam(r, "itemId")

	if err := h.collections.DeleteLocation(r.Context(), userID, collectionID, locationID); err != nil {
		h.writeServiceError(w, "DeleteLocation", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
