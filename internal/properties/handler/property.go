package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"rentio/internal/properties/service"
	"rentio/pkg/auth"
	apperrors "rentio/pkg/errors"
	httputil "rentio/pkg/http"
	"rentio/pkg/logger"
	"rentio/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type PropertyHandler struct {
	service service.PropertyService
	log     *logger.Logger
}

func NewPropertyHandler(service service.PropertyService, log *logger.Logger) *PropertyHandler {
	return &PropertyHandler{
		service: service,
		log:     log,
	}
}

func (h *PropertyHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var property model.Property
	if err := json.NewDecoder(r.Body).Decode(&property); err != nil {
		h.writeError(w, "Create", apperrors.InvalidInput("Invalid request body"))
		return
	}

	if err := h.service.Create(r.Context(), auth.PrincipalFrom(r.Context()), &property); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, property); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "error", err)
	}
}

func (h *PropertyHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	property, err := h.service.GetByID(r.Context(), auth.PrincipalFrom(r.Context()), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, property); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "error", err)
	}
}

func (h *PropertyHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	filter, err := extractFilter(r)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	properties, total, err := h.service.List(r.Context(), auth.PrincipalFrom(r.Context()), filter, limit, offset)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	if err := httputil.WritePaginated(w, properties, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "List", "error", err)
	}
}

func (h *PropertyHandler) ListOwn(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListOwn", err)
		return
	}

	properties, total, err := h.service.ListOwn(r.Context(), auth.PrincipalFrom(r.Context()), limit, offset)
	if err != nil {
		h.writeError(w, "ListOwn", err)
		return
	}

	if err := httputil.WritePaginated(w, properties, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListOwn", "error", err)
	}
}

func (h *PropertyHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var updates model.PropertyUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		h.writeError(w, "Update", apperrors.InvalidInput("Invalid request body"))
		return
	}

	property, err := h.service.Update(r.Context(), auth.PrincipalFrom(r.Context()), ps.ByName("id"), &updates)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteSuccess(w, property); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "error", err)
	}
}

func (h *PropertyHandler) ToggleStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	property, err := h.service.ToggleStatus(r.Context(), auth.PrincipalFrom(r.Context()), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "ToggleStatus", err)
		return
	}

	if err := httputil.WriteSuccess(w, property); err != nil {
		h.log.Error("failed to write success response", "handler", "ToggleStatus", "error", err)
	}
}

func (h *PropertyHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), auth.PrincipalFrom(r.Context()), ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

func extractFilter(r *http.Request) (*model.PropertyFilter, error) {
	query := r.URL.Query()
	filter := &model.PropertyFilter{
		City:  query.Get("city"),
		Query: query.Get("q"),
	}

	if s := query.Get("min_price"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, apperrors.InvalidInput("invalid min_price parameter: " + s)
		}
		filter.MinPrice = &v
	}
	if s := query.Get("max_price"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, apperrors.InvalidInput("invalid max_price parameter: " + s)
		}
		filter.MaxPrice = &v
	}
	if s := query.Get("rooms"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return nil, apperrors.InvalidInput("invalid rooms parameter: " + s)
		}
		filter.Rooms = &v
	}

	return filter, nil
}

func (h *PropertyHandler) writeError(w http.ResponseWriter, handlerName string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handlerName, "error", writeErr)
	}
}

func (h *PropertyHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/properties", h.Create)
	router.GET("/api/v1/properties", h.List)
	router.GET("/api/v1/properties/mine", h.ListOwn)
	router.GET("/api/v1/properties/id/:id", h.GetByID)
	router.PATCH("/api/v1/properties/id/:id", h.Update)
	router.DELETE("/api/v1/properties/id/:id", h.Delete)
	router.POST("/api/v1/properties/id/:id/toggle-status", h.ToggleStatus)
}
