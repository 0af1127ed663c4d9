package handler

import (
	"net/http"

	"rentio/internal/analytics/service"
	"rentio/pkg/auth"
	apperrors "rentio/pkg/errors"
	httputil "rentio/pkg/http"
	"rentio/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type AnalyticsHandler struct {
	service service.AnalyticsService
	log     *logger.Logger
}

func NewAnalyticsHandler(service service.AnalyticsService, log *logger.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		service: service,
		log:     log,
	}
}

func (h *AnalyticsHandler) ViewHistory(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ViewHistory", err)
		return
	}

	views, total, err := h.service.ViewHistory(r.Context(), auth.PrincipalFrom(r.Context()), limit, offset)
	if err != nil {
		h.writeError(w, "ViewHistory", err)
		return
	}

	if err := httputil.WritePaginated(w, views, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ViewHistory", "error", err)
	}
}

func (h *AnalyticsHandler) PopularSearches(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	results, err := h.service.PopularSearches(r.Context())
	if err != nil {
		h.writeError(w, "PopularSearches", err)
		return
	}

	if err := httputil.WriteSuccess(w, results); err != nil {
		h.log.Error("failed to write success response", "handler", "PopularSearches", "error", err)
	}
}

// RecordView lets a client register a property view explicitly, for flows
// where the detail page is served from a cache.
func (h *AnalyticsHandler) RecordView(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal := auth.PrincipalFrom(r.Context())
	if principal == nil {
		h.writeError(w, "RecordView", apperrors.Unauthorized("Authentication required"))
		return
	}

	if err := h.service.RecordView(r.Context(), principal.UserID, ps.ByName("id")); err != nil {
		h.writeError(w, "RecordView", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *AnalyticsHandler) writeError(w http.ResponseWriter, handlerName string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handlerName, "error", writeErr)
	}
}

func (h *AnalyticsHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/analytics/views", h.ViewHistory)
	router.GET("/api/v1/analytics/popular-searches", h.PopularSearches)
	router.POST("/api/v1/analytics/views/id/:id", h.RecordView)
}
