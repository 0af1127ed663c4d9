package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"rentio/internal/reviews/service"
	"rentio/pkg/auth"
	apperrors "rentio/pkg/errors"
	httputil "rentio/pkg/http"
	"rentio/pkg/logger"
	"rentio/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type ReviewHandler struct {
	service service.ReviewService
	log     *logger.Logger
}

func NewReviewHandler(service service.ReviewService, log *logger.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: service,
		log:     log,
	}
}

func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input model.ReviewCreate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.writeError(w, "Create", apperrors.InvalidInput("Invalid request body"))
		return
	}

	review, err := h.service.Create(r.Context(), auth.PrincipalFrom(r.Context()), &input)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, review); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "error", err)
	}
}

func (h *ReviewHandler) ListByProperty(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListByProperty", err)
		return
	}

	var minRating *int
	if s := r.URL.Query().Get("min_rating"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			h.writeError(w, "ListByProperty", apperrors.InvalidInput("invalid min_rating parameter: "+s))
			return
		}
		minRating = &v
	}

	reviews, err := h.service.ListByProperty(r.Context(), ps.ByName("id"), minRating, limit, offset)
	if err != nil {
		h.writeError(w, "ListByProperty", err)
		return
	}

	if err := httputil.WriteSuccess(w, reviews); err != nil {
		h.log.Error("failed to write success response", "handler", "ListByProperty", "error", err)
	}
}

func (h *ReviewHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var updates model.ReviewUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		h.writeError(w, "Update", apperrors.InvalidInput("Invalid request body"))
		return
	}

	review, err := h.service.Update(r.Context(), auth.PrincipalFrom(r.Context()), ps.ByName("id"), &updates)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteSuccess(w, review); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "error", err)
	}
}

func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), auth.PrincipalFrom(r.Context()), ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *ReviewHandler) writeError(w http.ResponseWriter, handlerName string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handlerName, "error", writeErr)
	}
}

func (h *ReviewHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/reviews", h.Create)
	router.GET("/api/v1/properties/id/:id/reviews", h.ListByProperty)
	router.PATCH("/api/v1/reviews/id/:id", h.Update)
	router.DELETE("/api/v1/reviews/id/:id", h.Delete)
}
