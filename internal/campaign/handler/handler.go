package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"pulseaid/internal/campaign/models"
	"pulseaid/pkg/domain"
	dErrors "pulseaid/pkg/domain-errors"
	"pulseaid/pkg/platform/httputil"
	request "pulseaid/pkg/platform/middleware/request"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the campaign operations the HTTP layer needs.
type Service interface {
	Create(ctx context.Context, req *models.CreateRequest) (*models.Campaign, error)
	Donate(ctx context.Context, id domain.CampaignID, amount domain.Amount) (*models.Campaign, error)
	End(ctx context.Context, id domain.CampaignID) (*models.Campaign, error)
	Cancel(ctx context.Context, id domain.CampaignID) (*models.Campaign, error)
	Get(ctx context.Context, id domain.CampaignID) (*models.Campaign, error)
	List(ctx context.Context, filter models.Filter) ([]*models.Campaign, error)
}

// Handler handles campaign endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

type listResponse struct {
	Campaigns []*models.Campaign `json:"campaigns"`
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/campaigns", h.handleList)
	r.Get("/campaigns/{id}", h.handleGet)
}

func (h *Handler) RegisterAuthenticated(r chi.Router) {
	r.Post("/campaigns", h.handleCreate)
	r.Post("/campaigns/{id}/donations", h.handleDonate)
	r.Post("/campaigns/{id}/end", h.handleEnd)
	r.Post("/campaigns/{id}/cancel", h.handleCancel)
}

func (h *Handler) RegisterGovernance(r chi.Router) {
	r.Post("/admin/campaigns/{id}/cancel", h.handleCancel)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.CreateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	c, err := h.service.Create(ctx, &req)
	if err != nil {
		h.fail(ctx, w, "failed to create campaign", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) handleDonate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := campaignID(w, r)
	if !ok {
		return
	}
	var req models.DonateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	c, err := h.service.Donate(ctx, id, req.Amount)
	if err != nil {
		h.fail(ctx, w, "failed to donate", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) handleEnd(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "failed to end campaign", h.service.End)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "failed to cancel campaign", h.service.Cancel)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, msg string, fn func(context.Context, domain.CampaignID) (*models.Campaign, error)) {
	ctx := r.Context()
	id, ok := campaignID(w, r)
	if !ok {
		return
	}
	c, err := fn(ctx, id)
	if err != nil {
		h.fail(ctx, w, msg, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := campaignID(w, r)
	if !ok {
		return
	}
	c, err := h.service.Get(ctx, id)
	if err != nil {
		h.fail(ctx, w, "failed to load campaign", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var filter models.Filter
	q := r.URL.Query()
	if raw := q.Get("institution"); raw != "" {
		addr, err := domain.ParseAddress(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		filter.Institution = addr
	}
	if raw := q.Get("status"); raw != "" {
		filter.Status = models.Status(raw)
		if !filter.Status.IsValid() {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "unknown status filter").With("status", raw))
			return
		}
	}
	list, err := h.service.List(ctx, filter)
	if err != nil {
		h.fail(ctx, w, "failed to list campaigns", err)
		return
	}
	if list == nil {
		list = []*models.Campaign{}
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Campaigns: list})
}

func campaignID(w http.ResponseWriter, r *http.Request) (domain.CampaignID, bool) {
	id, err := domain.ParseCampaignID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return 0, false
	}
	return id, true
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	if dErrors.KindOf(err) == dErrors.KindInternal {
		h.logger.ErrorContext(ctx, msg,
			"error", err,
			"request_id", request.GetRequestID(ctx),
		)
	} else {
		h.logger.WarnContext(ctx, msg,
			"error", err,
			"request_id", request.GetRequestID(ctx),
		)
	}
	httputil.WriteError(w, err)
}
