package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"pulseaid/internal/escrow/models"
	"pulseaid/pkg/domain"
	dErrors "pulseaid/pkg/domain-errors"
	"pulseaid/pkg/platform/httputil"
	request "pulseaid/pkg/platform/middleware/request"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the escrow operations exposed over HTTP.
type Service interface {
	ClaimRefund(ctx context.Context, id domain.CampaignID) (*models.RefundResult, error)
	Balance(ctx context.Context, id domain.CampaignID) (*models.Balance, error)
	Donation(ctx context.Context, id domain.CampaignID, donor common.Address) (*models.Donation, error)
}

// Handler handles escrow endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/campaigns/{id}/escrow", h.handleBalance)
	r.Get("/campaigns/{id}/donations/{donor}", h.handleDonation)
}

func (h *Handler) RegisterAuthenticated(r chi.Router) {
	r.Post("/campaigns/{id}/refund", h.handleRefund)
}

func (h *Handler) handleRefund(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := campaignID(w, r)
	if !ok {
		return
	}
	res, err := h.service.ClaimRefund(ctx, id)
	if err != nil {
		h.fail(ctx, w, "failed to claim refund", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := campaignID(w, r)
	if !ok {
		return
	}
	b, err := h.service.Balance(ctx, id)
	if err != nil {
		h.fail(ctx, w, "failed to load escrow balance", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) handleDonation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := campaignID(w, r)
	if !ok {
		return
	}
	donor, err := domain.ParseAddress(chi.URLParam(r, "donor"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	d, err := h.service.Donation(ctx, id, donor)
	if err != nil {
		h.fail(ctx, w, "failed to load donation", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, d)
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
	level := slog.LevelWarn
	if dErrors.KindOf(err) == dErrors.KindInternal {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, msg,
		"error", err,
		"request_id", request.GetRequestID(ctx),
	)
	httputil.WriteError(w, err)
}
