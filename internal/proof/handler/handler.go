package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"pulseaid/internal/proof/models"
	"pulseaid/pkg/domain"
	dErrors "pulseaid/pkg/domain-errors"
	"pulseaid/pkg/platform/httputil"
	request "pulseaid/pkg/platform/middleware/request"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the proof validator operations exposed over HTTP.
type Service interface {
	SubmitProof(ctx context.Context, id domain.CampaignID, req *models.SubmitRequest) (*models.Proof, error)
	ChallengeProof(ctx context.Context, id domain.CampaignID, req *models.ChallengeRequest) (*models.Dispute, error)
	VoteOnDispute(ctx context.Context, id domain.DisputeID, approve bool) (*models.Vote, error)
	FinalizeProof(ctx context.Context, id domain.CampaignID) (*models.FinalizeResult, error)
	ClaimVotingReward(ctx context.Context, id domain.DisputeID) (*models.RewardResult, error)
	GetProof(ctx context.Context, id domain.CampaignID) (*models.Proof, error)
	GetDispute(ctx context.Context, id domain.DisputeID) (*models.DisputeView, error)
}

// Handler handles proof and dispute endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/campaigns/{id}/proof", h.handleGetProof)
	r.Get("/disputes/{id}", h.handleGetDispute)
}

func (h *Handler) RegisterAuthenticated(r chi.Router) {
	r.Post("/campaigns/{id}/proof", h.handleSubmit)
	r.Post("/campaigns/{id}/proof/challenge", h.handleChallenge)
	r.Post("/campaigns/{id}/proof/finalize", h.handleFinalize)
	r.Post("/disputes/{id}/votes", h.handleVote)
	r.Post("/disputes/{id}/reward", h.handleClaimReward)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := campaignID(w, r)
	if !ok {
		return
	}
	var req models.SubmitRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	p, err := h.service.SubmitProof(ctx, id, &req)
	if err != nil {
		h.fail(ctx, w, "failed to submit proof", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) handleChallenge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := campaignID(w, r)
	if !ok {
		return
	}
	var req models.ChallengeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	d, err := h.service.ChallengeProof(ctx, id, &req)
	if err != nil {
		h.fail(ctx, w, "failed to challenge proof", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, d)
}

func (h *Handler) handleFinalize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := campaignID(w, r)
	if !ok {
		return
	}
	res, err := h.service.FinalizeProof(ctx, id)
	if err != nil {
		h.fail(ctx, w, "failed to finalize proof", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) handleVote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := disputeID(w, r)
	if !ok {
		return
	}
	var req models.VoteRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if req.Approve == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "approve is required"))
		return
	}
	v, err := h.service.VoteOnDispute(ctx, id, *req.Approve)
	if err != nil {
		h.fail(ctx, w, "failed to vote on dispute", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, v)
}

func (h *Handler) handleClaimReward(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := disputeID(w, r)
	if !ok {
		return
	}
	res, err := h.service.ClaimVotingReward(ctx, id)
	if err != nil {
		h.fail(ctx, w, "failed to claim voting reward", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) handleGetProof(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := campaignID(w, r)
	if !ok {
		return
	}
	p, err := h.service.GetProof(ctx, id)
	if err != nil {
		h.fail(ctx, w, "failed to load proof", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) handleGetDispute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := disputeID(w, r)
	if !ok {
		return
	}
	d, err := h.service.GetDispute(ctx, id)
	if err != nil {
		h.fail(ctx, w, "failed to load dispute", err)
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

func disputeID(w http.ResponseWriter, r *http.Request) (domain.DisputeID, bool) {
	id, err := domain.ParseDisputeID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return domain.DisputeID{}, false
	}
	return id, true
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	if dErrors.KindOf(err) == dErrors.KindInternal {
		h.logger.ErrorContext(ctx, msg, "error", err, "request_id", request.GetRequestID(ctx))
	} else {
		h.logger.WarnContext(ctx, msg, "error", err, "request_id", request.GetRequestID(ctx))
	}
	httputil.WriteError(w, err)
}
