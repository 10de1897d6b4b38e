package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"pulseaid/internal/institution/models"
	"pulseaid/pkg/domain"
	dErrors "pulseaid/pkg/domain-errors"
	"pulseaid/pkg/platform/httputil"
	request "pulseaid/pkg/platform/middleware/request"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the institution operations the HTTP layer needs.
type Service interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.Institution, error)
	FinalizeVerification(ctx context.Context, addr common.Address) (*models.Institution, error)
	WithdrawStake(ctx context.Context) (domain.Amount, error)
	Slash(ctx context.Context, addr common.Address, reason string) (*models.Institution, error)
	Get(ctx context.Context, addr common.Address) (*models.Details, error)
	IsVerified(ctx context.Context, addr common.Address) (bool, error)
	List(ctx context.Context, state models.State) ([]*models.Institution, error)
}

// Handler handles institution registry endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

type withdrawResponse struct {
	Amount domain.Amount `json:"amount"`
}

type verifiedResponse struct {
	Address  common.Address `json:"address"`
	Verified bool           `json:"verified"`
}

type listResponse struct {
	Institutions []*models.Institution `json:"institutions"`
}

// Register mounts the public read routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/institutions", h.handleList)
	r.Get("/institutions/{address}", h.handleGet)
	r.Get("/institutions/{address}/verified", h.handleIsVerified)
}

// RegisterAuthenticated mounts routes that need a wallet session.
func (h *Handler) RegisterAuthenticated(r chi.Router) {
	r.Post("/institutions", h.handleRegister)
	r.Post("/institutions/{address}/finalize", h.handleFinalize)
	r.Post("/institutions/me/withdraw", h.handleWithdraw)
}

// RegisterGovernance mounts routes behind the admin token.
func (h *Handler) RegisterGovernance(r chi.Router) {
	r.Post("/admin/institutions/{address}/slash", h.handleSlash)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.RegisterRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	inst, err := h.service.Register(ctx, &req)
	if err != nil {
		h.fail(ctx, w, "failed to register institution", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, inst)
}

func (h *Handler) handleFinalize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	addr, ok := h.address(w, r)
	if !ok {
		return
	}
	inst, err := h.service.FinalizeVerification(ctx, addr)
	if err != nil {
		h.fail(ctx, w, "failed to finalize verification", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, inst)
}

func (h *Handler) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	paid, err := h.service.WithdrawStake(ctx)
	if err != nil {
		h.fail(ctx, w, "failed to withdraw stake", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, withdrawResponse{Amount: paid})
}

func (h *Handler) handleSlash(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	addr, ok := h.address(w, r)
	if !ok {
		return
	}
	var req models.SlashRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	inst, err := h.service.Slash(ctx, addr, req.Reason)
	if err != nil {
		h.fail(ctx, w, "failed to slash institution", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, inst)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	addr, ok := h.address(w, r)
	if !ok {
		return
	}
	details, err := h.service.Get(ctx, addr)
	if err != nil {
		h.fail(ctx, w, "failed to load institution", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, details)
}

func (h *Handler) handleIsVerified(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	addr, ok := h.address(w, r)
	if !ok {
		return
	}
	verified, err := h.service.IsVerified(ctx, addr)
	if err != nil {
		h.fail(ctx, w, "failed to check verification", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, verifiedResponse{Address: addr, Verified: verified})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	state := models.State(r.URL.Query().Get("state"))
	switch state {
	case "", models.StateUnverified, models.StatePendingVerification, models.StateVerified, models.StateSlashed:
	default:
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "unknown state filter").With("state", state))
		return
	}
	list, err := h.service.List(ctx, state)
	if err != nil {
		h.fail(ctx, w, "failed to list institutions", err)
		return
	}
	if list == nil {
		list = []*models.Institution{}
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Institutions: list})
}

func (h *Handler) address(w http.ResponseWriter, r *http.Request) (common.Address, bool) {
	addr, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return common.Address{}, false
	}
	return addr, true
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
