package reputation

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"pulseaid/pkg/domain"
	dErrors "pulseaid/pkg/domain-errors"
	"pulseaid/pkg/platform/httputil"
	request "pulseaid/pkg/platform/middleware/request"
)

// Registry is an oracle whose weights governance can overwrite.
type Registry interface {
	WeightOf(ctx context.Context, addr common.Address) (domain.Weight, error)
	SetWeight(ctx context.Context, addr common.Address, w domain.Weight) error
}

type weightResponse struct {
	Address common.Address `json:"address"`
	Weight  domain.Weight  `json:"weight"`
}

type setWeightRequest struct {
	Weight *domain.Weight `json:"weight"`
}

// Handler exposes voting weights.
type Handler struct {
	registry Registry
	logger   *slog.Logger
}

func NewHandler(registry Registry, logger *slog.Logger) *Handler {
	return &Handler{registry: registry, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/reputation/{address}", h.handleGet)
}

func (h *Handler) RegisterGovernance(r chi.Router) {
	r.Put("/admin/reputation/{address}", h.handleSet)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	addr, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	weight, err := h.registry.WeightOf(ctx, addr)
	if err != nil {
		h.fail(ctx, w, "failed to read weight", dErrors.Wrap(err, dErrors.CodeInternal, "reputation oracle unavailable"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, weightResponse{Address: addr, Weight: weight})
}

func (h *Handler) handleSet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	addr, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req setWeightRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if req.Weight == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "weight is required"))
		return
	}
	if err := h.registry.SetWeight(ctx, addr, *req.Weight); err != nil {
		h.fail(ctx, w, "failed to set weight", dErrors.Wrap(err, dErrors.CodeInternal, "failed to set weight"))
		return
	}
	h.logger.InfoContext(ctx, "reputation weight set",
		"event", "reputation_weight_set",
		"log_type", "audit",
		"address", addr.Hex(),
		"weight", *req.Weight,
		"request_id", request.GetRequestID(ctx),
	)
	httputil.WriteJSON(w, http.StatusOK, weightResponse{Address: addr, Weight: *req.Weight})
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	h.logger.ErrorContext(ctx, msg,
		"error", err,
		"request_id", request.GetRequestID(ctx),
	)
	httputil.WriteError(w, err)
}
