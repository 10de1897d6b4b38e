// Package ledger serves protocol-wide aggregates read across the module stores.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"

	"pulseaid/internal/platform/tracing"
	"pulseaid/pkg/domain"
	dErrors "pulseaid/pkg/domain-errors"
	"pulseaid/pkg/platform/httputil"
	request "pulseaid/pkg/platform/middleware/request"
)

type InstitutionCounter interface {
	Count(ctx context.Context) (total, verified int, err error)
}

type CampaignCounter interface {
	Count(ctx context.Context) (int, error)
	TotalRaised(ctx context.Context) (domain.Amount, error)
}

// Stats is the protocol summary shown on the landing page.
type Stats struct {
	TotalInstitutions    int           `json:"total_institutions"`
	VerifiedInstitutions int           `json:"verified_institutions"`
	Campaigns            int           `json:"campaigns"`
	TotalRaised          domain.Amount `json:"total_raised"`
}

type Service struct {
	institutions InstitutionCounter
	campaigns    CampaignCounter
}

func New(institutions InstitutionCounter, campaigns CampaignCounter) (*Service, error) {
	if institutions == nil {
		return nil, errors.New("institution counter is required")
	}
	if campaigns == nil {
		return nil, errors.New("campaign counter is required")
	}
	return &Service{institutions: institutions, campaigns: campaigns}, nil
}

// Stats reads each counter once. The figures are not a single snapshot; each one is
// consistent on its own.
func (s *Service) Stats(ctx context.Context) (stats *Stats, err error) {
	ctx, span := tracing.Start(ctx, "ledger.Stats")
	defer func() { tracing.End(span, err) }()

	total, verified, err := s.institutions.Count(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count institutions")
	}
	campaigns, err := s.campaigns.Count(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count campaigns")
	}
	raised, err := s.campaigns.TotalRaised(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sum raised funds")
	}
	span.SetAttributes(attribute.Int("campaigns", campaigns))
	return &Stats{
		TotalInstitutions:    total,
		VerifiedInstitutions: verified,
		Campaigns:            campaigns,
		TotalRaised:          raised,
	}, nil
}

// Handler serves GET /stats.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/stats", h.handleStats)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats, err := h.service.Stats(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load stats",
			"error", err,
			"request_id", request.GetRequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}
