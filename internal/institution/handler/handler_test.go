package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"pulseaid/internal/institution/handler/mocks"
	"pulseaid/internal/institution/models"
	"pulseaid/pkg/domain"
	dErrors "pulseaid/pkg/domain-errors"
	"pulseaid/pkg/requestcontext"
	"pulseaid/pkg/testutil"
)

type InstitutionHandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  http.Handler
	addr    common.Address
}

func TestInstitutionHandlerSuite(t *testing.T) {
	suite.Run(t, new(InstitutionHandlerSuite))
}

func (s *InstitutionHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.T().Cleanup(ctrl.Finish)
	s.service = mocks.NewMockService(ctrl)
	s.addr = common.HexToAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")

	h := New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	h.Register(r)
	h.RegisterAuthenticated(r)
	h.RegisterGovernance(r)
	s.router = r
}

func (s *InstitutionHandlerSuite) TestRegister() {
	s.Run("created", func() {
		s.service.EXPECT().Register(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, req *models.RegisterRequest) (*models.Institution, error) {
				s.Equal("Red Relief", req.Name)
				s.True(req.Stake.Equal(domain.NewAmount(50)))
				s.Equal(s.addr, requestcontext.Caller(ctx))
				return &models.Institution{Address: s.addr, State: models.StatePendingVerification}, nil
			})

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/institutions", map[string]any{
			"name":  "Red Relief",
			"stake": "50",
			"claim": map[string]any{"subject": s.addr.Hex(), "signature": "0x01"},
		})
		rr := testutil.DoRequest(s.router, testutil.WithCaller(req, s.addr))

		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		testutil.AssertJSONContains(s.T(), rr, "state", string(models.StatePendingVerification))
	})

	s.Run("insufficient stake maps to 422", func() {
		s.service.EXPECT().Register(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeInsufficientStake, "stake is below the registration minimum"))

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/institutions", map[string]any{"name": "x", "stake": "1"})
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnprocessableEntity, string(dErrors.CodeInsufficientStake))
	})

	s.Run("unknown fields are rejected", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/institutions", map[string]any{"name": "x", "admin": true})
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})
}

func (s *InstitutionHandlerSuite) TestFinalize() {
	s.Run("state error maps to 409", func() {
		s.service.EXPECT().FinalizeVerification(gomock.Any(), s.addr).
			Return(nil, dErrors.New(dErrors.CodeNotPending, "verification delay has not elapsed"))

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodPost, "/institutions/"+s.addr.Hex()+"/finalize"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, string(dErrors.CodeNotPending))
	})

	s.Run("invalid address is a bad request", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodPost, "/institutions/not-an-address/finalize"))
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})
}

func (s *InstitutionHandlerSuite) TestWithdraw() {
	s.service.EXPECT().WithdrawStake(gomock.Any()).Return(domain.NewAmount(50), nil)

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodPost, "/institutions/me/withdraw"))
	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "amount", "50")
}

func (s *InstitutionHandlerSuite) TestSlash() {
	s.service.EXPECT().Slash(gomock.Any(), s.addr, "fraud").
		Return(&models.Institution{Address: s.addr, State: models.StateSlashed}, nil)

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/admin/institutions/"+s.addr.Hex()+"/slash", models.SlashRequest{Reason: "fraud"})
	rr := testutil.DoRequest(s.router, testutil.WithGovernance(req))

	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "state", string(models.StateSlashed))
}

func (s *InstitutionHandlerSuite) TestGet() {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	s.service.EXPECT().Get(gomock.Any(), s.addr).Return(&models.Details{
		Institution:    &models.Institution{Address: s.addr, State: models.StateVerified, RegisteredAt: now},
		CampaignsCount: 3,
		TotalRaised:    domain.NewAmount(900),
	}, nil)

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/institutions/"+s.addr.Hex()))
	testutil.AssertStatusOK(s.T(), rr)
	body := testutil.UnmarshalResponse[map[string]any](s.T(), rr)
	s.Equal(float64(3), (*body)["campaigns_count"])
	s.Equal("900", (*body)["total_raised"])
	s.Equal(string(models.StateVerified), (*body)["state"])
}

func (s *InstitutionHandlerSuite) TestIsVerified() {
	s.service.EXPECT().IsVerified(gomock.Any(), s.addr).Return(true, nil)

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/institutions/"+s.addr.Hex()+"/verified"))
	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "verified", true)
}

func (s *InstitutionHandlerSuite) TestList() {
	s.Run("filters by state", func() {
		s.service.EXPECT().List(gomock.Any(), models.StateVerified).Return(nil, nil)

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/institutions?state=verified"))
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "institutions", []any{})
	})

	s.Run("unknown state is rejected", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/institutions?state=bogus"))
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})
}
