package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"pulseaid/internal/escrow/handler/mocks"
	"pulseaid/internal/escrow/models"
	"pulseaid/pkg/domain"
	dErrors "pulseaid/pkg/domain-errors"
	"pulseaid/pkg/testutil"
)

func newTestRouter(t *testing.T) (http.Handler, *mocks.MockService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	svc := mocks.NewMockService(ctrl)

	h := New(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	h.Register(r)
	h.RegisterAuthenticated(r)
	return r, svc
}

func TestClaimRefund(t *testing.T) {
	donor := common.HexToAddress("0x00000000000000000000000000000000000000d1")

	t.Run("returns the refunded amount", func(t *testing.T) {
		router, svc := newTestRouter(t)
		svc.EXPECT().ClaimRefund(gomock.Any(), domain.CampaignID(4)).
			Return(&models.RefundResult{CampaignID: 4, Donor: donor, Amount: domain.NewAmount(11)}, nil)

		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodPost, "/campaigns/4/refund"))

		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONContains(t, rr, "amount", "11")
	})

	t.Run("second claim has nothing to refund", func(t *testing.T) {
		router, svc := newTestRouter(t)
		svc.EXPECT().ClaimRefund(gomock.Any(), domain.CampaignID(4)).
			Return(nil, dErrors.New(dErrors.CodeNothingToRefund, "nothing left to refund"))

		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodPost, "/campaigns/4/refund"))

		testutil.AssertStatusAndError(t, rr, http.StatusUnprocessableEntity, string(dErrors.CodeNothingToRefund))
	})
}

func TestBalance(t *testing.T) {
	router, svc := newTestRouter(t)
	svc.EXPECT().Balance(gomock.Any(), domain.CampaignID(2)).Return(&models.Balance{
		Account: &models.Account{CampaignID: 2, Deposited: domain.NewAmount(9)},
		Balance: domain.NewAmount(9),
	}, nil)

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/campaigns/2/escrow"))

	testutil.AssertStatusOK(t, rr)
	testutil.AssertJSONContains(t, rr, "balance", "9")
	testutil.AssertJSONContains(t, rr, "deposited", "9")
}

func TestDonation(t *testing.T) {
	t.Run("bad donor address", func(t *testing.T) {
		router, _ := newTestRouter(t)
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/campaigns/2/donations/nope"))
		require.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("unknown donor", func(t *testing.T) {
		router, svc := newTestRouter(t)
		donor := common.HexToAddress("0x00000000000000000000000000000000000000d1")
		svc.EXPECT().Donation(gomock.Any(), domain.CampaignID(2), donor).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "donation not found"))

		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/campaigns/2/donations/"+donor.Hex()))
		testutil.AssertStatus(t, rr, http.StatusNotFound)
	})
}
