package reservations

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pousada/internal/app/commands"
	"pousada/internal/app/dto"
	"pousada/internal/app/middleware"
	"pousada/internal/app/policies"
	"pousada/internal/app/queries"
	"pousada/internal/app/validation"
	"pousada/internal/domain/accommodation"
	domainauth "pousada/internal/domain/auth"
	"pousada/internal/domain/reservation"
)

func TestCreate_SameDayRejectedWithoutNetwork(t *testing.T) {
	h := newHarness(t)
	_, err := commands.Dispatch[CreateReservationCommand, *dto.CreatedReservation](context.Background(), h.cmds, CreateReservationCommand{
		Session: h.session,
		Draft: validation.Draft{
			GuestID:       "g-1",
			CheckIn:       "2025-03-10",
			CheckOut:      "2025-03-10",
			Accommodation: "room:12",
		},
	})
	fe, ok := validation.AsFieldErrors(err)
	require.True(t, ok)
	assert.Equal(t, "must be after check-in", fe.Fields["check_out"])
	h.port.AssertNotCalled(t, "CreateReservation", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreate_SendsNormalizedDraftOnce(t *testing.T) {
	h := newHarness(t)
	h.port.On("CreateReservation", mock.Anything, h.session, mock.MatchedBy(func(req policies.CreateReservationRequest) bool {
		return req.GuestID == "g-1" &&
			req.Stay.Nights() == 3 &&
			req.Accommodation == accommodation.Ref{Kind: accommodation.KindBed, ID: "4"} &&
			req.Payment == nil
	})).Return(policies.CreateReservationResult{ID: "r-9", Status: reservation.StatusConfirmed}, nil).Once()

	cmd := CreateReservationCommand{
		Session: h.session,
		Draft: validation.Draft{
			GuestID:       " g-1 ",
			CheckIn:       "2025-03-10",
			CheckOut:      "2025-03-13",
			Accommodation: "cama:4",
			PaymentMethod: "pix",
		},
		IdempotencyKeyV: "idem-1",
	}
	res, err := commands.Dispatch[CreateReservationCommand, *dto.CreatedReservation](context.Background(), h.cmds, cmd)
	require.NoError(t, err)
	assert.Equal(t, &dto.CreatedReservation{ID: "r-9", Status: "confirmed"}, res)

	again, err := commands.Dispatch[CreateReservationCommand, *dto.CreatedReservation](context.Background(), h.cmds, cmd)
	require.NoError(t, err)
	assert.Equal(t, res, again)

	h.port.AssertNumberOfCalls(t, "CreateReservation", 1)
	assert.Equal(t, []string{"reservation.created"}, h.box.names())
}

func TestCreate_FullyPaidCarriesPayment(t *testing.T) {
	h := newHarness(t)
	h.port.On("CreateReservation", mock.Anything, h.session, mock.MatchedBy(func(req policies.CreateReservationRequest) bool {
		return req.Payment != nil && req.Payment.Method == "card" && req.Payment.Amount.Valid &&
			req.Payment.Amount.Decimal.Equal(decimal.RequireFromString("450.00"))
	})).Return(policies.CreateReservationResult{ID: "r-1", Status: reservation.StatusPending}, nil)

	_, err := commands.Dispatch[CreateReservationCommand, *dto.CreatedReservation](context.Background(), h.cmds, CreateReservationCommand{
		Session: h.session,
		Draft: validation.Draft{
			GuestID: "g-1", CheckIn: "2025-03-10", CheckOut: "2025-03-13", Accommodation: "room:12",
			FullyPaid: true, PaymentMethod: "Card", PaymentAmount: "450,00",
		},
	})
	require.NoError(t, err)
	h.port.AssertExpectations(t)
}

func TestCheckIn_ServerWinsAndEventsFlushed(t *testing.T) {
	h := newHarness(t)
	h.port.On("GetReservation", mock.Anything, h.session, reservation.ID("r-1")).
		Return(snapshot("r-1", reservation.StatusConfirmed), nil).Once()
	h.port.On("CheckIn", mock.Anything, h.session, reservation.ID("r-1")).
		Return(snapshot("r-1", reservation.StatusCheckedIn), nil).Once()

	view, err := commands.Dispatch[TransitionCommand, *dto.ReservationView](context.Background(), h.cmds, TransitionCommand{
		Target: h.target("r-1"),
		Action: reservation.ActionCheckIn,
	})
	require.NoError(t, err)
	assert.Equal(t, "checked_in", view.Status)
	assert.Equal(t, []string{"check_out", "cancel"}, view.Transitions)
	assert.False(t, view.Busy)
	assert.Equal(t, []string{"reservation.status_changed"}, h.box.names())

	cached, err := queries.Ask[GetReservationQuery, *dto.ReservationView](context.Background(), h.queries, GetReservationQuery{
		Session: h.session, ReservationID: "r-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "checked_in", cached.Status)
	h.port.AssertNumberOfCalls(t, "GetReservation", 1)
}

func TestTransition_NotOfferedIsRefusedLocally(t *testing.T) {
	h := newHarness(t)
	h.port.On("GetReservation", mock.Anything, h.session, reservation.ID("r-1")).
		Return(snapshot("r-1", reservation.StatusCanceled), nil).Once()

	_, err := commands.Dispatch[TransitionCommand, *dto.ReservationView](context.Background(), h.cmds, TransitionCommand{
		Target: h.target("r-1"),
		Action: reservation.ActionCheckIn,
	})
	assert.ErrorIs(t, err, reservation.ErrActionNotAllowed)
	assert.ErrorIs(t, err, reservation.ErrReservationLocked)
	h.port.AssertNotCalled(t, "CheckIn", mock.Anything, mock.Anything, mock.Anything)
}

func TestTransition_RejectionResyncsStatus(t *testing.T) {
	h := newHarness(t)
	h.port.On("GetReservation", mock.Anything, h.session, reservation.ID("r-1")).
		Return(snapshot("r-1", reservation.StatusConfirmed), nil).Once()
	h.port.On("CheckIn", mock.Anything, h.session, reservation.ID("r-1")).
		Return(nil, &policies.RejectionError{StatusCode: 409, Code: "reservation_canceled", Message: "reserva cancelada"}).Once()
	h.port.On("GetReservation", mock.Anything, h.session, reservation.ID("r-1")).
		Return(snapshot("r-1", reservation.StatusCanceled), nil).Once()

	_, err := commands.Dispatch[TransitionCommand, *dto.ReservationView](context.Background(), h.cmds, TransitionCommand{
		Target: h.target("r-1"),
		Action: reservation.ActionCheckIn,
	})
	var rej *policies.RejectionError
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, "reservation_canceled", rej.Code)

	view, err := queries.Ask[GetReservationQuery, *dto.ReservationView](context.Background(), h.queries, GetReservationQuery{
		Session: h.session, ReservationID: "r-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "canceled", view.Status)
	assert.Empty(t, view.Actions)
	assert.True(t, view.Folio.Frozen)
	h.port.AssertExpectations(t)
}

func TestTransition_TransientKeepsLastKnownGood(t *testing.T) {
	h := newHarness(t)
	h.port.On("GetReservation", mock.Anything, h.session, reservation.ID("r-1")).
		Return(snapshot("r-1", reservation.StatusConfirmed), nil).Once()
	h.port.On("CheckIn", mock.Anything, h.session, reservation.ID("r-1")).
		Return(nil, policies.ErrTransient).Once()

	_, err := commands.Dispatch[TransitionCommand, *dto.ReservationView](context.Background(), h.cmds, TransitionCommand{
		Target: h.target("r-1"),
		Action: reservation.ActionCheckIn,
	})
	assert.ErrorIs(t, err, policies.ErrTransient)

	view, err := queries.Ask[GetReservationQuery, *dto.ReservationView](context.Background(), h.queries, GetReservationQuery{
		Session: h.session, ReservationID: "r-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "confirmed", view.Status)
	h.port.AssertNumberOfCalls(t, "GetReservation", 1)
	h.port.AssertNumberOfCalls(t, "CheckIn", 1)
}

func TestTransition_RegressionIsApplied(t *testing.T) {
	h := newHarness(t)
	h.port.On("GetReservation", mock.Anything, h.session, reservation.ID("r-1")).
		Return(snapshot("r-1", reservation.StatusConfirmed), nil).Once()
	h.port.On("Cancel", mock.Anything, h.session, reservation.ID("r-1"), "no show").
		Return(snapshot("r-1", reservation.StatusPending), nil).Once()

	view, err := commands.Dispatch[TransitionCommand, *dto.ReservationView](context.Background(), h.cmds, TransitionCommand{
		Target: h.target("r-1"),
		Action: reservation.ActionCancel,
		Reason: " no show ",
	})
	require.NoError(t, err)
	assert.Equal(t, "pending", view.Status)
}

func TestTransition_RejectsNonStatusAction(t *testing.T) {
	h := newHarness(t)
	_, err := h.cmds.Dispatch(context.Background(), TransitionCommand{
		Target: h.target("r-1"),
		Action: reservation.ActionAddCharge,
	})
	fe, ok := validation.AsFieldErrors(err)
	require.True(t, ok)
	assert.True(t, fe.Has("action"))
	h.port.AssertNotCalled(t, "GetReservation", mock.Anything, mock.Anything, mock.Anything)
}

func TestTransition_InFlightRefusesSecondMutation(t *testing.T) {
	h := newHarness(t)
	entered := make(chan struct{})
	release := make(chan struct{})
	h.port.On("GetReservation", mock.Anything, h.session, reservation.ID("r-1")).
		Return(snapshot("r-1", reservation.StatusCheckedIn), nil).Once()
	h.port.On("CheckOut", mock.Anything, h.session, reservation.ID("r-1")).
		Run(func(mock.Arguments) {
			close(entered)
			<-release
		}).
		Return(snapshot("r-1", reservation.StatusCheckedOut), nil).Once()

	done := make(chan error, 1)
	go func() {
		_, err := commands.Dispatch[TransitionCommand, *dto.ReservationView](context.Background(), h.cmds, TransitionCommand{
			Target: h.target("r-1"),
			Action: reservation.ActionCheckOut,
		})
		done <- err
	}()
	<-entered

	busy, err := queries.Ask[GetReservationQuery, *dto.ReservationView](context.Background(), h.queries, GetReservationQuery{
		Session: h.session, ReservationID: "r-1",
	})
	require.NoError(t, err)
	assert.True(t, busy.Busy)
	assert.Equal(t, "reservations.check_out", busy.BusyAction)
	assert.Empty(t, busy.Actions)

	_, err = commands.Dispatch[TransitionCommand, *dto.ReservationView](context.Background(), h.cmds, TransitionCommand{
		Target: h.target("r-1"),
		Action: reservation.ActionCancel,
	})
	assert.ErrorIs(t, err, middleware.ErrActionInFlight)

	close(release)
	require.NoError(t, <-done)
	h.port.AssertNotCalled(t, "Cancel", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestExtendStay_CheckoutBeforeCheckinRejectedLocally(t *testing.T) {
	h := newHarness(t)
	h.port.On("GetReservation", mock.Anything, h.session, reservation.ID("r-1")).
		Return(snapshot("r-1", reservation.StatusCheckedIn), nil).Once()

	_, err := commands.Dispatch[ExtendStayCommand, *dto.ReservationView](context.Background(), h.cmds, ExtendStayCommand{
		Target:   h.target("r-1"),
		CheckOut: "2025-03-10",
	})
	fe, ok := validation.AsFieldErrors(err)
	require.True(t, ok)
	assert.True(t, fe.Has("check_out"))
	h.port.AssertNotCalled(t, "ExtendStay", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestExtendStay_UpdatesNights(t *testing.T) {
	h := newHarness(t)
	extended := snapshot("r-1", reservation.StatusCheckedIn)
	extended.Stay, _ = extended.Stay.Extend(extended.Stay.CheckOut.AddDate(0, 0, 2))
	h.port.On("GetReservation", mock.Anything, h.session, reservation.ID("r-1")).
		Return(snapshot("r-1", reservation.StatusCheckedIn), nil).Once()
	h.port.On("ExtendStay", mock.Anything, h.session, reservation.ID("r-1"), "2025-03-15").
		Return(extended, nil).Once()

	view, err := commands.Dispatch[ExtendStayCommand, *dto.ReservationView](context.Background(), h.cmds, ExtendStayCommand{
		Target:   h.target("r-1"),
		CheckOut: "2025-03-15",
	})
	require.NoError(t, err)
	assert.Equal(t, 5, view.Nights)
	assert.Equal(t, []string{"reservation.stay_changed"}, h.box.names())
}

func TestChangeAccommodation_BlockedOnTerminal(t *testing.T) {
	h := newHarness(t)
	h.port.On("GetReservation", mock.Anything, h.session, reservation.ID("r-1")).
		Return(snapshot("r-1", reservation.StatusCheckedOut), nil).Once()

	_, err := commands.Dispatch[ChangeAccommodationCommand, *dto.ReservationView](context.Background(), h.cmds, ChangeAccommodationCommand{
		Target:        h.target("r-1"),
		Accommodation: "room:14",
	})
	assert.ErrorIs(t, err, reservation.ErrReservationLocked)
}

func TestAddCharge_RefreshesBalance(t *testing.T) {
	h := newHarness(t)
	h.port.On("GetReservation", mock.Anything, h.session, reservation.ID("r-1")).
		Return(withFolio(snapshot("r-1", reservation.StatusCheckedIn), []int64{100}, []int64{80}), nil).Once()
	h.port.On("AddCharge", mock.Anything, h.session, reservation.ID("r-1"), mock.MatchedBy(func(req policies.ChargeRequest) bool {
		return req.Quantity == 1 && req.Amount.Equal(decimal.NewFromInt(50)) && req.Type == "product"
	})).Return(withFolio(snapshot("r-1", reservation.StatusCheckedIn), []int64{100, 50}, []int64{80}), nil).Once()

	view, err := commands.Dispatch[AddChargeCommand, *dto.ReservationView](context.Background(), h.cmds, AddChargeCommand{
		Target: h.target("r-1"),
		Charge: validation.Charge{Type: "produto", Description: "Jantar", Amount: "50"},
	})
	require.NoError(t, err)
	assert.True(t, view.Folio.Balance.Equal(decimal.NewFromInt(70)))
	assert.Equal(t, "R$ 70,00", view.Folio.BalanceDisplay)
	assert.Len(t, view.Folio.Lines, 3)
	assert.Equal(t, []string{"reservation.folio_changed"}, h.box.names())
}

func TestAddPayment_OnlyWhileCheckedIn(t *testing.T) {
	h := newHarness(t)
	h.port.On("GetReservation", mock.Anything, h.session, reservation.ID("r-1")).
		Return(snapshot("r-1", reservation.StatusConfirmed), nil).Once()

	_, err := commands.Dispatch[AddPaymentCommand, *dto.ReservationView](context.Background(), h.cmds, AddPaymentCommand{
		Target:  h.target("r-1"),
		Payment: validation.Payment{Method: "pix", Amount: "10"},
	})
	assert.ErrorIs(t, err, reservation.ErrActionNotAllowed)
}

func TestAddPayment_InvalidInput(t *testing.T) {
	h := newHarness(t)
	_, err := commands.Dispatch[AddPaymentCommand, *dto.ReservationView](context.Background(), h.cmds, AddPaymentCommand{
		Target:  h.target("r-1"),
		Payment: validation.Payment{Method: "cheque", Amount: "0"},
	})
	fe, ok := validation.AsFieldErrors(err)
	require.True(t, ok)
	assert.True(t, fe.Has("method"))
	assert.True(t, fe.Has("amount"))
	h.port.AssertNotCalled(t, "GetReservation", mock.Anything, mock.Anything, mock.Anything)
}

func TestExportStatement(t *testing.T) {
	h := newHarness(t)
	h.port.On("GetReservation", mock.Anything, h.session, reservation.ID("r-1")).
		Return(withFolio(snapshot("r-1", reservation.StatusCheckedOut), []int64{100, 50}, []int64{150}), nil).Once()

	res, err := commands.Dispatch[ExportStatementCommand, *dto.StatementResult](context.Background(), h.cmds, ExportStatementCommand{
		Session: h.session, ReservationID: "r-1",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Lines)
	assert.Equal(t, "statements/p-1/r-1/20250310T150000Z.csv", res.Key)
	assert.Contains(t, res.URL, res.Key)
	require.Len(t, h.statements.data, 1)
	assert.Contains(t, string(h.statements.data[0]), "R$ 0,00")
}

func TestSessionRequired(t *testing.T) {
	h := newHarness(t)
	_, err := commands.Dispatch[TransitionCommand, *dto.ReservationView](context.Background(), h.cmds, TransitionCommand{
		Target: Target{ReservationID: "r-1"},
		Action: reservation.ActionCheckIn,
	})
	assert.ErrorIs(t, err, middleware.ErrSessionRequired)
}

func TestPreviewQuote(t *testing.T) {
	h := newHarness(t)
	h.port.On("ListAccommodationOptions", mock.Anything, h.session, "2025-01-01", "2025-01-04").
		Return([]accommodation.Option{
			{ID: "12", Kind: accommodation.KindRoom, Label: "Quarto 12", Rate: decimal.RequireFromString("180.50")},
			{ID: "12", Kind: accommodation.KindBed, Label: "Cama 12", Rate: decimal.NewFromInt(60)},
		}, nil).Once()

	ask := func(token string) *dto.QuoteView {
		q, err := queries.Ask[PreviewQuoteQuery, *dto.QuoteView](context.Background(), h.queries, PreviewQuoteQuery{
			Session: h.session, CheckIn: "2025-01-01", CheckOut: "2025-01-04", Accommodation: token,
		})
		require.NoError(t, err)
		return q
	}

	q := ask("room:12")
	assert.Equal(t, 3, q.Nights)
	assert.True(t, q.Found)
	assert.Equal(t, "Quarto 12", q.Label)
	require.True(t, q.Total.Valid)
	assert.True(t, q.Total.Decimal.Equal(decimal.RequireFromString("541.50")))
	assert.Equal(t, "R$ 541,50", q.TotalDisplay)
	assert.Equal(t, "2025-01-02", q.MinCheckOut)

	missing := ask("room:99")
	assert.False(t, missing.Found)
	assert.False(t, missing.Total.Valid)
	assert.Empty(t, missing.TotalDisplay)

	h.port.AssertNumberOfCalls(t, "ListAccommodationOptions", 1)
}

func TestPreviewQuote_NoSelectionNoFetch(t *testing.T) {
	h := newHarness(t)
	q, err := queries.Ask[PreviewQuoteQuery, *dto.QuoteView](context.Background(), h.queries, PreviewQuoteQuery{
		Session: h.session, CheckIn: "2025-01-01", CheckOut: "2025-01-04",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, q.Nights)
	assert.False(t, q.Total.Valid)
	h.port.AssertNotCalled(t, "ListAccommodationOptions", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestListOptions_InvalidPeriod(t *testing.T) {
	h := newHarness(t)
	_, err := queries.Ask[ListOptionsQuery, []dto.OptionView](context.Background(), h.queries, ListOptionsQuery{
		Session: h.session, CheckIn: "01/01/2025",
	})
	fe, ok := validation.AsFieldErrors(err)
	require.True(t, ok)
	assert.True(t, fe.Has("check_in"))
}

func TestGetReservation_NotFound(t *testing.T) {
	h := newHarness(t)
	h.port.On("GetReservation", mock.Anything, h.session, reservation.ID("nope")).
		Return(nil, policies.ErrNotFound)
	_, err := queries.Ask[GetReservationQuery, *dto.ReservationView](context.Background(), h.queries, GetReservationQuery{
		Session: h.session, ReservationID: "nope",
	})
	assert.True(t, errors.Is(err, policies.ErrNotFound))
}

func TestCreate_ConcurrentSameKeyReachesPMSOnce(t *testing.T) {
	h := newHarness(t)
	entered := make(chan struct{})
	release := make(chan struct{})
	h.port.On("CreateReservation", mock.Anything, h.session, mock.Anything).
		Run(func(mock.Arguments) {
			close(entered)
			<-release
		}).
		Return(policies.CreateReservationResult{ID: "r-9", Status: reservation.StatusConfirmed}, nil).Once()

	cmd := CreateReservationCommand{
		Session: h.session,
		Draft: validation.Draft{
			GuestID:       "g-1",
			CheckIn:       "2025-03-10",
			CheckOut:      "2025-03-13",
			Accommodation: "room:12",
		},
		IdempotencyKeyV: "k1",
	}
	results := make(chan *dto.CreatedReservation, 2)
	dispatch := func() {
		res, err := commands.Dispatch[CreateReservationCommand, *dto.CreatedReservation](context.Background(), h.cmds, cmd)
		assert.NoError(t, err)
		results <- res
	}
	go dispatch()
	<-entered
	go dispatch()
	time.Sleep(20 * time.Millisecond)
	close(release)

	first, second := <-results, <-results
	assert.Equal(t, &dto.CreatedReservation{ID: "r-9", Status: "confirmed"}, first)
	assert.Equal(t, first, second)
	h.port.AssertNumberOfCalls(t, "CreateReservation", 1)
}

func TestGetReservation_CachedCopyNotServedToAnotherBearer(t *testing.T) {
	h := newHarness(t)
	other := h.session
	other.Bearer = "garbage"
	h.port.On("GetReservation", mock.Anything, h.session, reservation.ID("r-1")).
		Return(snapshot("r-1", reservation.StatusConfirmed), nil).Once()
	h.port.On("GetReservation", mock.Anything, other, reservation.ID("r-1")).
		Return(nil, policies.ErrUnauthorized).Once()

	view, err := queries.Ask[GetReservationQuery, *dto.ReservationView](context.Background(), h.queries, GetReservationQuery{
		Session: h.session, ReservationID: "r-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana Souza", view.GuestName)

	_, err = queries.Ask[GetReservationQuery, *dto.ReservationView](context.Background(), h.queries, GetReservationQuery{
		Session: other, ReservationID: "r-1",
	})
	assert.ErrorIs(t, err, policies.ErrUnauthorized)
	h.port.AssertNumberOfCalls(t, "GetReservation", 2)
}

func TestListOptions_CachedPerBearer(t *testing.T) {
	h := newHarness(t)
	other := h.session
	other.Bearer = "garbage"
	h.port.On("ListAccommodationOptions", mock.Anything, h.session, "2025-01-01", "2025-01-04").
		Return([]accommodation.Option{{ID: "12", Kind: accommodation.KindRoom, Label: "Quarto 12", Rate: decimal.NewFromInt(180)}}, nil).Once()
	h.port.On("ListAccommodationOptions", mock.Anything, other, "2025-01-01", "2025-01-04").
		Return(nil, policies.ErrUnauthorized).Once()

	_, err := queries.Ask[ListOptionsQuery, []dto.OptionView](context.Background(), h.queries, ListOptionsQuery{
		Session: h.session, CheckIn: "2025-01-01", CheckOut: "2025-01-04",
	})
	require.NoError(t, err)
	_, err = queries.Ask[ListOptionsQuery, []dto.OptionView](context.Background(), h.queries, ListOptionsQuery{
		Session: other, CheckIn: "2025-01-01", CheckOut: "2025-01-04",
	})
	assert.ErrorIs(t, err, policies.ErrUnauthorized)
	h.port.AssertExpectations(t)
}

func TestInvalidate_DropsCopiesOfEveryBearer(t *testing.T) {
	h := newHarness(t)
	other := h.session
	other.Bearer = "second-operator"
	for _, sess := range []domainauth.Session{h.session, other} {
		h.port.On("GetReservation", mock.Anything, sess, reservation.ID("r-1")).
			Return(snapshot("r-1", reservation.StatusConfirmed), nil).Twice()
		_, err := h.workflow.Load(context.Background(), sess, "r-1", false)
		require.NoError(t, err)
	}

	h.workflow.Invalidate("p-1", "r-1")
	for _, sess := range []domainauth.Session{h.session, other} {
		_, err := h.workflow.Load(context.Background(), sess, "r-1", false)
		require.NoError(t, err)
	}
	h.port.AssertNumberOfCalls(t, "GetReservation", 4)
}

func TestTransition_StaleCachedStatusIsRefreshedBeforeRefusing(t *testing.T) {
	h := newHarness(t)
	h.port.On("GetReservation", mock.Anything, h.session, reservation.ID("r-1")).
		Return(snapshot("r-1", reservation.StatusPending), nil).Once()
	h.port.On("GetReservation", mock.Anything, h.session, reservation.ID("r-1")).
		Return(snapshot("r-1", reservation.StatusConfirmed), nil).Once()
	h.port.On("CheckIn", mock.Anything, h.session, reservation.ID("r-1")).
		Return(snapshot("r-1", reservation.StatusCheckedIn), nil).Once()

	cached, err := queries.Ask[GetReservationQuery, *dto.ReservationView](context.Background(), h.queries, GetReservationQuery{
		Session: h.session, ReservationID: "r-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "pending", cached.Status)

	view, err := commands.Dispatch[TransitionCommand, *dto.ReservationView](context.Background(), h.cmds, TransitionCommand{
		Target: h.target("r-1"),
		Action: reservation.ActionCheckIn,
	})
	require.NoError(t, err)
	assert.Equal(t, "checked_in", view.Status)
	h.port.AssertExpectations(t)
}

func TestTransition_RefusalConfirmedAgainstFreshCopy(t *testing.T) {
	h := newHarness(t)
	h.port.On("GetReservation", mock.Anything, h.session, reservation.ID("r-1")).
		Return(snapshot("r-1", reservation.StatusPending), nil).Twice()

	_, err := queries.Ask[GetReservationQuery, *dto.ReservationView](context.Background(), h.queries, GetReservationQuery{
		Session: h.session, ReservationID: "r-1",
	})
	require.NoError(t, err)

	_, err = commands.Dispatch[TransitionCommand, *dto.ReservationView](context.Background(), h.cmds, TransitionCommand{
		Target: h.target("r-1"),
		Action: reservation.ActionCheckIn,
	})
	assert.ErrorIs(t, err, reservation.ErrActionNotAllowed)
	h.port.AssertNumberOfCalls(t, "GetReservation", 2)
	h.port.AssertNotCalled(t, "CheckIn", mock.Anything, mock.Anything, mock.Anything)
}

func TestTransition_UnusableResponseReturnsReloadedView(t *testing.T) {
	h := newHarness(t)
	h.port.On("GetReservation", mock.Anything, h.session, reservation.ID("r-1")).
		Return(snapshot("r-1", reservation.StatusConfirmed), nil).Once()
	h.port.On("CheckIn", mock.Anything, h.session, reservation.ID("r-1")).
		Return(snapshot("r-2", reservation.StatusCheckedIn), nil).Once()
	h.port.On("GetReservation", mock.Anything, h.session, reservation.ID("r-1")).
		Return(snapshot("r-1", reservation.StatusCheckedIn), nil).Once()

	view, err := commands.Dispatch[TransitionCommand, *dto.ReservationView](context.Background(), h.cmds, TransitionCommand{
		Target: h.target("r-1"),
		Action: reservation.ActionCheckIn,
	})
	require.NoError(t, err)
	assert.Equal(t, "r-1", view.ID)
	assert.Equal(t, "checked_in", view.Status)
	h.port.AssertExpectations(t)
}
