package reservations

import (
	"context"

	"github.com/stretchr/testify/mock"

	"pousada/internal/app/policies"
	"pousada/internal/domain/accommodation"
	domainauth "pousada/internal/domain/auth"
	"pousada/internal/domain/reservation"
)

type portMock struct {
	mock.Mock
}

func (m *portMock) snapshot(args mock.Arguments) (reservation.Snapshot, error) {
	snap, _ := args.Get(0).(reservation.Snapshot)
	return snap, args.Error(1)
}

func (m *portMock) CreateReservation(ctx context.Context, sess domainauth.Session, req policies.CreateReservationRequest) (policies.CreateReservationResult, error) {
	args := m.Called(ctx, sess, req)
	res, _ := args.Get(0).(policies.CreateReservationResult)
	return res, args.Error(1)
}

func (m *portMock) GetReservation(ctx context.Context, sess domainauth.Session, id reservation.ID) (reservation.Snapshot, error) {
	return m.snapshot(m.Called(ctx, sess, id))
}

func (m *portMock) CheckIn(ctx context.Context, sess domainauth.Session, id reservation.ID) (reservation.Snapshot, error) {
	return m.snapshot(m.Called(ctx, sess, id))
}

func (m *portMock) CheckOut(ctx context.Context, sess domainauth.Session, id reservation.ID) (reservation.Snapshot, error) {
	return m.snapshot(m.Called(ctx, sess, id))
}

func (m *portMock) Cancel(ctx context.Context, sess domainauth.Session, id reservation.ID, reason string) (reservation.Snapshot, error) {
	return m.snapshot(m.Called(ctx, sess, id, reason))
}

func (m *portMock) ExtendStay(ctx context.Context, sess domainauth.Session, id reservation.ID, checkOut string) (reservation.Snapshot, error) {
	return m.snapshot(m.Called(ctx, sess, id, checkOut))
}

func (m *portMock) ChangeAccommodation(ctx context.Context, sess domainauth.Session, id reservation.ID, ref accommodation.Ref) (reservation.Snapshot, error) {
	return m.snapshot(m.Called(ctx, sess, id, ref))
}

func (m *portMock) AddCharge(ctx context.Context, sess domainauth.Session, id reservation.ID, req policies.ChargeRequest) (reservation.Snapshot, error) {
	return m.snapshot(m.Called(ctx, sess, id, req))
}

func (m *portMock) AddPayment(ctx context.Context, sess domainauth.Session, id reservation.ID, req policies.PaymentRequest) (reservation.Snapshot, error) {
	return m.snapshot(m.Called(ctx, sess, id, req))
}

func (m *portMock) ListAccommodationOptions(ctx context.Context, sess domainauth.Session, checkIn, checkOut string) ([]accommodation.Option, error) {
	args := m.Called(ctx, sess, checkIn, checkOut)
	opts, _ := args.Get(0).([]accommodation.Option)
	return opts, args.Error(1)
}

var _ policies.ReservationsPort = (*portMock)(nil)
