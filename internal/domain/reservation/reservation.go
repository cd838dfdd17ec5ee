package reservation

import (
	"errors"
	"strings"
	"time"

	"pousada/internal/domain/accommodation"
	"pousada/internal/domain/folio"
	"pousada/internal/domain/shared/daterange"
	"pousada/internal/domain/shared/events"
)

var (
	ErrIDRequired       = errors.New("reservation: id required")
	ErrSnapshotMismatch = errors.New("reservation: snapshot belongs to another reservation")
)

type ID string

// ChannelRef points at the sales channel the reservation came from.
type ChannelRef struct {
	ID   string
	Name string
}

// Reservation is the console's copy of a PMS reservation. It is never advanced
// locally: Reconcile replaces it with whatever the PMS returned.
type Reservation struct {
	ID                 ID
	GuestID            string
	GuestName          string
	Stay               daterange.DateRange
	Accommodation      accommodation.Ref
	AccommodationLabel string
	Status             Status
	SalesChannel       *ChannelRef
	Folio              folio.Ledger
	FetchedAt          time.Time
	events.EventRecorder
}

// Snapshot is a normalized projection received from the PMS.
type Snapshot struct {
	ID                 ID
	GuestID            string
	GuestName          string
	Stay               daterange.DateRange
	Accommodation      accommodation.Ref
	AccommodationLabel string
	Status             Status
	SalesChannel       *ChannelRef
	Folio              folio.Ledger
}

// FromSnapshot builds a reservation from its first fetched projection.
func FromSnapshot(s Snapshot, fetchedAt time.Time) (*Reservation, error) {
	if strings.TrimSpace(string(s.ID)) == "" {
		return nil, ErrIDRequired
	}
	if !s.Status.Valid() {
		return nil, ErrUnknownStatus
	}
	r := &Reservation{}
	r.assign(s, fetchedAt)
	return r, nil
}

func (r *Reservation) assign(s Snapshot, fetchedAt time.Time) {
	r.ID = s.ID
	r.GuestID = s.GuestID
	r.GuestName = s.GuestName
	r.Stay = s.Stay
	r.Accommodation = s.Accommodation
	r.AccommodationLabel = s.AccommodationLabel
	r.Status = s.Status
	r.SalesChannel = s.SalesChannel
	r.Folio = s.Folio.Sorted()
	r.FetchedAt = fetchedAt.UTC()
}

// Snapshot returns the current state as a projection.
func (r *Reservation) Snapshot() Snapshot {
	return Snapshot{
		ID:                 r.ID,
		GuestID:            r.GuestID,
		GuestName:          r.GuestName,
		Stay:               r.Stay,
		Accommodation:      r.Accommodation,
		AccommodationLabel: r.AccommodationLabel,
		Status:             r.Status,
		SalesChannel:       r.SalesChannel,
		Folio:              r.Folio,
	}
}

// Reconcile overwrites the local state with the PMS projection. The PMS always
// wins, even when it reports a status that goes backwards; the returned bool
// tells the caller that happened.
func (r *Reservation) Reconcile(s Snapshot, cause Action, now time.Time) (regressed bool, err error) {
	if s.ID != r.ID {
		return false, ErrSnapshotMismatch
	}
	if !s.Status.Valid() {
		return false, ErrUnknownStatus
	}
	now = now.UTC()
	prev := r.Snapshot()
	r.assign(s, now)

	if prev.Status != s.Status {
		r.Record(StatusChanged{ReservationID: r.ID, From: prev.Status, To: s.Status, Cause: cause, At: now})
	}
	if !prev.Stay.Equal(s.Stay) {
		r.Record(StayChanged{ReservationID: r.ID, CheckIn: s.Stay.CheckInString(), CheckOut: s.Stay.CheckOutString(), Nights: s.Stay.Nights(), At: now})
	}
	if prev.Accommodation != s.Accommodation {
		r.Record(AccommodationChanged{ReservationID: r.ID, From: prev.Accommodation.Token(), To: s.Accommodation.Token(), At: now})
	}
	if prev.Folio.Fingerprint() != s.Folio.Sorted().Fingerprint() {
		r.Record(FolioChanged{ReservationID: r.ID, Balance: r.Folio.Balance().String(), Entries: len(r.Folio.Entries), Payments: len(r.Folio.Payments), At: now})
	}
	return !IsForward(prev.Status, s.Status), nil
}

// Nights is the length of the stay.
func (r *Reservation) Nights() int { return r.Stay.Nights() }

// FolioFrozen reports whether the ledger is closed for display only.
func (r *Reservation) FolioFrozen() bool { return r.Status.Terminal() }

func (r *Reservation) AvailableActions() []Action { return AvailableActions(r.Status) }

func (r *Reservation) Check(action Action) error { return Check(r.Status, action) }
