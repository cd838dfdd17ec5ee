package reservation

import "time"

type Created struct {
	ReservationID ID        `json:"reservation_id"`
	GuestID       string    `json:"guest_id"`
	Status        Status    `json:"status"`
	CheckIn       string    `json:"check_in"`
	CheckOut      string    `json:"check_out"`
	Accommodation string    `json:"accommodation"`
	At            time.Time `json:"at"`
}

func (e Created) EventName() string     { return "reservation.created" }
func (e Created) AggregateID() string   { return string(e.ReservationID) }
func (e Created) OccurredAt() time.Time { return e.At }

type StatusChanged struct {
	ReservationID ID        `json:"reservation_id"`
	From          Status    `json:"from"`
	To            Status    `json:"to"`
	Cause         Action    `json:"cause,omitempty"`
	At            time.Time `json:"at"`
}

func (e StatusChanged) EventName() string     { return "reservation.status_changed" }
func (e StatusChanged) AggregateID() string   { return string(e.ReservationID) }
func (e StatusChanged) OccurredAt() time.Time { return e.At }

type StayChanged struct {
	ReservationID ID        `json:"reservation_id"`
	CheckIn       string    `json:"check_in"`
	CheckOut      string    `json:"check_out"`
	Nights        int       `json:"nights"`
	At            time.Time `json:"at"`
}

func (e StayChanged) EventName() string     { return "reservation.stay_changed" }
func (e StayChanged) AggregateID() string   { return string(e.ReservationID) }
func (e StayChanged) OccurredAt() time.Time { return e.At }

type AccommodationChanged struct {
	ReservationID ID        `json:"reservation_id"`
	From          string    `json:"from"`
	To            string    `json:"to"`
	At            time.Time `json:"at"`
}

func (e AccommodationChanged) EventName() string     { return "reservation.accommodation_changed" }
func (e AccommodationChanged) AggregateID() string   { return string(e.ReservationID) }
func (e AccommodationChanged) OccurredAt() time.Time { return e.At }

type FolioChanged struct {
	ReservationID ID        `json:"reservation_id"`
	Balance       string    `json:"balance"`
	Entries       int       `json:"entries"`
	Payments      int       `json:"payments"`
	At            time.Time `json:"at"`
}

func (e FolioChanged) EventName() string     { return "reservation.folio_changed" }
func (e FolioChanged) AggregateID() string   { return string(e.ReservationID) }
func (e FolioChanged) OccurredAt() time.Time { return e.At }
