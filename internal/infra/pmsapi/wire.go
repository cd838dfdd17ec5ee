package pmsapi

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"pousada/internal/domain/accommodation"
	"pousada/internal/domain/folio"
	"pousada/internal/domain/reservation"
	"pousada/internal/domain/shared/daterange"
)

type personWire struct {
	ID   flexID `json:"id"`
	Name string `json:"nome"`
}

type accommodationWire struct {
	Kind string `json:"tipo"`
	ID   flexID `json:"id"`
	Name string `json:"nome,omitempty"`
}

type channelWire struct {
	ID   flexID `json:"id"`
	Name string `json:"nome"`
}

type entryWire struct {
	ID          flexID           `json:"id"`
	Type        string           `json:"tipo"`
	Description string           `json:"descricao"`
	Amount      *decimal.Decimal `json:"valor"`
	Quantity    *int             `json:"quantidade"`
	CreatedAt   string           `json:"criadoEm"`
}

type paymentWire struct {
	ID        flexID           `json:"id"`
	Method    string           `json:"forma"`
	Amount    *decimal.Decimal `json:"valor"`
	CreatedAt string           `json:"criadoEm"`
}

type reservationWire struct {
	ID            flexID             `json:"id"`
	GuestID       flexID             `json:"hospedeId"`
	Guest         *personWire        `json:"hospede"`
	CheckIn       string             `json:"dataCheckin"`
	CheckOut      string             `json:"dataCheckout"`
	Status        string             `json:"status"`
	Accommodation *accommodationWire `json:"acomodacao"`
	Channel       *channelWire       `json:"canalVenda"`
	Entries       []entryWire        `json:"lancamentos"`
	Payments      []paymentWire      `json:"pagamentos"`
}

type optionWire struct {
	ID   flexID           `json:"id"`
	Kind string           `json:"tipo"`
	Name string           `json:"nome"`
	Rate *decimal.Decimal `json:"valorDiaria"`
}

type createWire struct {
	GuestID        string            `json:"hospedeId"`
	CheckIn        string            `json:"dataCheckin"`
	CheckOut       string            `json:"dataCheckout"`
	Accommodation  accommodationWire `json:"acomodacao"`
	SalesChannelID string            `json:"canalVendaId,omitempty"`
	Payment        *paymentBodyWire  `json:"pagamento,omitempty"`
}

type paymentBodyWire struct {
	Method string           `json:"forma"`
	Amount *decimal.Decimal `json:"valor,omitempty"`
}

type createdWire struct {
	ID     flexID `json:"id"`
	Status string `json:"status"`
}

type chargeBodyWire struct {
	Type        string          `json:"tipo"`
	Description string          `json:"descricao"`
	Amount      decimal.Decimal `json:"valor"`
	Quantity    int             `json:"quantidade"`
}

type cancelBodyWire struct {
	Reason string `json:"motivo,omitempty"`
}

type datesBodyWire struct {
	CheckOut string `json:"dataCheckout"`
}

type loginBodyWire struct {
	Email    string `json:"email"`
	Password string `json:"senha"`
}

type loginWire struct {
	Token    string       `json:"token"`
	Operator *personWire  `json:"usuario"`
	Tenants  []personWire `json:"pousadas"`
}

// flexID accepts ids sent either as JSON strings or numbers.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*f = ""
		return nil
	}
	*f = flexID(strings.Trim(raw, `"`))
	return nil
}

func (f flexID) String() string { return strings.TrimSpace(string(f)) }

// wireDate keeps the civil date part of "2025-03-10" or "2025-03-10T00:00:00Z".
func wireDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) > len(daterange.Layout) {
		raw = raw[:len(daterange.Layout)]
	}
	return raw
}

func wireTime(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", daterange.Layout} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func (w reservationWire) snapshot() (reservation.Snapshot, error) {
	id := w.ID.String()
	if id == "" {
		return reservation.Snapshot{}, fmt.Errorf("reservation without id")
	}
	status, err := reservation.ParseStatus(w.Status)
	if err != nil {
		return reservation.Snapshot{}, err
	}
	stay, err := daterange.Parse(wireDate(w.CheckIn), wireDate(w.CheckOut))
	if err != nil {
		return reservation.Snapshot{}, fmt.Errorf("reservation %s: %w", id, err)
	}
	s := reservation.Snapshot{
		ID:      reservation.ID(id),
		GuestID: w.GuestID.String(),
		Stay:    stay,
		Status:  status,
	}
	if w.Guest != nil {
		if s.GuestID == "" {
			s.GuestID = w.Guest.ID.String()
		}
		s.GuestName = strings.TrimSpace(w.Guest.Name)
	}
	if w.Accommodation != nil {
		if kind, ok := accommodation.ParseKind(w.Accommodation.Kind); ok {
			s.Accommodation = accommodation.Ref{Kind: kind, ID: w.Accommodation.ID.String()}
		}
		s.AccommodationLabel = strings.TrimSpace(w.Accommodation.Name)
	}
	if w.Channel != nil && w.Channel.ID.String() != "" {
		s.SalesChannel = &reservation.ChannelRef{ID: w.Channel.ID.String(), Name: strings.TrimSpace(w.Channel.Name)}
	}
	ledger, err := ledgerFromWire(w.Entries, w.Payments)
	if err != nil {
		return reservation.Snapshot{}, fmt.Errorf("reservation %s: %w", id, err)
	}
	s.Folio = ledger
	return s, nil
}

func ledgerFromWire(entries []entryWire, payments []paymentWire) (folio.Ledger, error) {
	var ledger folio.Ledger
	for _, e := range entries {
		if e.Amount == nil {
			return folio.Ledger{}, fmt.Errorf("entry %s without amount", e.ID.String())
		}
		typ, err := folio.ParseEntryType(e.Type)
		if err != nil {
			typ = folio.EntryAdjustment
		}
		qty := 1
		if e.Quantity != nil && *e.Quantity > 0 {
			qty = *e.Quantity
		}
		ledger.Entries = append(ledger.Entries, folio.Entry{
			ID:          e.ID.String(),
			Type:        typ,
			Description: strings.TrimSpace(e.Description),
			Amount:      *e.Amount,
			Quantity:    qty,
			CreatedAt:   wireTime(e.CreatedAt),
		})
	}
	for _, p := range payments {
		if p.Amount == nil {
			return folio.Ledger{}, fmt.Errorf("payment %s without amount", p.ID.String())
		}
		method, err := folio.ParsePaymentMethod(p.Method)
		if err != nil {
			method = folio.PaymentMethod(strings.ToLower(strings.TrimSpace(p.Method)))
		}
		ledger.Payments = append(ledger.Payments, folio.Payment{
			ID:        p.ID.String(),
			Method:    method,
			Amount:    *p.Amount,
			CreatedAt: wireTime(p.CreatedAt),
		})
	}
	return ledger, nil
}

func (w optionWire) option() (accommodation.Option, bool) {
	kind, ok := accommodation.ParseKind(w.Kind)
	if !ok || w.ID.String() == "" {
		return accommodation.Option{}, false
	}
	opt := accommodation.Option{ID: w.ID.String(), Kind: kind, Label: strings.TrimSpace(w.Name)}
	if w.Rate != nil {
		opt.Rate = *w.Rate
	}
	return opt, true
}

func kindWire(k accommodation.Kind) string {
	if k == accommodation.KindBed {
		return "cama"
	}
	return "quarto"
}
