package folio

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrUnknownEntryType     = errors.New("folio: unknown entry type")
	ErrUnknownPaymentMethod = errors.New("folio: unknown payment method")
)

type EntryType string

const (
	EntryRoomCharge EntryType = "room_charge"
	EntryProduct    EntryType = "product"
	EntryAdjustment EntryType = "adjustment"
)

func ParseEntryType(raw string) (EntryType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "room_charge", "diaria", "diária", "room":
		return EntryRoomCharge, nil
	case "product", "produto", "consumo":
		return EntryProduct, nil
	case "adjustment", "ajuste":
		return EntryAdjustment, nil
	default:
		return "", ErrUnknownEntryType
	}
}

type PaymentMethod string

const (
	MethodPix     PaymentMethod = "pix"
	MethodCash    PaymentMethod = "cash"
	MethodCard    PaymentMethod = "card"
	MethodBooking PaymentMethod = "booking"
	MethodAirbnb  PaymentMethod = "airbnb"
)

// PaymentMethods is the fixed set accepted by the front desk.
var PaymentMethods = []PaymentMethod{MethodPix, MethodCash, MethodCard, MethodBooking, MethodAirbnb}

func ParsePaymentMethod(raw string) (PaymentMethod, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pix":
		return MethodPix, nil
	case "cash", "dinheiro":
		return MethodCash, nil
	case "card", "cartao", "cartão", "credit_card", "debit_card":
		return MethodCard, nil
	case "booking", "booking.com":
		return MethodBooking, nil
	case "airbnb":
		return MethodAirbnb, nil
	default:
		return "", ErrUnknownPaymentMethod
	}
}

// Entry is a debit on the folio. Quantity is 1 when the PMS omits it.
type Entry struct {
	ID          string
	Type        EntryType
	Description string
	Amount      decimal.Decimal
	Quantity    int
	CreatedAt   time.Time
}

// UnitValue divides the stored amount by the quantity. Total is always the
// stored amount and is never recomputed from the unit value.
func (e Entry) UnitValue() decimal.Decimal {
	if e.Quantity <= 1 {
		return e.Amount
	}
	return e.Amount.Div(decimal.NewFromInt(int64(e.Quantity)))
}

// Payment is a credit on the folio.
type Payment struct {
	ID        string
	Method    PaymentMethod
	Amount    decimal.Decimal
	CreatedAt time.Time
}

type LineKind string

const (
	LineEntry   LineKind = "entry"
	LinePayment LineKind = "payment"
)

// Line is one row of the folio as displayed: entries and payments merged.
type Line struct {
	Kind      LineKind
	ID        string
	Label     string
	EntryType EntryType
	Method    PaymentMethod
	Quantity  int
	UnitValue decimal.Decimal
	Total     decimal.Decimal
	CreatedAt time.Time
}

// Ledger is the read-only aggregation of a reservation folio.
type Ledger struct {
	Entries  []Entry
	Payments []Payment
}

func (l Ledger) Charges() decimal.Decimal {
	total := decimal.Zero
	for _, e := range l.Entries {
		total = total.Add(e.Amount)
	}
	return total
}

func (l Ledger) Paid() decimal.Decimal {
	total := decimal.Zero
	for _, p := range l.Payments {
		total = total.Add(p.Amount)
	}
	return total
}

// Balance is charges minus payments; positive means the guest owes.
func (l Ledger) Balance() decimal.Decimal {
	return l.Charges().Sub(l.Paid())
}

// Lines merges entries and payments in createdAt ascending order. Ties keep
// entries before payments and otherwise preserve the PMS ordering.
func (l Ledger) Lines() []Line {
	lines := make([]Line, 0, len(l.Entries)+len(l.Payments))
	for _, e := range l.Entries {
		qty := e.Quantity
		if qty <= 0 {
			qty = 1
		}
		lines = append(lines, Line{
			Kind:      LineEntry,
			ID:        e.ID,
			Label:     e.Description,
			EntryType: e.Type,
			Quantity:  qty,
			UnitValue: e.UnitValue(),
			Total:     e.Amount,
			CreatedAt: e.CreatedAt,
		})
	}
	for _, p := range l.Payments {
		lines = append(lines, Line{
			Kind:      LinePayment,
			ID:        p.ID,
			Label:     string(p.Method),
			Method:    p.Method,
			Quantity:  1,
			UnitValue: p.Amount,
			Total:     p.Amount,
			CreatedAt: p.CreatedAt,
		})
	}
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].CreatedAt.Before(lines[j].CreatedAt)
	})
	return lines
}

// Sorted returns a copy of the ledger with entries and payments in canonical
// display order.
func (l Ledger) Sorted() Ledger {
	entries := append([]Entry(nil), l.Entries...)
	payments := append([]Payment(nil), l.Payments...)
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].CreatedAt.Before(entries[j].CreatedAt) })
	sort.SliceStable(payments, func(i, j int) bool { return payments[i].CreatedAt.Before(payments[j].CreatedAt) })
	return Ledger{Entries: entries, Payments: payments}
}

// Fingerprint changes whenever an entry or payment is added or removed.
func (l Ledger) Fingerprint() string {
	var b strings.Builder
	for _, e := range l.Entries {
		b.WriteString(e.ID)
		b.WriteByte('|')
	}
	b.WriteByte('#')
	for _, p := range l.Payments {
		b.WriteString(p.ID)
		b.WriteByte('|')
	}
	return b.String()
}
