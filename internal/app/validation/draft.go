package validation

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"pousada/internal/domain/folio"
	"pousada/internal/domain/shared/daterange"
)

// Draft is a reservation about to be created.
type Draft struct {
	GuestID       string `json:"guest_id" validate:"required"`
	CheckIn       string `json:"check_in" validate:"required,ymd"`
	CheckOut      string `json:"check_out" validate:"required,ymd"`
	Accommodation string `json:"accommodation" validate:"required,selection"`
	SalesChannel  string `json:"sales_channel"`
	FullyPaid     bool   `json:"fully_paid"`
	PaymentMethod string `json:"payment_method"`
	PaymentAmount string `json:"payment_amount" validate:"omitempty,amount"`
}

// Normalize trims every field and drops payment data when the stay was not
// paid up front, so it is never submitted.
func (d Draft) Normalize() Draft {
	d.GuestID = strings.TrimSpace(d.GuestID)
	d.CheckIn = strings.TrimSpace(d.CheckIn)
	d.CheckOut = strings.TrimSpace(d.CheckOut)
	d.Accommodation = strings.TrimSpace(d.Accommodation)
	d.SalesChannel = strings.TrimSpace(d.SalesChannel)
	d.PaymentMethod = strings.ToLower(strings.TrimSpace(d.PaymentMethod))
	d.PaymentAmount = strings.TrimSpace(d.PaymentAmount)
	if !d.FullyPaid {
		d.PaymentMethod = ""
		d.PaymentAmount = ""
	}
	return d
}

// Draft validates the normalized form of d.
func (v *Validator) Draft(d Draft) error {
	return v.Struct(d.Normalize())
}

func draftRules(sl validator.StructLevel) {
	d := sl.Current().Interface().(Draft)
	in, okIn := daterange.ParseDate(d.CheckIn)
	out, okOut := daterange.ParseDate(d.CheckOut)
	if okIn && okOut && !out.After(in) {
		sl.ReportError(d.CheckOut, "check_out", "CheckOut", "after_checkin", "")
	}
	if d.FullyPaid {
		if _, err := folio.ParsePaymentMethod(d.PaymentMethod); err != nil {
			sl.ReportError(d.PaymentMethod, "payment_method", "PaymentMethod", "payment_method", "")
		}
	}
}

// Extension is a new checkout for a reservation whose check-in is known.
type Extension struct {
	CheckIn  string `json:"check_in" validate:"required,ymd"`
	CheckOut string `json:"check_out" validate:"required,ymd"`
}

func (v *Validator) Extension(e Extension) error {
	e.CheckIn = strings.TrimSpace(e.CheckIn)
	e.CheckOut = strings.TrimSpace(e.CheckOut)
	return v.Struct(e)
}

func extensionRules(sl validator.StructLevel) {
	e := sl.Current().Interface().(Extension)
	in, okIn := daterange.ParseDate(e.CheckIn)
	out, okOut := daterange.ParseDate(e.CheckOut)
	if okIn && okOut && !out.After(in) {
		sl.ReportError(e.CheckOut, "check_out", "CheckOut", "after_checkin", "")
	}
}

// Charge is a folio debit typed in at the front desk.
type Charge struct {
	Type        string `json:"type" validate:"required,entry_type"`
	Description string `json:"description" validate:"required,max=200"`
	Amount      string `json:"amount" validate:"required,amount"`
	Quantity    int    `json:"quantity" validate:"min=0"`
}

func (v *Validator) Charge(c Charge) error {
	c.Type = strings.TrimSpace(c.Type)
	c.Description = strings.TrimSpace(c.Description)
	c.Amount = strings.TrimSpace(c.Amount)
	return v.Struct(c)
}

type Payment struct {
	Method string `json:"method" validate:"required,payment_method"`
	Amount string `json:"amount" validate:"required,amount"`
}

func (v *Validator) Payment(p Payment) error {
	p.Method = strings.ToLower(strings.TrimSpace(p.Method))
	p.Amount = strings.TrimSpace(p.Amount)
	return v.Struct(p)
}

// Selection validates a standalone accommodation token.
func (v *Validator) Selection(token string) error {
	if err := v.v.Var(strings.TrimSpace(token), "required,selection"); err != nil {
		return Single("accommodation", messages["selection"])
	}
	return nil
}

// Period validates an optional check-in/check-out pair used by lookups.
type Period struct {
	CheckIn  string `json:"check_in" validate:"omitempty,ymd"`
	CheckOut string `json:"check_out" validate:"omitempty,ymd"`
}

func (v *Validator) Period(p Period) error {
	return v.Struct(p)
}

// Date validates a single required YYYY-MM-DD field.
func (v *Validator) Date(field, raw string) error {
	if err := v.v.Var(strings.TrimSpace(raw), "required,ymd"); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Tag() == "required" {
			return Single(field, messages["required"])
		}
		return Single(field, messages["ymd"])
	}
	return nil
}
