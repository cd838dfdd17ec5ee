package pricing

import (
	"github.com/shopspring/decimal"

	"pousada/internal/domain/accommodation"
	"pousada/internal/domain/shared/daterange"
)

// Resolution is the outcome of matching a selection token against the options
// offered by the PMS. Rate and Label are only meaningful when Found is true.
type Resolution struct {
	Found  bool
	Option accommodation.Option
}

// Rate returns the nightly rate, absent when the selection did not resolve.
func (r Resolution) Rate() decimal.NullDecimal {
	if !r.Found {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(r.Option.Rate)
}

func (r Resolution) Label() string {
	if !r.Found {
		return ""
	}
	return r.Option.Label
}

// Resolve finds the option referenced by a "kind:id" token.
func Resolve(options []accommodation.Option, token string) Resolution {
	if len(options) == 0 {
		return Resolution{}
	}
	ref, ok := accommodation.ParseSelection(token)
	if !ok {
		return Resolution{}
	}
	for _, opt := range options {
		if opt.ID == ref.ID && opt.Kind == ref.Kind {
			return Resolution{Found: true, Option: opt}
		}
	}
	return Resolution{}
}

// Quote multiplies the nightly rate by the number of nights. The result is
// absent, never zero, when either operand is unknown.
func Quote(rate decimal.NullDecimal, nights int) decimal.NullDecimal {
	if !rate.Valid || nights <= 0 {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(rate.Decimal.Mul(decimal.NewFromInt(int64(nights))))
}

// Estimate is the provisional figure shown while a reservation is drafted.
type Estimate struct {
	Nights     int
	Resolution Resolution
	Total      decimal.NullDecimal
}

func Preview(options []accommodation.Option, checkIn, checkOut, token string) Estimate {
	nights := daterange.Nights(checkIn, checkOut)
	res := Resolve(options, token)
	return Estimate{
		Nights:     nights,
		Resolution: res,
		Total:      Quote(res.Rate(), nights),
	}
}
