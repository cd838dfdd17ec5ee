package reservations

import (
	"context"
	"strings"

	"pousada/internal/app/cache"
	"pousada/internal/app/dto"
	"pousada/internal/app/queries"
	"pousada/internal/app/validation"
	"pousada/internal/domain/accommodation"
	domainauth "pousada/internal/domain/auth"
	"pousada/internal/domain/pricing"
	"pousada/internal/domain/reservation"
	"pousada/internal/domain/shared/daterange"
	"pousada/internal/domain/shared/money"
)

const (
	GetReservationKey = "reservations.get"
	ListOptionsKey    = "accommodations.options"
	PreviewQuoteKey   = "reservations.preview"
)

type GetReservationQuery struct {
	Session       domainauth.Session
	ReservationID reservation.ID
	Fresh         bool
}

func (q GetReservationQuery) Key() string { return GetReservationKey }

func (q GetReservationQuery) SessionContext() domainauth.Session { return q.Session }

type GetReservationHandler struct {
	Workflow *Workflow
}

func (h *GetReservationHandler) Handle(ctx context.Context, q GetReservationQuery) (*dto.ReservationView, error) {
	if strings.TrimSpace(string(q.ReservationID)) == "" {
		return nil, validation.Single("id", "is required")
	}
	r, err := h.Workflow.Load(ctx, q.Session, q.ReservationID, q.Fresh)
	if err != nil {
		return nil, err
	}
	return h.Workflow.View(q.Session.TenantID, r), nil
}

// Options caches accommodation options per tenant and period.
type Options struct {
	Workflow *Workflow
	Cache    *cache.Store[[]accommodation.Option]
}

func (o *Options) list(ctx context.Context, sess domainauth.Session, checkIn, checkOut string) ([]accommodation.Option, error) {
	key := strings.Join([]string{sess.TenantID, checkIn, checkOut, credentialTag(sess.Bearer)}, "|")
	return o.Cache.Get(ctx, key, func(ctx context.Context) ([]accommodation.Option, error) {
		return o.Workflow.Port.ListAccommodationOptions(ctx, sess, checkIn, checkOut)
	})
}

type ListOptionsQuery struct {
	Session  domainauth.Session
	CheckIn  string
	CheckOut string
}

func (q ListOptionsQuery) Key() string { return ListOptionsKey }

func (q ListOptionsQuery) SessionContext() domainauth.Session { return q.Session }

func (q ListOptionsQuery) Validate(v *validation.Validator) error {
	return v.Period(validation.Period{CheckIn: strings.TrimSpace(q.CheckIn), CheckOut: strings.TrimSpace(q.CheckOut)})
}

type ListOptionsHandler struct {
	Options *Options
}

func (h *ListOptionsHandler) Handle(ctx context.Context, q ListOptionsQuery) ([]dto.OptionView, error) {
	opts, err := h.Options.list(ctx, q.Session, strings.TrimSpace(q.CheckIn), strings.TrimSpace(q.CheckOut))
	if err != nil {
		return nil, err
	}
	return dto.MapOptions(opts), nil
}

// PreviewQuoteQuery prices a draft while it is being filled in. Incomplete
// input is not an error: the unknown parts come back null.
type PreviewQuoteQuery struct {
	Session       domainauth.Session
	CheckIn       string
	CheckOut      string
	Accommodation string
}

func (q PreviewQuoteQuery) Key() string { return PreviewQuoteKey }

func (q PreviewQuoteQuery) SessionContext() domainauth.Session { return q.Session }

type PreviewQuoteHandler struct {
	Options *Options
}

func (h *PreviewQuoteHandler) Handle(ctx context.Context, q PreviewQuoteQuery) (*dto.QuoteView, error) {
	checkIn := strings.TrimSpace(q.CheckIn)
	checkOut := strings.TrimSpace(q.CheckOut)
	token := strings.TrimSpace(q.Accommodation)

	var opts []accommodation.Option
	if _, ok := accommodation.ParseSelection(token); ok {
		periodIn, periodOut := checkIn, checkOut
		if daterange.Nights(checkIn, checkOut) == 0 {
			periodIn, periodOut = "", ""
		}
		var err error
		opts, err = h.Options.list(ctx, q.Session, periodIn, periodOut)
		if err != nil {
			return nil, err
		}
	}
	est := pricing.Preview(opts, checkIn, checkOut, token)
	minCheckOut, _ := daterange.NextDay(checkIn)
	return &dto.QuoteView{
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		MinCheckOut:   minCheckOut,
		Nights:        est.Nights,
		Accommodation: token,
		Found:         est.Resolution.Found,
		Label:         est.Resolution.Label(),
		Rate:          est.Resolution.Rate(),
		RateDisplay:   money.FormatNullable(est.Resolution.Rate()),
		Total:         est.Total,
		TotalDisplay:  money.FormatNullable(est.Total),
	}, nil
}

var _ queries.Handler[GetReservationQuery, *dto.ReservationView] = (*GetReservationHandler)(nil)
var _ queries.Handler[ListOptionsQuery, []dto.OptionView] = (*ListOptionsHandler)(nil)
var _ queries.Handler[PreviewQuoteQuery, *dto.QuoteView] = (*PreviewQuoteHandler)(nil)
