package reservations

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"pousada/internal/app/cache"
	"pousada/internal/app/commands"
	"pousada/internal/app/middleware"
	"pousada/internal/app/outbox"
	"pousada/internal/app/queries"
	"pousada/internal/app/validation"
	"pousada/internal/domain/accommodation"
	domainauth "pousada/internal/domain/auth"
	"pousada/internal/domain/folio"
	"pousada/internal/domain/reservation"
	"pousada/internal/domain/shared/daterange"
)

var fixedNow = time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

type memOutbox struct {
	mu      sync.Mutex
	pending []outbox.EventRecord
	flushed []outbox.EventRecord
}

func (o *memOutbox) Add(_ context.Context, rec outbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pending = append(o.pending, rec)
	return nil
}

func (o *memOutbox) Flush(context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.flushed = append(o.flushed, o.pending...)
	o.pending = nil
	return nil
}

func (o *memOutbox) names() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, 0, len(o.flushed))
	for _, r := range o.flushed {
		out = append(out, r.Name)
	}
	return out
}

type memIdempotency struct {
	mu    sync.Mutex
	items map[string]middleware.IdempotencyRecord
}

func (s *memIdempotency) Get(_ context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.items[key]
	return rec, ok, nil
}

func (s *memIdempotency) Save(_ context.Context, rec middleware.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[rec.Key] = rec
	return nil
}

type memStatements struct {
	keys []string
	data [][]byte
}

func (s *memStatements) Put(_ context.Context, key, _ string, data []byte) (string, error) {
	s.keys = append(s.keys, key)
	s.data = append(s.data, data)
	return "https://files.local/" + key, nil
}

type harness struct {
	port       *portMock
	cmds       commands.Bus
	queries    queries.Bus
	box        *memOutbox
	workflow   *Workflow
	inflight   *middleware.InFlightRegistry
	statements *memStatements
	session    domainauth.Session
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	port := &portMock{}
	registry := middleware.NewInFlightRegistry()
	box := &memOutbox{}
	w := NewWorkflow(port, cache.New[Projection](time.Minute), registry, box, logger)
	w.Now = func() time.Time { return fixedNow }
	opts := &Options{Workflow: w, Cache: cache.New[[]accommodation.Option](time.Minute)}
	v := validation.New()
	statements := &memStatements{}

	cmdBus := commands.NewInMemoryBus()
	queryBus := queries.NewInMemoryBus()
	Register(cmdBus, queryBus, w, opts, statements, v)

	authz := middleware.SessionAuthorizer{}
	return &harness{
		port: port,
		cmds: middleware.ChainCommands(cmdBus,
			middleware.Authorization(authz),
			middleware.Validation(v),
			middleware.Idempotency(&memIdempotency{items: map[string]middleware.IdempotencyRecord{}}, nil),
			middleware.InFlight(registry),
			middleware.OutboxFlush(box, logger),
		),
		queries: middleware.ChainQueries(queryBus,
			middleware.QueryAuthorization(authz),
			middleware.QueryValidation(v),
		),
		box:        box,
		workflow:   w,
		inflight:   registry,
		statements: statements,
		session: domainauth.Session{
			Bearer:    "pms-bearer",
			TenantID:  "p-1",
			ExpiresAt: time.Now().Add(time.Hour),
		},
	}
}

func (h *harness) target(id string) Target {
	return Target{Session: h.session, ReservationID: reservation.ID(id)}
}

func snapshot(id string, status reservation.Status) reservation.Snapshot {
	stay, _ := daterange.Parse("2025-03-10", "2025-03-13")
	return reservation.Snapshot{
		ID:                 reservation.ID(id),
		GuestID:            "g-1",
		GuestName:          "Ana Souza",
		Stay:               stay,
		Accommodation:      accommodation.Ref{Kind: accommodation.KindRoom, ID: "12"},
		AccommodationLabel: "Quarto 12",
		Status:             status,
	}
}

func withFolio(s reservation.Snapshot, charges []int64, payments []int64) reservation.Snapshot {
	at := fixedNow
	for i, c := range charges {
		s.Folio.Entries = append(s.Folio.Entries, folio.Entry{
			ID: "e" + string(rune('0'+i)), Type: folio.EntryProduct, Description: "item",
			Amount: decimal.NewFromInt(c), Quantity: 1, CreatedAt: at.Add(time.Duration(i) * time.Minute),
		})
	}
	for i, p := range payments {
		s.Folio.Payments = append(s.Folio.Payments, folio.Payment{
			ID: "p" + string(rune('0'+i)), Method: folio.MethodPix,
			Amount: decimal.NewFromInt(p), CreatedAt: at.Add(time.Duration(i) * time.Hour),
		})
	}
	return s
}
