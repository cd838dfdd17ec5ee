package reservations

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"pousada/internal/app/cache"
	"pousada/internal/app/dto"
	"pousada/internal/app/middleware"
	"pousada/internal/app/outbox"
	"pousada/internal/app/policies"
	domainauth "pousada/internal/domain/auth"
	"pousada/internal/domain/reservation"
)

// Projection is the cached copy of a reservation as last returned by the PMS.
type Projection struct {
	Snapshot  reservation.Snapshot
	FetchedAt time.Time
}

// Workflow holds what every reservation handler shares: the PMS port, the
// per-reservation cache and the outbox lifecycle events go to.
type Workflow struct {
	Port     policies.ReservationsPort
	Cache    *cache.Store[Projection]
	InFlight *middleware.InFlightRegistry
	Outbox   outbox.Outbox
	Encoder  outbox.EventEncoder
	Logger   *slog.Logger
	Now      func() time.Time
}

func NewWorkflow(port policies.ReservationsPort, store *cache.Store[Projection], inflight *middleware.InFlightRegistry, box outbox.Outbox, logger *slog.Logger) *Workflow {
	if logger == nil {
		logger = slog.Default()
	}
	return &Workflow{
		Port:     port,
		Cache:    store,
		InFlight: inflight,
		Outbox:   box,
		Logger:   logger,
		Now:      time.Now,
	}
}

// CacheKey scopes a reservation id to its tenant.
func CacheKey(tenantID string, id reservation.ID) string {
	return tenantID + ":" + string(id)
}

// projectionKey scopes a cached projection to the credential that fetched
// it, so a copy is only served back to a bearer the PMS already accepted.
func projectionKey(sess domainauth.Session, id reservation.ID) string {
	return projectionPrefix(sess.TenantID, id) + credentialTag(sess.Bearer)
}

func projectionPrefix(tenantID string, id reservation.ID) string {
	return CacheKey(tenantID, id) + "|"
}

func credentialTag(bearer string) string {
	sum := sha256.Sum256([]byte(bearer))
	return hex.EncodeToString(sum[:12])
}

func (w *Workflow) now() time.Time {
	if w.Now != nil {
		return w.Now().UTC()
	}
	return time.Now().UTC()
}

func (w *Workflow) fetcher(sess domainauth.Session, id reservation.ID) cache.FetchFunc[Projection] {
	return func(ctx context.Context) (Projection, error) {
		snap, err := w.Port.GetReservation(ctx, sess, id)
		if err != nil {
			return Projection{}, err
		}
		return Projection{Snapshot: snap, FetchedAt: w.now()}, nil
	}
}

// Load returns the reservation from the cache, fetching it on a miss. fresh
// skips the cache but still shares an in-flight fetch.
func (w *Workflow) Load(ctx context.Context, sess domainauth.Session, id reservation.ID, fresh bool) (*reservation.Reservation, error) {
	key := projectionKey(sess, id)
	var (
		p   Projection
		err error
	)
	if fresh {
		p, err = w.Cache.Refresh(ctx, key, w.fetcher(sess, id))
	} else {
		p, err = w.Cache.Get(ctx, key, w.fetcher(sess, id))
	}
	if err != nil {
		return nil, err
	}
	return reservation.FromSnapshot(p.Snapshot, p.FetchedAt)
}

// loadForAction returns the reservation and whether it came from the cache
// without reaching the PMS.
func (w *Workflow) loadForAction(ctx context.Context, sess domainauth.Session, id reservation.ID) (*reservation.Reservation, bool, error) {
	if p, ok := w.Cache.Peek(projectionKey(sess, id)); ok {
		r, err := reservation.FromSnapshot(p.Snapshot, p.FetchedAt)
		return r, true, err
	}
	r, err := w.Load(ctx, sess, id, false)
	return r, false, err
}

// Invalidate drops every cached copy of a reservation, e.g. when the PMS
// change feed says it was modified elsewhere.
func (w *Workflow) Invalidate(tenantID string, id reservation.ID) {
	w.Cache.InvalidatePrefix(projectionPrefix(tenantID, id))
}

// BusyAction reports the mutation in flight for a reservation.
func (w *Workflow) BusyAction(tenantID string, id reservation.ID) string {
	if w.InFlight == nil {
		return ""
	}
	action, _ := w.InFlight.Busy(CacheKey(tenantID, id))
	return action
}

// View maps r including its busy state.
func (w *Workflow) View(tenantID string, r *reservation.Reservation) *dto.ReservationView {
	view := dto.MapReservation(r, w.BusyAction(tenantID, r.ID))
	return &view
}

type pmsCall func(ctx context.Context) (reservation.Snapshot, error)

// Mutate runs one lifecycle action. The action is gated locally first and
// nothing is sent upstream when it is not offered. The PMS response then
// replaces the local state, whatever it says.
func (w *Workflow) Mutate(ctx context.Context, sess domainauth.Session, id reservation.ID, action reservation.Action, precheck func(*reservation.Reservation) error, call pmsCall) (*dto.ReservationView, error) {
	r, err := w.gate(ctx, sess, id, action, precheck)
	if err != nil {
		return nil, err
	}
	before := r.Status
	snap, err := call(ctx)
	if err != nil {
		w.afterFailure(ctx, sess, id, action, err)
		return nil, err
	}
	log := w.Logger.With("reservation_id", string(id), "tenant_id", sess.TenantID, "action", string(action))
	regressed, err := r.Reconcile(snap, action, w.now())
	if err != nil {
		// the PMS accepted the write, so report its current state instead
		log.Error("pms response could not be applied, reloading", "error", err)
		w.Invalidate(sess.TenantID, id)
		fresh, loadErr := w.Load(ctx, sess, id, true)
		if loadErr != nil {
			return nil, loadErr
		}
		view := dto.MapReservation(fresh, "")
		return &view, nil
	}
	w.Invalidate(sess.TenantID, id)
	w.Cache.Set(projectionKey(sess, id), Projection{Snapshot: r.Snapshot(), FetchedAt: r.FetchedAt})

	switch {
	case regressed:
		log.Warn("pms returned an earlier status", "from", string(before), "to", string(r.Status))
	case r.Status != action.Target(before):
		log.Warn("pms returned an unexpected status", "expected", string(action.Target(before)), "got", string(r.Status))
	default:
		log.Info("reservation updated", "status", string(r.Status))
	}
	w.publish(ctx, sess.TenantID, r)
	// the in-flight slot is still held by this call, so it is not reported
	view := dto.MapReservation(r, "")
	return &view, nil
}

// gate admits action against the cached status. A cached copy may lag
// behind the PMS, so a refusal based on it is confirmed against a fresh
// copy before it is returned.
func (w *Workflow) gate(ctx context.Context, sess domainauth.Session, id reservation.ID, action reservation.Action, precheck func(*reservation.Reservation) error) (*reservation.Reservation, error) {
	r, cached, err := w.loadForAction(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	err = admit(r, action, precheck)
	if err == nil {
		return r, nil
	}
	if !cached || !errors.Is(err, reservation.ErrActionNotAllowed) {
		return nil, err
	}
	if r, err = w.Load(ctx, sess, id, true); err != nil {
		return nil, err
	}
	if err := admit(r, action, precheck); err != nil {
		return nil, err
	}
	return r, nil
}

func admit(r *reservation.Reservation, action reservation.Action, precheck func(*reservation.Reservation) error) error {
	if err := r.Check(action); err != nil {
		return err
	}
	if precheck != nil {
		return precheck(r)
	}
	return nil
}

// afterFailure keeps the cache consistent with the PMS once a call failed. A
// refusal means local state may be stale, so it is resynced; a transient
// failure leaves the last known good projection in place.
func (w *Workflow) afterFailure(ctx context.Context, sess domainauth.Session, id reservation.ID, action reservation.Action, cause error) {
	log := w.Logger.With("reservation_id", string(id), "tenant_id", sess.TenantID, "action", string(action))
	switch {
	case policies.IsRejection(cause):
		log.Info("pms rejected action, resyncing", "error", cause)
		w.Invalidate(sess.TenantID, id)
		if _, err := w.Load(ctx, sess, id, true); err != nil {
			log.Warn("resync after rejection failed", "error", err)
		}
	case errors.Is(cause, policies.ErrNotFound):
		w.Invalidate(sess.TenantID, id)
	default:
		log.Warn("pms call failed", "error", cause)
	}
}

func (w *Workflow) publish(ctx context.Context, tenantID string, r *reservation.Reservation) {
	evs := r.Drain()
	if len(evs) == 0 || w.Outbox == nil {
		return
	}
	enc := w.Encoder
	if enc == nil {
		enc = outbox.JSONEventEncoder{Headers: map[string]string{"tenant_id": tenantID}}
	}
	if err := outbox.RecordDomainEvents(ctx, w.Outbox, enc, evs); err != nil {
		w.Logger.Error("record reservation events", "reservation_id", string(r.ID), "error", err)
	}
}
