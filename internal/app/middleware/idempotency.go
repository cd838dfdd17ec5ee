package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"pousada/internal/app/commands"
)

// IdempotentCommand is implemented by commands that may be replayed safely
// with the same key, such as reservation creation.
type IdempotentCommand interface {
	commands.Command
	IdempotencyKey() string
	// Fingerprint identifies the request body so a reused key with another
	// payload is refused instead of replayed.
	Fingerprint() string
	ResultPrototype() any
}

type IdempotencyRecord struct {
	Key         string
	Command     string
	Fingerprint string
	Payload     []byte
	OccurredAt  time.Time
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string) (IdempotencyRecord, bool, error)
	Save(ctx context.Context, rec IdempotencyRecord) error
}

type ResultCodec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, out any) error
}

type JSONResultCodec struct{}

func (JSONResultCodec) Encode(v any) ([]byte, error) { return json.Marshal(v) }

func (JSONResultCodec) Decode(data []byte, out any) error { return json.Unmarshal(data, out) }

var (
	ErrIdempotencyConflict = errors.New("middleware: idempotency key reused with a different request")
	errMissingPrototype    = errors.New("middleware: idempotent command requires result prototype")
)

// FingerprintOf hashes the JSON form of v. Commands use it to build their
// Fingerprint.
func FingerprintOf(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// Idempotency replays the stored result of a command already handled under
// the same key. Only successes are stored: a failed attempt may be retried
// with the same key. Commands sharing a key are handled one at a time, so a
// double submit waits for the first and then replays its result.
func Idempotency(store IdempotencyStore, codec ResultCodec) CommandMiddleware {
	if store == nil {
		panic("middleware: idempotency store required")
	}
	if codec == nil {
		codec = JSONResultCodec{}
	}
	locks := newKeyedLocks()
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			idCmd, ok := cmd.(IdempotentCommand)
			if !ok {
				return nextFn(ctx, cmd)
			}
			key := idCmd.IdempotencyKey()
			if key == "" {
				return nextFn(ctx, cmd)
			}
			scoped := cmd.Key() + ":" + key
			unlock, err := locks.acquire(ctx, scoped)
			if err != nil {
				return nil, err
			}
			defer unlock()
			rec, found, err := store.Get(ctx, scoped)
			if err != nil {
				return nil, err
			}
			if found {
				if rec.Fingerprint != "" && rec.Fingerprint != idCmd.Fingerprint() {
					return nil, fmt.Errorf("%w: %s", ErrIdempotencyConflict, key)
				}
				proto := idCmd.ResultPrototype()
				if proto == nil {
					return nil, errMissingPrototype
				}
				if err := codec.Decode(rec.Payload, proto); err != nil {
					return nil, err
				}
				return normalizePrototype(proto), nil
			}
			result, err := nextFn(ctx, cmd)
			if err != nil {
				return nil, err
			}
			record := IdempotencyRecord{
				Key:         scoped,
				Command:     cmd.Key(),
				Fingerprint: idCmd.Fingerprint(),
				OccurredAt:  time.Now().UTC(),
			}
			if result != nil {
				payload, encErr := codec.Encode(result)
				if encErr != nil {
					return nil, encErr
				}
				record.Payload = payload
			}
			if saveErr := store.Save(ctx, record); saveErr != nil {
				return nil, saveErr
			}
			return result, nil
		})
	}
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

// keyedLocks is a set of mutexes created on demand per key. Waiting for a
// key gives up when the caller's context ends.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{locks: make(map[string]*keyLock)}
}

func (k *keyedLocks) acquire(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{ch: make(chan struct{}, 1)}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	select {
	case l.ch <- struct{}{}:
		return func() {
			<-l.ch
			k.release(key, l)
		}, nil
	case <-ctx.Done():
		k.release(key, l)
		return nil, ctx.Err()
	}
}

func (k *keyedLocks) release(key string, l *keyLock) {
	k.mu.Lock()
	defer k.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(k.locks, key)
	}
}

// normalizePrototype returns the decoded prototype. Handlers of idempotent
// commands return pointers, so replays keep the same dynamic type.
func normalizePrototype(proto any) any {
	rv := reflect.ValueOf(proto)
	if rv.Kind() == reflect.Ptr && !rv.IsNil() {
		return rv.Interface()
	}
	return proto
}
