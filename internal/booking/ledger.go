package booking

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// IDGenerator issues booking ids. The default derives ids from the creation
// timestamp; callers needing stronger guarantees can inject their own.
type IDGenerator func(now time.Time) string

// TimestampID is the default scheme: BK_YYYYMMDD_HHMMSS plus a short random
// suffix guarding against two creations landing in the same clock tick.
func TimestampID(now time.Time) string {
	return "BK_" + now.Format("20060102_150405") + "_" + strings.Split(uuid.NewString(), "-")[0]
}

// Store is the ledger's persistence seam. Implementations must keep
// list-by-phone in insertion order and treat cancel-by-key as first match.
type Store interface {
	Insert(ctx context.Context, b Booking) error
	RemoveByID(ctx context.Context, id string) (*Booking, error)
	RemoveByKey(ctx context.Context, phone, date, timeHHMM string) (*Booking, error)
	ListByPhone(ctx context.Context, phone string) ([]Booking, error)
}

// Ledger is the authoritative registry of active bookings. Creation performs
// no conflict check against overlapping times: availability checking is
// advisory, never enforced at write time.
type Ledger struct {
	store Store
	newID IDGenerator
	now   func() time.Time
}

// Option customizes a Ledger.
type Option func(*Ledger)

// WithIDGenerator injects a collision-resistant id scheme.
func WithIDGenerator(gen IDGenerator) Option {
	return func(l *Ledger) { l.newID = gen }
}

// WithClock injects the ledger clock, used by tests.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// NewLedger builds a ledger over the given store. A nil store gets the
// in-memory implementation.
func NewLedger(store Store, opts ...Option) *Ledger {
	if store == nil {
		store = NewMemoryStore()
	}
	l := &Ledger{
		store: store,
		newID: TimestampID,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Create assigns a fresh unique id and CreatedAt, inserts the booking and
// returns the stored copy. Synchronous; the id is usable immediately.
func (l *Ledger) Create(ctx context.Context, b Booking) (*Booking, error) {
	now := l.now().UTC()
	b.BookingID = l.newID(now)
	b.CreatedAt = now
	if err := l.store.Insert(ctx, b); err != nil {
		return nil, err
	}
	return &b, nil
}

// CancelByID removes and returns the booking, or a NotFoundError.
func (l *Ledger) CancelByID(ctx context.Context, id string) (*Booking, error) {
	return l.store.RemoveByID(ctx, id)
}

// CancelByKey removes the first booking matching phone, date and time by
// exact string equality. Duplicate keys are removed oldest-first, one per
// call.
func (l *Ledger) CancelByKey(ctx context.Context, phone, date, timeHHMM string) (*Booking, error) {
	return l.store.RemoveByKey(ctx, phone, date, timeHHMM)
}

// ListByPhone returns the client's bookings in insertion order.
func (l *Ledger) ListByPhone(ctx context.Context, phone string) ([]Booking, error) {
	return l.store.ListByPhone(ctx, phone)
}

// MemoryStore keeps bookings in process memory. A single mutex scope guards
// every mutating operation; operations are linearizable one at a time, which
// is all the concurrency model requires.
type MemoryStore struct {
	mu    sync.Mutex
	byID  map[string]Booking
	order []string // booking ids in insertion order
}

// NewMemoryStore builds an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]Booking)}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Insert(_ context.Context, b Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[b.BookingID] = b
	s.order = append(s.order, b.BookingID)
	return nil
}

func (s *MemoryStore) RemoveByID(_ context.Context, id string) (*Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.byID[id]
	if !ok {
		return nil, &NotFoundError{BookingID: id}
	}
	s.remove(id)
	return &b, nil
}

func (s *MemoryStore) RemoveByKey(_ context.Context, phone, date, timeHHMM string) (*Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.order {
		b := s.byID[id]
		if b.ClientPhone == phone && b.Date == date && b.Time == timeHHMM {
			s.remove(id)
			return &b, nil
		}
	}
	return nil, &NotFoundError{Phone: phone, Date: date, Time: timeHHMM}
}

func (s *MemoryStore) ListByPhone(_ context.Context, phone string) ([]Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Booking
	for _, id := range s.order {
		if b := s.byID[id]; b.ClientPhone == phone {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *MemoryStore) remove(id string) {
	delete(s.byID, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}
