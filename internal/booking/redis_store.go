package booking

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// RedisStore keeps bookings in Redis: one JSON value per booking plus a
// per-phone list preserving insertion order. It survives process restarts as
// long as the Redis instance does; it is a store seam, not a durability
// promise.
type RedisStore struct {
	redis  *redis.Client
	tracer trace.Tracer
}

// NewRedisStore builds a store over the given client.
func NewRedisStore(client *redis.Client) *RedisStore {
	if client == nil {
		panic("booking: redis client cannot be nil")
	}
	return &RedisStore{
		redis:  client,
		tracer: otel.Tracer("scheduler.internal.booking.redis"),
	}
}

var _ Store = (*RedisStore)(nil)

func bookingKey(id string) string {
	return fmt.Sprintf("booking:%s", id)
}

func phoneIndexKey(phone string) string {
	return fmt.Sprintf("bookings_by_phone:%s", phone)
}

func (s *RedisStore) Insert(ctx context.Context, b Booking) error {
	ctx, span := s.tracer.Start(ctx, "booking.redis.insert")
	defer span.End()

	data, err := json.Marshal(b)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("booking: failed to marshal booking: %w", err)
	}
	pipe := s.redis.TxPipeline()
	pipe.Set(ctx, bookingKey(b.BookingID), data, 0)
	pipe.RPush(ctx, phoneIndexKey(b.ClientPhone), b.BookingID)
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("booking: failed to persist booking: %w", err)
	}
	return nil
}

func (s *RedisStore) RemoveByID(ctx context.Context, id string) (*Booking, error) {
	ctx, span := s.tracer.Start(ctx, "booking.redis.remove_by_id")
	defer span.End()

	b, err := s.load(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := s.delete(ctx, b); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return b, nil
}

func (s *RedisStore) RemoveByKey(ctx context.Context, phone, date, timeHHMM string) (*Booking, error) {
	ctx, span := s.tracer.Start(ctx, "booking.redis.remove_by_key")
	defer span.End()

	ids, err := s.redis.LRange(ctx, phoneIndexKey(phone), 0, -1).Result()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("booking: failed to read phone index: %w", err)
	}
	for _, id := range ids {
		b, err := s.load(ctx, id)
		if err != nil {
			continue // index entry for an already-removed booking
		}
		if b.Date == date && b.Time == timeHHMM {
			if err := s.delete(ctx, b); err != nil {
				span.RecordError(err)
				return nil, err
			}
			return b, nil
		}
	}
	return nil, &NotFoundError{Phone: phone, Date: date, Time: timeHHMM}
}

func (s *RedisStore) ListByPhone(ctx context.Context, phone string) ([]Booking, error) {
	ctx, span := s.tracer.Start(ctx, "booking.redis.list_by_phone")
	defer span.End()

	ids, err := s.redis.LRange(ctx, phoneIndexKey(phone), 0, -1).Result()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("booking: failed to read phone index: %w", err)
	}
	var out []Booking
	for _, id := range ids {
		b, err := s.load(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, *b)
	}
	return out, nil
}

func (s *RedisStore) load(ctx context.Context, id string) (*Booking, error) {
	data, err := s.redis.Get(ctx, bookingKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, &NotFoundError{BookingID: id}
		}
		return nil, fmt.Errorf("booking: failed to load %s: %w", id, err)
	}
	var b Booking
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("booking: failed to decode %s: %w", id, err)
	}
	return &b, nil
}

func (s *RedisStore) delete(ctx context.Context, b *Booking) error {
	pipe := s.redis.TxPipeline()
	pipe.Del(ctx, bookingKey(b.BookingID))
	pipe.LRem(ctx, phoneIndexKey(b.ClientPhone), 1, b.BookingID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("booking: failed to delete %s: %w", b.BookingID, err)
	}
	return nil
}
