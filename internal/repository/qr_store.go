package repository

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrQRUnavailable is returned when no Redis client is configured.
var ErrQRUnavailable = errors.New("qr code store unavailable")

// QRCode is the attendance code of one UTC day.
type QRCode struct {
	Code      string    `json:"code"`
	Date      string    `json:"date"`
	ExpiresAt time.Time `json:"expires_at"`
}

// QRStore keeps the daily attendance code in Redis. The key expires at the
// end of the day so yesterday's code can never be replayed.
type QRStore struct {
	RDB    *redis.Client
	Prefix string
}

func NewQRStore(rdb *redis.Client) *QRStore { return &QRStore{RDB: rdb, Prefix: "qr"} }

func (s *QRStore) key(day string) string { return s.Prefix + ":" + day }

func dayBounds(now time.Time) (string, time.Time) {
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return start.Format("2006-01-02"), start.Add(24 * time.Hour)
}

// Generate issues a fresh code for today, replacing any earlier one.
func (s *QRStore) Generate(ctx context.Context, now time.Time) (QRCode, error) {
	if s == nil || s.RDB == nil {
		return QRCode{}, ErrQRUnavailable
	}
	day, end := dayBounds(now)
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	code := fmt.Sprintf("HERCULES-%s-%s", day, suffix)
	if err := s.RDB.Set(ctx, s.key(day), code, end.Sub(now.UTC())).Err(); err != nil {
		return QRCode{}, err
	}
	return QRCode{Code: code, Date: day, ExpiresAt: end}, nil
}

// Current returns today's code, generating one when none exists.
func (s *QRStore) Current(ctx context.Context, now time.Time) (QRCode, error) {
	if s == nil || s.RDB == nil {
		return QRCode{}, ErrQRUnavailable
	}
	day, end := dayBounds(now)
	code, err := s.RDB.Get(ctx, s.key(day)).Result()
	if errors.Is(err, redis.Nil) {
		return s.Generate(ctx, now)
	}
	if err != nil {
		return QRCode{}, err
	}
	return QRCode{Code: code, Date: day, ExpiresAt: end}, nil
}

// Validate reports whether code matches today's code.
func (s *QRStore) Validate(ctx context.Context, code string, now time.Time) (bool, error) {
	if s == nil || s.RDB == nil {
		return false, ErrQRUnavailable
	}
	day, _ := dayBounds(now)
	stored, err := s.RDB.Get(ctx, s.key(day)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(strings.TrimSpace(code))) == 1, nil
}
