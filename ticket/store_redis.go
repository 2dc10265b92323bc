package ticket

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
)

const ticketRecordVersion1 = 1

const minTicketTTL = time.Second

// RedisStore is a shared-cache ticket store. Key expiry tracks the ticket
// expiry, so lapsed tickets vanish without a sweep.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
	now    func() time.Time
}

func NewRedisStore(redisClient redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "atk"
	}
	return &RedisStore{
		redis:  redisClient,
		prefix: prefix,
		now:    time.Now,
	}
}

func (s *RedisStore) key(ticketID string) string {
	return s.prefix + ":" + ticketID
}

func (s *RedisStore) ttl(expiresAt time.Time) time.Duration {
	ttl := expiresAt.Sub(s.now())
	if ttl < minTicketTTL {
		ttl = minTicketTTL
	}
	return ttl
}

func (s *RedisStore) Create(ctx context.Context, t *Ticket) error {
	encoded, err := encodeTicket(t)
	if err != nil {
		return err
	}

	ok, err := s.redis.SetNX(ctx, s.key(t.ID), encoded, s.ttl(t.ExpiresAt)).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	if !ok {
		return ErrExists
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, ticketID string) (*Ticket, error) {
	data, err := s.redis.Get(ctx, s.key(ticketID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}

	t, err := decodeTicket(ticketID, data)
	if err != nil {
		return nil, err
	}
	if !t.ExpiresAt.After(s.now()) {
		_, _ = s.redis.Del(ctx, s.key(ticketID)).Result()
		return nil, ErrExpired
	}
	return t, nil
}

func (s *RedisStore) Renew(ctx context.Context, ticketID string, expiresAt, lastAccessAt time.Time) (*Ticket, error) {
	const maxRetries = 4
	key := s.key(ticketID)

	for i := 0; i < maxRetries; i++ {
		var renewed *Ticket
		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				return err
			}

			t, err := decodeTicket(ticketID, data)
			if err != nil {
				return err
			}
			if !t.ExpiresAt.After(s.now()) {
				_, derr := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Del(ctx, key)
					return nil
				})
				if derr != nil {
					return derr
				}
				return ErrExpired
			}

			if expiresAt.After(t.ExpiresAt) {
				t.ExpiresAt = expiresAt
			}
			t.LastAccessAt = lastAccessAt

			updated, err := encodeTicket(t)
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, updated, s.ttl(t.ExpiresAt))
				return nil
			})
			if err != nil {
				return err
			}
			renewed = t
			return nil
		}, key)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return nil, ErrNotFound
			}
			if errors.Is(err, ErrExpired) {
				return nil, ErrExpired
			}
			return nil, fmt.Errorf("%w: %v", ErrBackend, err)
		}
		return renewed, nil
	}

	return nil, ErrNotFound
}

func (s *RedisStore) Delete(ctx context.Context, ticketID string) (bool, error) {
	n, err := s.redis.Del(ctx, s.key(ticketID)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return n > 0, nil
}

func encodeTicket(t *Ticket) ([]byte, error) {
	if len(t.UserID) > 65535 || len(t.Username) > 65535 {
		return nil, errors.New("ticket field length exceeded")
	}

	var buf bytes.Buffer
	buf.WriteByte(ticketRecordVersion1)

	if err := binary.Write(&buf, binary.BigEndian, t.IssuedAt.Unix()); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, t.ExpiresAt.Unix()); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, t.LastAccessAt.Unix()); err != nil {
		return nil, err
	}

	if err := binary.Write(&buf, binary.BigEndian, uint16(len(t.UserID))); err != nil {
		return nil, err
	}
	buf.WriteString(t.UserID)
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(t.Username))); err != nil {
		return nil, err
	}
	buf.WriteString(t.Username)

	return buf.Bytes(), nil
}

func decodeTicket(ticketID string, data []byte) (*Ticket, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != ticketRecordVersion1 {
		return nil, errors.New("invalid ticket record version")
	}

	var issuedAt, expiresAt, lastAccessAt int64
	if err := binary.Read(reader, binary.BigEndian, &issuedAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &expiresAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &lastAccessAt); err != nil {
		return nil, err
	}

	var userLen uint16
	if err := binary.Read(reader, binary.BigEndian, &userLen); err != nil {
		return nil, err
	}
	userID := make([]byte, userLen)
	if _, err := io.ReadFull(reader, userID); err != nil {
		return nil, err
	}

	var nameLen uint16
	if err := binary.Read(reader, binary.BigEndian, &nameLen); err != nil {
		return nil, err
	}
	username := make([]byte, nameLen)
	if _, err := io.ReadFull(reader, username); err != nil {
		return nil, err
	}

	return &Ticket{
		ID:           ticketID,
		UserID:       string(userID),
		Username:     string(username),
		IssuedAt:     time.Unix(issuedAt, 0),
		ExpiresAt:    time.Unix(expiresAt, 0),
		LastAccessAt: time.Unix(lastAccessAt, 0),
	}, nil
}
