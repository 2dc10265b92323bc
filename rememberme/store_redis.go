package rememberme

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

const recordVersion1 = 1

const minRecordTTL = time.Second

// RedisStore is a shared-cache record store keyed by username. Key
// expiry tracks the record expiry.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
	now    func() time.Time
}

func NewRedisStore(redisClient redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "arm"
	}
	return &RedisStore{
		redis:  redisClient,
		prefix: prefix,
		now:    time.Now,
	}
}

func (s *RedisStore) key(username string) string {
	return s.prefix + ":" + username
}

func (s *RedisStore) Save(ctx context.Context, record *Record) error {
	encoded, err := encodeRecord(record)
	if err != nil {
		return err
	}

	ttl := record.ExpiresAt.Sub(s.now())
	if ttl < minRecordTTL {
		ttl = minRecordTTL
	}
	if err := s.redis.Set(ctx, s.key(record.Username), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return nil
}

func (s *RedisStore) Read(ctx context.Context, username string) (*Record, error) {
	data, err := s.redis.Get(ctx, s.key(username)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}

	record, err := decodeRecord(username, data)
	if err != nil {
		return nil, err
	}
	if !record.ExpiresAt.After(s.now()) {
		_, _ = s.redis.Del(ctx, s.key(username)).Result()
		return nil, ErrNotFound
	}
	return record, nil
}

func (s *RedisStore) Delete(ctx context.Context, username string) (bool, error) {
	n, err := s.redis.Del(ctx, s.key(username)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return n > 0, nil
}

func encodeRecord(record *Record) ([]byte, error) {
	if len(record.ID) > 65535 || len(record.UserID) > 65535 {
		return nil, errors.New("remember-me record field length exceeded")
	}

	var buf bytes.Buffer
	buf.WriteByte(recordVersion1)

	if err := binary.Write(&buf, binary.BigEndian, record.IssuedAt.Unix()); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, record.ExpiresAt.Unix()); err != nil {
		return nil, err
	}

	if err := binary.Write(&buf, binary.BigEndian, uint16(len(record.ID))); err != nil {
		return nil, err
	}
	buf.WriteString(record.ID)
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(record.UserID))); err != nil {
		return nil, err
	}
	buf.WriteString(record.UserID)

	return buf.Bytes(), nil
}

func decodeRecord(username string, data []byte) (*Record, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != recordVersion1 {
		return nil, errors.New("invalid remember-me record version")
	}

	var issuedAt, expiresAt int64
	if err := binary.Read(reader, binary.BigEndian, &issuedAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &expiresAt); err != nil {
		return nil, err
	}

	var idLen uint16
	if err := binary.Read(reader, binary.BigEndian, &idLen); err != nil {
		return nil, err
	}
	id := make([]byte, idLen)
	if _, err := io.ReadFull(reader, id); err != nil {
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

	return &Record{
		ID:        string(id),
		UserID:    string(userID),
		Username:  username,
		IssuedAt:  time.Unix(issuedAt, 0),
		ExpiresAt: time.Unix(expiresAt, 0),
	}, nil
}
