package otp

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

const challengeRecordVersion1 = 1

// consumeChallengeLua atomically performs GET→validate→DEL on a challenge.
// KEYS[1] = challenge key
// ARGV[1] = provided code
// ARGV[2] = max attempts (int string)
// ARGV[3] = current unix timestamp (int string)
//
// Returns:
//
//	"ok" on success
//	error string: "not_found", "expired", "attempts_exceeded", "code_mismatch"
var consumeChallengeLua = redis.NewScript(`
local data = redis.call('GET', KEYS[1])
if not data then
  return {err='not_found'}
end

local providedCode = ARGV[1]
local maxAttempts = tonumber(ARGV[2])
local nowUnix = tonumber(ARGV[3])

-- Minimal binary decode: version(1) attempts(2 big-endian) expiresAt(8 big-endian) codeLen(2 big-endian) code
local version = string.byte(data, 1)
if version ~= 1 then
  redis.call('DEL', KEYS[1])
  return {err='not_found'}
end

local a0 = string.byte(data, 2)
local a1 = string.byte(data, 3)
local attempts = a0 * 256 + a1

local e0,e1,e2,e3,e4,e5,e6,e7 = string.byte(data, 4, 11)
local expiresAt = e0
for _, b in ipairs({e1,e2,e3,e4,e5,e6,e7}) do
  expiresAt = expiresAt * 256 + b
end

if nowUnix > expiresAt then
  redis.call('DEL', KEYS[1])
  return {err='expired'}
end

local codeLen = string.byte(data, 12) * 256 + string.byte(data, 13)
local storedCode = string.sub(data, 14, 13 + codeLen)

if storedCode ~= providedCode then
  attempts = attempts + 1
  if attempts >= maxAttempts then
    redis.call('DEL', KEYS[1])
    return {err='attempts_exceeded'}
  end
  local newA0 = math.floor(attempts / 256)
  local newA1 = attempts % 256
  local newData = string.sub(data, 1, 1) .. string.char(newA0, newA1) .. string.sub(data, 4)
  local ttlMs = redis.call('PTTL', KEYS[1])
  if ttlMs <= 0 then
    redis.call('DEL', KEYS[1])
    return {err='expired'}
  end
  redis.call('SET', KEYS[1], newData, 'PX', ttlMs)
  return {err='code_mismatch'}
end

redis.call('DEL', KEYS[1])
return 'ok'
`)

const minChallengeTTL = time.Second

// RedisStore is a shared-cache challenge store. Key expiry tracks the
// challenge expiry, and the consume path runs server-side so validation
// stays single use across instances.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
	now    func() time.Time
}

func NewRedisStore(redisClient redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "aoc"
	}
	return &RedisStore{
		redis:  redisClient,
		prefix: prefix,
		now:    time.Now,
	}
}

func (s *RedisStore) key(challengeKey string) string {
	return s.prefix + ":" + challengeKey
}

func (s *RedisStore) Put(ctx context.Context, key string, challenge *Challenge, ttl time.Duration) error {
	encoded, err := encodeChallenge(challenge)
	if err != nil {
		return err
	}

	if ttl < minChallengeTTL {
		ttl = minChallengeTTL
	}
	if err := s.redis.Set(ctx, s.key(key), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return nil
}

func (s *RedisStore) Consume(ctx context.Context, key, code string, maxAttempts int) error {
	err := consumeChallengeLua.Run(ctx, s.redis,
		[]string{s.key(key)},
		code,
		maxAttempts,
		s.now().Unix(),
	).Err()
	if err == nil {
		return nil
	}

	switch err.Error() {
	case "not_found":
		return ErrNotFound
	case "expired":
		return ErrNotFound
	case "attempts_exceeded":
		return ErrAttemptsExceeded
	case "code_mismatch":
		return ErrCodeMismatch
	default:
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.redis.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return nil
}

func encodeChallenge(challenge *Challenge) ([]byte, error) {
	if len(challenge.Code) > 65535 {
		return nil, errors.New("otp code too long")
	}

	var buf bytes.Buffer
	buf.WriteByte(challengeRecordVersion1)

	if err := binary.Write(&buf, binary.BigEndian, challenge.Attempts); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, challenge.ExpiresAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(challenge.Code))); err != nil {
		return nil, err
	}
	buf.WriteString(challenge.Code)

	return buf.Bytes(), nil
}

func decodeChallenge(data []byte) (*Challenge, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != challengeRecordVersion1 {
		return nil, errors.New("invalid otp challenge record version")
	}

	challenge := &Challenge{}
	if err := binary.Read(reader, binary.BigEndian, &challenge.Attempts); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &challenge.ExpiresAt); err != nil {
		return nil, err
	}

	var codeLen uint16
	if err := binary.Read(reader, binary.BigEndian, &codeLen); err != nil {
		return nil, err
	}
	code := make([]byte, codeLen)
	if _, err := io.ReadFull(reader, code); err != nil {
		return nil, err
	}
	challenge.Code = string(code)

	return challenge, nil
}
