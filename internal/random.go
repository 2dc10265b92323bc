package internal

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"math/big"
)

// TicketID is the raw form of a session ticket identifier.
type TicketID [16]byte

func NewTicketID() (TicketID, error) {
	var tid TicketID
	_, err := rand.Read(tid[:])
	return tid, err
}

func (t TicketID) Bytes() []byte {
	return t[:]
}

func (t TicketID) String() string {
	// base64url, no padding, compact
	return base64.RawURLEncoding.EncodeToString(t[:])
}

func ParseTicketID(ticketID string) (TicketID, error) {
	var tid TicketID

	raw, err := base64.RawURLEncoding.DecodeString(ticketID)
	if err != nil {
		return tid, err
	}
	if len(raw) != len(tid) {
		return tid, errors.New("invalid ticket id size")
	}

	copy(tid[:], raw)
	return tid, nil
}

// NewNumericCode draws a uniformly distributed numeric one-time code of the
// given number of digits, left-padded with zeros.
func NewNumericCode(digits int) (string, error) {
	if digits < 4 || digits > 10 {
		return "", errors.New("invalid code digit count")
	}

	limit := big.NewInt(1)
	for i := 0; i < digits; i++ {
		limit.Mul(limit, big.NewInt(10))
	}

	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}

	code := n.String()
	for len(code) < digits {
		code = "0" + code
	}
	return code, nil
}
