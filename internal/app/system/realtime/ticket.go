// internal/app/system/realtime/ticket.go
package realtime

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	ticketAudience = "realtime"
	ticketIssuer   = "classforge"

	// DefaultTicketTTL is how long a ticket may wait before the socket opens.
	DefaultTicketTTL = 60 * time.Second
)

// ErrInvalidTicket is returned for any ticket that fails verification.
var ErrInvalidTicket = errors.New("invalid realtime ticket")

// Tickets issues and verifies short-lived WebSocket tickets. A ticket lets a
// client that cannot send the session cookie (cross-site WebSocket) prove
// who it is.
type Tickets struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTickets returns a ticket issuer. The secret must be non-empty.
func NewTickets(secret string, ttl time.Duration) (*Tickets, error) {
	if secret == "" {
		return nil, errors.New("realtime ticket secret is empty")
	}
	if ttl <= 0 {
		ttl = DefaultTicketTTL
	}
	return &Tickets{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue returns a signed ticket for userID and its expiry.
func (t *Tickets) Issue(userID string) (string, time.Time, error) {
	now := t.now()
	exp := now.Add(t.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    ticketIssuer,
		Audience:  jwt.ClaimStrings{ticketAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
		ID:        uuid.NewString(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign ticket: %w", err)
	}
	return signed, exp, nil
}

// Verify returns the user id carried by a valid ticket.
func (t *Tickets) Verify(token string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (interface{}, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(ticketAudience),
		jwt.WithIssuer(ticketIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidTicket, err)
	}
	if claims.Subject == "" {
		return "", ErrInvalidTicket
	}
	return claims.Subject, nil
}
