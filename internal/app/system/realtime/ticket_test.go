package realtime

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickets_RoundTrip(t *testing.T) {
	tk, err := NewTickets("a-secret-for-tests", 0)
	require.NoError(t, err)

	token, exp, err := tk.Issue("user-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(DefaultTicketTTL), exp, 2*time.Second)

	uid, err := tk.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", uid)
}

func TestTickets_Expired(t *testing.T) {
	tk, err := NewTickets("a-secret-for-tests", time.Minute)
	require.NoError(t, err)

	base := time.Now()
	tk.now = func() time.Time { return base }
	token, _, err := tk.Issue("user-1")
	require.NoError(t, err)

	tk.now = func() time.Time { return base.Add(2 * time.Minute) }
	_, err = tk.Verify(token)
	assert.True(t, errors.Is(err, ErrInvalidTicket))
}

func TestTickets_WrongSecret(t *testing.T) {
	a, _ := NewTickets("secret-a", 0)
	b, _ := NewTickets("secret-b", 0)

	token, _, err := a.Issue("user-1")
	require.NoError(t, err)
	_, err = b.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidTicket)
}

func TestTickets_WrongAudience(t *testing.T) {
	tk, _ := NewTickets("secret", 0)
	claims := jwt.RegisteredClaims{
		Subject:   "user-1",
		Issuer:    ticketIssuer,
		Audience:  jwt.ClaimStrings{"api"},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = tk.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidTicket)
}

func TestTickets_Garbage(t *testing.T) {
	tk, _ := NewTickets("secret", 0)
	_, err := tk.Verify("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidTicket)
}

func TestNewTickets_EmptySecret(t *testing.T) {
	_, err := NewTickets("", 0)
	assert.Error(t, err)
}
