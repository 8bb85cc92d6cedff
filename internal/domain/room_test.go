package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/domain"
)

func mustParse(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return ts
}

func TestRoomID_SymmetricDerivation(t *testing.T) {
	t.Parallel()

	require.Equal(t, domain.RoomID("courier-7", "customer-3"), domain.RoomID("customer-3", "courier-7"))
	require.Equal(t, "room:a:b", domain.RoomID("b", "a"))
	require.Equal(t, "room:a:b", domain.RoomID("a", "b"))
}

func TestRoomMembers_RoundTrip(t *testing.T) {
	t.Parallel()

	lo, hi, err := domain.RoomMembers(domain.RoomID("zeta", "alpha"))
	require.NoError(t, err)
	require.Equal(t, "alpha", lo)
	require.Equal(t, "zeta", hi)
}

func TestRoomMembers_Malformed(t *testing.T) {
	t.Parallel()

	cases := []string{"", "alpha:zeta", "room:", "room:alpha", "room::zeta"}
	for _, id := range cases {
		_, _, err := domain.RoomMembers(id)
		require.Truef(t, errors.Is(err, apperr.ErrInvalid), "id %q: expected ErrInvalid, got %v", id, err)
	}
}

func TestRoomPeer(t *testing.T) {
	t.Parallel()

	id := domain.RoomID("courier-1", "customer-1")

	peer, err := domain.RoomPeer(id, "courier-1")
	require.NoError(t, err)
	require.Equal(t, "customer-1", peer)

	peer, err = domain.RoomPeer(id, "customer-1")
	require.NoError(t, err)
	require.Equal(t, "courier-1", peer)

	_, err = domain.RoomPeer(id, "stranger")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestOneTimeCode_ExpiredAndExhausted(t *testing.T) {
	t.Parallel()

	c := domain.OneTimeCode{
		ExpiresAt:   mustParse(t, "2026-03-01T12:00:00Z"),
		Attempts:    4,
		MaxAttempts: 5,
	}
	require.False(t, c.Expired(mustParse(t, "2026-03-01T12:00:00Z")))
	require.True(t, c.Expired(mustParse(t, "2026-03-01T12:00:01Z")))
	require.False(t, c.Exhausted())

	c.Attempts++
	require.True(t, c.Exhausted())
}
