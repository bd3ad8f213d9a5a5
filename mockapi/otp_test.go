package mockapi

import (
	"testing"
	"time"

	hrerrors "github.com/jrsteele09/go-hr-portal/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestGenerateOTP(t *testing.T) {
	code, err := generateOTP()
	require.NoError(t, err)
	require.Len(t, code, 6)
	for _, c := range code {
		require.True(t, c >= '0' && c <= '9')
	}
	require.True(t, otpEqual(code, hashOTP(code)))
	require.False(t, otpEqual("xxxxxx", hashOTP(code)))
}

func TestOTPStore(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	t.Run("verify consumes the challenge", func(t *testing.T) {
		s := newOTPStore(5*time.Minute, 0, clock)
		code, exp, err := s.issue("u1")
		require.NoError(t, err)
		require.Equal(t, now.Add(5*time.Minute), exp)

		require.ErrorIs(t, s.verify("u2", code), hrerrors.ErrNotFound)
		require.NoError(t, s.verify("u1", code))
		require.ErrorIs(t, s.verify("u1", code), hrerrors.ErrNotFound)
	})

	t.Run("expiry", func(t *testing.T) {
		local := now
		s := newOTPStore(time.Minute, 0, func() time.Time { return local })
		code, _, err := s.issue("u1")
		require.NoError(t, err)

		local = local.Add(time.Minute)
		require.ErrorIs(t, s.verify("u1", code), hrerrors.ErrOTPExpired)
	})

	t.Run("too many wrong codes", func(t *testing.T) {
		s := newOTPStore(time.Minute, 0, clock)
		code, _, err := s.issue("u1")
		require.NoError(t, err)

		wrong := "000000"
		if code == wrong {
			wrong = "111111"
		}
		for i := 0; i < otpMaxAttempts; i++ {
			require.ErrorIs(t, s.verify("u1", wrong), hrerrors.ErrOTPMismatch)
		}
		require.ErrorIs(t, s.verify("u1", code), hrerrors.ErrNotFound)
	})

	t.Run("issue is throttled per user", func(t *testing.T) {
		s := newOTPStore(time.Minute, 2, clock)
		for i := 0; i < 2; i++ {
			_, _, err := s.issue("u1")
			require.NoError(t, err)
		}
		_, _, err := s.issue("u1")
		require.ErrorIs(t, err, hrerrors.ErrTooManyRequests)

		_, _, err = s.issue("u2")
		require.NoError(t, err)
	})
}
