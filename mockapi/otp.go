package mockapi

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"sync"
	"time"

	hrerrors "github.com/jrsteele09/go-hr-portal/internal/errors"
	"golang.org/x/time/rate"
)

const (
	otpDigits      = 6
	otpMaxAttempts = 5
)

// generateOTP returns a random 6-digit code
func generateOTP() (string, error) {
	b := make([]byte, otpDigits)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := make([]byte, otpDigits)
	for i := range s {
		s[i] = '0' + (b[i] % 10)
	}
	return string(s), nil
}

func hashOTP(code string) string {
	h := sha256.Sum256([]byte(code))
	return hex.EncodeToString(h[:])
}

func otpEqual(code, storedHash string) bool {
	return subtle.ConstantTimeCompare([]byte(hashOTP(code)), []byte(storedHash)) == 1
}

type otpChallenge struct {
	hash      string
	expiresAt time.Time
	attempts  int
}

// otpStore keeps at most one outstanding challenge per user. Only the hash
// of a code is kept. Issuing is throttled per user.
type otpStore struct {
	ttl       time.Duration
	perMinute int
	now       func() time.Time

	mu         sync.Mutex
	challenges map[string]*otpChallenge
	limiters   map[string]*rate.Limiter
}

func newOTPStore(ttl time.Duration, perMinute int, now func() time.Time) *otpStore {
	return &otpStore{
		ttl:        ttl,
		perMinute:  perMinute,
		now:        now,
		challenges: make(map[string]*otpChallenge),
		limiters:   make(map[string]*rate.Limiter),
	}
}

// issue creates a new challenge for userID, replacing any outstanding one,
// and returns the plain code for delivery.
func (s *otpStore) issue(userID string) (string, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.limiter(userID).AllowN(s.now(), 1) {
		return "", time.Time{}, hrerrors.ErrTooManyRequests
	}

	code, err := generateOTP()
	if err != nil {
		return "", time.Time{}, err
	}
	exp := s.now().Add(s.ttl)
	s.challenges[userID] = &otpChallenge{hash: hashOTP(code), expiresAt: exp}
	return code, exp, nil
}

// verify consumes the challenge on success. A challenge is dropped once it
// expires or after too many wrong codes.
func (s *otpStore) verify(userID, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.challenges[userID]
	if !ok {
		return hrerrors.ErrNotFound
	}
	if !s.now().Before(ch.expiresAt) {
		delete(s.challenges, userID)
		return hrerrors.ErrOTPExpired
	}
	if !otpEqual(code, ch.hash) {
		ch.attempts++
		if ch.attempts >= otpMaxAttempts {
			delete(s.challenges, userID)
		}
		return hrerrors.ErrOTPMismatch
	}
	delete(s.challenges, userID)
	return nil
}

// limiter allows perMinute issues per minute with an equal burst. A
// non-positive perMinute disables throttling.
func (s *otpStore) limiter(userID string) *rate.Limiter {
	if l, ok := s.limiters[userID]; ok {
		return l
	}
	var l *rate.Limiter
	if s.perMinute <= 0 {
		l = rate.NewLimiter(rate.Inf, 0)
	} else {
		l = rate.NewLimiter(rate.Every(time.Minute/time.Duration(s.perMinute)), s.perMinute)
	}
	s.limiters[userID] = l
	return l
}
