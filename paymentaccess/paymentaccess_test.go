package paymentaccess_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jrsteele09/go-hr-portal/gateway"
	hrerrors "github.com/jrsteele09/go-hr-portal/internal/errors"
	"github.com/jrsteele09/go-hr-portal/paymentaccess"
	"github.com/jrsteele09/go-hr-portal/session"
	"github.com/jrsteele09/go-hr-portal/storage"
	"github.com/jrsteele09/go-hr-portal/storage/storagefake"
	"github.com/jrsteele09/go-hr-portal/users"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestInitialize(t *testing.T) {
	t.Run("no stored grant", func(t *testing.T) {
		s := paymentaccess.New(storagefake.NewFakeStorage(), nil, zerolog.Nop())
		require.Equal(t, paymentaccess.StateChecking, s.State())
		s.Initialize()
		<-s.Ready()
		require.Equal(t, paymentaccess.StateNoGrant, s.State())
		require.False(t, s.HasGrant())
	})

	t.Run("restores stored grant", func(t *testing.T) {
		fs := storagefake.NewFakeStorage().Seed(map[string]string{storage.KeyPaymentAccessToken: "pay-1"})
		s := paymentaccess.New(fs, nil, zerolog.Nop())
		s.Initialize()
		require.Equal(t, paymentaccess.StateGranted, s.State())
		require.Equal(t, "pay-1", s.AccessToken())
	})

	t.Run("read error means no grant", func(t *testing.T) {
		fs := storagefake.NewFakeStorage().Seed(map[string]string{storage.KeyPaymentAccessToken: "pay-1"})
		fs.FailGet(storage.KeyPaymentAccessToken, errors.New("io"))
		s := paymentaccess.New(fs, nil, zerolog.Nop())
		s.Initialize()
		require.Equal(t, paymentaccess.StateNoGrant, s.State())
	})
}

func TestSetAndClear(t *testing.T) {
	fs := storagefake.NewFakeStorage()
	s := paymentaccess.New(fs, nil, zerolog.Nop())
	s.Initialize()

	var states []paymentaccess.State
	s.Subscribe(func(st paymentaccess.State) { states = append(states, st) })

	require.ErrorIs(t, s.SetAccessToken(""), hrerrors.ErrInvalidToken)
	require.NoError(t, s.SetAccessToken("pay-1"))
	require.True(t, s.HasGrant())
	require.Equal(t, "pay-1", fs.Value(storage.KeyPaymentAccessToken))

	opt, err := s.RequestOption()
	require.NoError(t, err)
	require.NotNil(t, opt)

	s.ClearAccessToken()
	s.ClearAccessToken()
	require.Equal(t, paymentaccess.StateNoGrant, s.State())
	require.False(t, fs.Has(storage.KeyPaymentAccessToken))

	_, err = s.RequestOption()
	require.ErrorIs(t, err, hrerrors.ErrNoPaymentAccess)

	require.Equal(t, []paymentaccess.State{paymentaccess.StateGranted, paymentaccess.StateNoGrant}, states)
}

func TestSetAccessToken_PersistFailure(t *testing.T) {
	fs := storagefake.NewFakeStorage()
	fs.FailSet(storage.KeyPaymentAccessToken, errors.New("disk full"))
	s := paymentaccess.New(fs, nil, zerolog.Nop())
	s.Initialize()

	require.ErrorIs(t, s.SetAccessToken("pay-1"), hrerrors.ErrPersist)
	require.False(t, s.HasGrant())
	require.Equal(t, paymentaccess.StateNoGrant, s.State())
}

// An invalid payment grant clears only the grant, never the session, and a
// session expiry clears only the session.
func TestIndependentClearing(t *testing.T) {
	var code atomic.Value
	code.Store(gateway.CodeInvalidPaymentAccessToken)
	fs := storagefake.NewFakeStorage()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"denied","error":{"code":"` + code.Load().(string) + `"}}`))
	}))
	defer srv.Close()

	gw, err := gateway.New(srv.URL, gateway.WithStorage(fs))
	require.NoError(t, err)

	sess := session.New(fs, gw, zerolog.Nop())
	pay := paymentaccess.New(fs, gw, zerolog.Nop())
	defer sess.Close()
	defer pay.Close()
	sess.Initialize()
	pay.Initialize()

	require.NoError(t, sess.Login(&users.Principal{ID: "1", Role: users.RoleEmployee}, "tok"))
	require.NoError(t, pay.SetAccessToken("pay-1"))

	opt, err := pay.RequestOption()
	require.NoError(t, err)
	err = gw.Get(context.Background(), "/payslips", nil, opt)
	require.True(t, gateway.IsCode(err, gateway.CodeInvalidPaymentAccessToken))

	require.False(t, pay.HasGrant())
	require.False(t, fs.Has(storage.KeyPaymentAccessToken))
	require.True(t, sess.IsAuthenticated())
	require.Equal(t, "tok", fs.Value(storage.KeyToken))

	// now the other way round
	require.NoError(t, pay.SetAccessToken("pay-2"))
	code.Store(gateway.CodeTokenExpired)
	_ = gw.Get(context.Background(), "/employees", nil)

	require.False(t, sess.IsAuthenticated())
	require.True(t, pay.HasGrant())
	require.Equal(t, paymentaccess.StateGranted, pay.State())
}

// A rejection of a grant that was re-issued while the request was in flight
// must not clear the new grant.
func TestRejectionOfReplacedGrantIsIgnored(t *testing.T) {
	fs := storagefake.NewFakeStorage()
	arrived := make(chan string, 1)
	release := make(chan struct{})
	releaseOnce := sync.OnceFunc(func() { close(release) })

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		arrived <- r.Header.Get(gateway.HeaderPaymentAccessToken)
		<-release
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"denied","error":{"code":"INVALID_PAYMENT_ACCESS_TOKEN"}}`))
	}))
	defer srv.Close()
	defer releaseOnce()

	gw, err := gateway.New(srv.URL, gateway.WithStorage(fs))
	require.NoError(t, err)

	s := paymentaccess.New(fs, gw, zerolog.Nop())
	defer s.Close()
	s.Initialize()
	require.NoError(t, s.SetAccessToken("pay-old"))

	opt, err := s.RequestOption()
	require.NoError(t, err)
	errc := make(chan error, 1)
	go func() {
		errc <- gw.Get(context.Background(), "/payslips", nil, opt)
	}()

	require.Equal(t, "pay-old", <-arrived)
	require.NoError(t, s.SetAccessToken("pay-fresh"))
	releaseOnce()

	err = <-errc
	require.True(t, gateway.IsCode(err, gateway.CodeInvalidPaymentAccessToken))
	require.True(t, s.HasGrant())
	require.Equal(t, paymentaccess.StateGranted, s.State())
	require.Equal(t, "pay-fresh", s.AccessToken())
	require.Equal(t, "pay-fresh", fs.Value(storage.KeyPaymentAccessToken))

	// the same rejection for the grant now held does clear it
	opt, err = s.RequestOption()
	require.NoError(t, err)
	go func() {
		errc <- gw.Get(context.Background(), "/payslips", nil, opt)
	}()
	require.Equal(t, "pay-fresh", <-arrived)
	require.True(t, gateway.IsCode(<-errc, gateway.CodeInvalidPaymentAccessToken))
	require.False(t, s.HasGrant())
	require.False(t, fs.Has(storage.KeyPaymentAccessToken))
}

func TestClose_UnregistersHandler(t *testing.T) {
	gw, err := gateway.New("http://localhost")
	require.NoError(t, err)

	s := paymentaccess.New(storagefake.NewFakeStorage(), gw, zerolog.Nop())
	s.Initialize()
	require.True(t, gw.HasErrorHandler(gateway.CodeInvalidPaymentAccessToken))
	s.Close()
	s.Close()
	require.False(t, gw.HasErrorHandler(gateway.CodeInvalidPaymentAccessToken))
}
