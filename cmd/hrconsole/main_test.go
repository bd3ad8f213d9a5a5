package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-hr-portal/mockapi"
	"github.com/jrsteele09/go-hr-portal/users"
	fakeuserrepo "github.com/jrsteele09/go-hr-portal/users/repofake"
	"github.com/stretchr/testify/require"
)

type stubConfig struct{}

func (stubConfig) GetListenAddr() string             { return "127.0.0.1:0" }
func (stubConfig) GetJWTSecret() string              { return "console-secret" }
func (stubConfig) GetAccessTokenTTL() time.Duration  { return time.Hour }
func (stubConfig) GetPaymentTokenTTL() time.Duration { return 10 * time.Minute }
func (stubConfig) GetOTPTTL() time.Duration          { return 5 * time.Minute }
func (stubConfig) GetOTPRequestsPerMinute() int      { return 0 }
func (stubConfig) GetSeedAdminPassword() string      { return "Admin1234" }
func (stubConfig) GetSeedEmployeePassword() string   { return "Employee1234" }

type console struct {
	t     *testing.T
	url   string
	state string

	mu  sync.Mutex
	otp string
}

func newConsole(t *testing.T) *console {
	t.Helper()
	c := &console{t: t, state: filepath.Join(t.TempDir(), "state.json")}
	api, err := mockapi.New(stubConfig{},
		mockapi.WithAccountRepo(fakeuserrepo.NewFakeUserRepo()),
		mockapi.WithOTPSink(func(_ users.Principal, code string) {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.otp = code
		}),
	)
	require.NoError(t, err)
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	c.url = srv.URL + mockapi.APIPrefix
	return c
}

// exec runs one invocation, as a separate process would, against the shared state file
func (c *console) exec(args ...string) (string, error) {
	var out, errOut bytes.Buffer
	full := append([]string{"-url", c.url, "-state", c.state, "-no-color"}, args...)
	err := run(context.Background(), full, &out, &errOut)
	return out.String(), err
}

func (c *console) lastOTP() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.otp
}

func TestConsole_SessionPersistsBetweenRuns(t *testing.T) {
	c := newConsole(t)

	_, err := c.exec("whoami")
	require.EqualError(t, err, "not logged in: run hrconsole login")

	out, err := c.exec("login", "-email", mockapi.SeedEmployeeEmail, "-password", "Employee1234")
	require.NoError(t, err)
	require.Contains(t, out, "Logged in as Ada Lovelace (employee)")

	_, err = c.exec("login", "-email", mockapi.SeedEmployeeEmail, "-password", "Employee1234")
	require.EqualError(t, err, "already logged in: run hrconsole logout first")

	out, err = c.exec("whoami")
	require.NoError(t, err)
	require.Contains(t, out, mockapi.SeedEmployeeEmail)
	require.Contains(t, out, "locked")

	out, err = c.exec("logout")
	require.NoError(t, err)
	require.Equal(t, "Logged out\n", out)

	_, err = c.exec("departments")
	require.EqualError(t, err, "not logged in: run hrconsole login")
}

func TestConsole_PayslipUnlock(t *testing.T) {
	c := newConsole(t)
	_, err := c.exec("login", "-email", mockapi.SeedEmployeeEmail, "-password", "Employee1234")
	require.NoError(t, err)

	_, err = c.exec("payslips")
	require.ErrorContains(t, err, "payslips are locked")

	out, err := c.exec("otp", "request")
	require.NoError(t, err)
	require.Contains(t, out, "***0123")

	_, err = c.exec("otp", "verify", "-code", "abc")
	require.EqualError(t, err, "The passcode is incorrect")

	out, err = c.exec("otp", "verify", "-code", c.lastOTP())
	require.NoError(t, err)
	require.Contains(t, out, "Payslips unlocked")

	_, err = c.exec("otp", "request")
	require.EqualError(t, err, "payslips are already unlocked: run hrconsole payslips")

	out, err = c.exec("payslips")
	require.NoError(t, err)
	require.Contains(t, out, "NET PAY")

	// logging out leaves the payslip grant to its own lifecycle
	_, err = c.exec("logout")
	require.NoError(t, err)
	_, err = c.exec("login", "-email", mockapi.SeedEmployeeEmail, "-password", "Employee1234")
	require.NoError(t, err)

	out, err = c.exec("lock")
	require.NoError(t, err)
	require.Equal(t, "Payslips locked\n", out)
	_, err = c.exec("payslips")
	require.ErrorContains(t, err, "payslips are locked")
}

func TestConsole_AdminAndValidation(t *testing.T) {
	c := newConsole(t)
	_, err := c.exec("login", "-admin", "-email", mockapi.SeedAdminEmail, "-password", "Admin1234")
	require.NoError(t, err)

	out, err := c.exec("employees", "-search", "ada")
	require.NoError(t, err)
	require.Contains(t, out, "EMP-0001")
	require.Contains(t, out, "page 1, 1 of 1")

	out, err = c.exec("payroll", "-month", "2024-05")
	require.NoError(t, err)
	require.Contains(t, out, "Ada Lovelace")
	require.Contains(t, out, "5304.00")

	_, err = c.exec("payroll", "-month", "May")
	require.EqualError(t, err, "Validation failed\n  month: Month must be YYYY-MM")

	_, err = c.exec("leave", "review", "-id", "missing", "-status", "approved")
	require.EqualError(t, err, "Leave request not found")

	out, err = c.exec("employees")
	require.NoError(t, err)
	id := firstField(t, out, "EMP-0001")

	out, err = c.exec("employee", "-id", id, "-salary", "5600", "-status", "inactive")
	require.NoError(t, err)
	require.Contains(t, out, "5600.00")
	require.Contains(t, out, "inactive")

	_, err = c.exec("employee", "-id", id, "-salary", "lots")
	require.Error(t, err)
}

func firstField(t *testing.T, out, marker string) string {
	t.Helper()
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, marker) {
			return strings.Fields(line)[0]
		}
	}
	t.Fatalf("no line containing %q in:\n%s", marker, out)
	return ""
}

func TestConsole_Usage(t *testing.T) {
	var out, errOut bytes.Buffer
	err := run(context.Background(), nil, &out, &errOut)
	require.EqualError(t, err, "no command given")
	require.Contains(t, errOut.String(), "payslips")

	c := newConsole(t)
	_, err = c.exec("fly")
	require.EqualError(t, err, `unknown command "fly", run hrconsole -h for a list`)
}

func TestConsole_Prefs(t *testing.T) {
	c := newConsole(t)
	_, err := c.exec("login", "-email", mockapi.SeedEmployeeEmail, "-password", "Employee1234")
	require.NoError(t, err)

	out, err := c.exec("prefs", "-theme", "dark", "-toggle-sidebar")
	require.NoError(t, err)
	require.Contains(t, out, "dark")
	require.Contains(t, out, "closed")

	_, err = c.exec("prefs", "-theme", "neon")
	require.Error(t, err)
}
