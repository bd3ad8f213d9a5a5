package mockapi_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-hr-portal/gateway"
	"github.com/jrsteele09/go-hr-portal/guards"
	"github.com/jrsteele09/go-hr-portal/hrapi"
	hrerrors "github.com/jrsteele09/go-hr-portal/internal/errors"
	"github.com/jrsteele09/go-hr-portal/internal/utils"
	"github.com/jrsteele09/go-hr-portal/mockapi"
	"github.com/jrsteele09/go-hr-portal/paymentaccess"
	"github.com/jrsteele09/go-hr-portal/session"
	"github.com/jrsteele09/go-hr-portal/storage"
	"github.com/jrsteele09/go-hr-portal/storage/storagefake"
	"github.com/jrsteele09/go-hr-portal/users"
	fakeuserrepo "github.com/jrsteele09/go-hr-portal/users/repofake"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const (
	adminPassword    = "Admin1234"
	employeePassword = "Employee1234"
)

type testConfig struct {
	otpPerMinute int
}

func (testConfig) GetListenAddr() string             { return "127.0.0.1:0" }
func (testConfig) GetJWTSecret() string              { return "test-secret" }
func (testConfig) GetAccessTokenTTL() time.Duration  { return time.Hour }
func (testConfig) GetPaymentTokenTTL() time.Duration { return 10 * time.Minute }
func (testConfig) GetOTPTTL() time.Duration          { return 5 * time.Minute }
func (c testConfig) GetOTPRequestsPerMinute() int    { return c.otpPerMinute }
func (testConfig) GetSeedAdminPassword() string      { return adminPassword }
func (testConfig) GetSeedEmployeePassword() string   { return employeePassword }

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// client is one portal process talking to the stub
type client struct {
	storage *storagefake.FakeStorage
	gw      *gateway.Client
	session *session.Store
	payment *paymentaccess.Store
	router  *guards.Router
	hr      *hrapi.Client
}

type testEnv struct {
	srv   *httptest.Server
	clock *fakeClock

	mu   sync.Mutex
	otps map[string]string // email -> last issued code
}

func newTestEnv(t *testing.T, cfg testConfig) *testEnv {
	t.Helper()
	env := &testEnv{
		clock: &fakeClock{now: time.Date(2024, 5, 15, 8, 30, 0, 0, time.UTC)},
		otps:  make(map[string]string),
	}

	api, err := mockapi.New(cfg,
		mockapi.WithAccountRepo(fakeuserrepo.NewFakeUserRepo()),
		mockapi.WithClock(env.clock.Now),
		mockapi.WithOTPSink(func(p users.Principal, code string) {
			env.mu.Lock()
			defer env.mu.Unlock()
			env.otps[p.Email] = code
		}),
	)
	require.NoError(t, err)

	env.srv = httptest.NewServer(api)
	t.Cleanup(env.srv.Close)
	return env
}

func (env *testEnv) lastOTP(email string) string {
	env.mu.Lock()
	defer env.mu.Unlock()
	return env.otps[email]
}

func (env *testEnv) newClient(t *testing.T) *client {
	t.Helper()
	fs := storagefake.NewFakeStorage()
	gw, err := gateway.New(env.srv.URL+mockapi.APIPrefix, gateway.WithStorage(fs))
	require.NoError(t, err)

	c := &client{
		storage: fs,
		gw:      gw,
		session: session.New(fs, gw, zerolog.Nop()),
		payment: paymentaccess.New(fs, gw, zerolog.Nop()),
		hr:      hrapi.New(gw),
	}
	c.router = guards.NewRouter(c.session, c.payment, nil)
	c.session.Initialize()
	c.payment.Initialize()
	t.Cleanup(c.session.Close)
	t.Cleanup(c.payment.Close)
	return c
}

func (c *client) login(t *testing.T, role users.RoleType, email, password string) {
	t.Helper()
	res, err := c.hr.Login(context.Background(), role, hrapi.Credentials{Email: email, Password: password})
	require.NoError(t, err)
	require.NoError(t, c.session.Login(res.User, res.Token))
}

func (c *client) unlockPayslips(t *testing.T, env *testEnv, email string) {
	t.Helper()
	ctx := context.Background()
	_, err := c.hr.RequestPayslipOTP(ctx)
	require.NoError(t, err)
	access, err := c.hr.VerifyPayslipOTP(ctx, env.lastOTP(email))
	require.NoError(t, err)
	require.NoError(t, c.payment.SetAccessToken(access.PaymentAccessToken))
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t, testConfig{})
	ctx := context.Background()

	t.Run("employee", func(t *testing.T) {
		c := env.newClient(t)
		require.Equal(t, guards.Decision{Outcome: guards.Redirect, RedirectTo: guards.RouteLogin}, c.router.Evaluate(guards.RouteDashboard))

		c.login(t, users.RoleEmployee, mockapi.SeedEmployeeEmail, employeePassword)
		require.Equal(t, guards.Allow, c.router.Evaluate(guards.RouteDashboard).Outcome)
		require.Equal(t, guards.RouteHome, c.router.Evaluate(guards.RouteLogin).RedirectTo)

		me, err := c.hr.Me(ctx)
		require.NoError(t, err)
		require.Equal(t, mockapi.SeedEmployeeEmail, me.Email)
		require.Equal(t, users.RoleEmployee, me.Role)
		require.NotEmpty(t, me.EmployeeID)
		require.Equal(t, c.session.Principal().ID, me.ID)
	})

	t.Run("admin", func(t *testing.T) {
		c := env.newClient(t)
		c.login(t, users.RoleAdmin, mockapi.SeedAdminEmail, adminPassword)
		require.True(t, c.session.Principal().IsAdmin())
	})

	t.Run("wrong password", func(t *testing.T) {
		c := env.newClient(t)
		_, err := c.hr.Login(ctx, users.RoleEmployee, hrapi.Credentials{Email: mockapi.SeedEmployeeEmail, Password: "nope"})
		require.Equal(t, http.StatusUnauthorized, gateway.StatusOf(err))
		require.True(t, gateway.IsCode(err, mockapi.CodeInvalidCredentials))
	})

	t.Run("wrong portal", func(t *testing.T) {
		c := env.newClient(t)
		_, err := c.hr.Login(ctx, users.RoleAdmin, hrapi.Credentials{Email: mockapi.SeedEmployeeEmail, Password: employeePassword})
		require.True(t, gateway.IsCode(err, mockapi.CodeInvalidCredentials))
	})

	t.Run("unauthenticated request", func(t *testing.T) {
		c := env.newClient(t)
		_, err := c.hr.ListDepartments(ctx)
		require.Equal(t, http.StatusUnauthorized, gateway.StatusOf(err))
	})
}

func TestTokenExpiryClearsSession(t *testing.T) {
	env := newTestEnv(t, testConfig{})
	c := env.newClient(t)
	c.login(t, users.RoleEmployee, mockapi.SeedEmployeeEmail, employeePassword)
	c.unlockPayslips(t, env, mockapi.SeedEmployeeEmail)

	var states []session.State
	c.session.Subscribe(func(s session.State) { states = append(states, s) })

	env.clock.Advance(2 * time.Hour)
	_, err := c.hr.ListDepartments(context.Background())
	require.True(t, gateway.IsCode(err, gateway.CodeTokenExpired))

	require.False(t, c.session.IsAuthenticated())
	require.False(t, c.storage.Has(storage.KeyToken))
	require.False(t, c.storage.Has(storage.KeyUser))
	require.Equal(t, []session.State{session.StateUnauthenticated}, states)
	require.Equal(t, guards.RouteLogin, c.router.Evaluate(guards.RouteEmployees).RedirectTo)

	// the payment grant has its own lifecycle
	require.True(t, c.payment.HasGrant())
}

func TestPayslipFlow(t *testing.T) {
	env := newTestEnv(t, testConfig{})
	ctx := context.Background()
	c := env.newClient(t)
	c.login(t, users.RoleEmployee, mockapi.SeedEmployeeEmail, employeePassword)

	require.Equal(t, guards.RoutePayslipVerify, c.router.Evaluate(guards.RoutePayslip).RedirectTo)
	require.Equal(t, guards.Allow, c.router.Evaluate(guards.RoutePayslipVerify).Outcome)

	_, err := c.hr.ListPayslips(ctx, c.payment)
	require.ErrorIs(t, err, hrerrors.ErrNoPaymentAccess)

	challenge, err := c.hr.RequestPayslipOTP(ctx)
	require.NoError(t, err)
	require.Equal(t, "***0123", challenge.Destination)
	require.True(t, env.clock.Now().Add(5*time.Minute).Equal(challenge.ExpiresAt))

	code := env.lastOTP(mockapi.SeedEmployeeEmail)
	require.Len(t, code, 6)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	_, err = c.hr.VerifyPayslipOTP(ctx, wrong)
	require.True(t, gateway.IsCode(err, mockapi.CodeOTPInvalid))
	require.True(t, c.session.IsAuthenticated(), "a wrong code is not a session failure")

	access, err := c.hr.VerifyPayslipOTP(ctx, code)
	require.NoError(t, err)
	require.NoError(t, c.payment.SetAccessToken(access.PaymentAccessToken))
	require.Equal(t, guards.Allow, c.router.Evaluate(guards.RoutePayslip).Outcome)
	require.Equal(t, guards.RoutePayslip, c.router.Evaluate(guards.RoutePayslipVerify).RedirectTo)

	_, err = c.hr.VerifyPayslipOTP(ctx, code)
	require.True(t, gateway.IsCode(err, mockapi.CodeOTPNotRequested), "codes are single use")

	slips, err := c.hr.ListPayslips(ctx, c.payment)
	require.NoError(t, err)
	require.Len(t, slips, 3)
	require.Equal(t, "2024-04", slips[0].Month)
	require.Equal(t, c.session.Principal().EmployeeID, slips[0].EmployeeID)

	slip, err := c.hr.GetPayslip(ctx, c.payment, slips[1].ID)
	require.NoError(t, err)
	require.Equal(t, slips[1], *slip)

	// the grant outlives neither its TTL nor the backend's say-so
	env.clock.Advance(11 * time.Minute)
	_, err = c.hr.ListPayslips(ctx, c.payment)
	require.True(t, gateway.IsCode(err, gateway.CodeInvalidPaymentAccessToken))

	require.False(t, c.payment.HasGrant())
	require.False(t, c.storage.Has(storage.KeyPaymentAccessToken))
	require.True(t, c.session.IsAuthenticated())
	require.Equal(t, guards.RoutePayslipVerify, c.router.Evaluate(guards.RoutePayslip).RedirectTo)
}

func TestPayslipsRejectForeignGrant(t *testing.T) {
	env := newTestEnv(t, testConfig{})
	ctx := context.Background()

	employee := env.newClient(t)
	employee.login(t, users.RoleEmployee, mockapi.SeedEmployeeEmail, employeePassword)
	employee.unlockPayslips(t, env, mockapi.SeedEmployeeEmail)

	admin := env.newClient(t)
	admin.login(t, users.RoleAdmin, mockapi.SeedAdminEmail, adminPassword)
	require.NoError(t, admin.payment.SetAccessToken(employee.payment.AccessToken()))

	_, err := admin.hr.ListPayslips(ctx, admin.payment)
	require.True(t, gateway.IsCode(err, gateway.CodeInvalidPaymentAccessToken))
	require.False(t, admin.payment.HasGrant())
	require.True(t, employee.payment.HasGrant())
}

func TestOTPThrottle(t *testing.T) {
	env := newTestEnv(t, testConfig{otpPerMinute: 1})
	ctx := context.Background()
	c := env.newClient(t)
	c.login(t, users.RoleEmployee, mockapi.SeedEmployeeEmail, employeePassword)

	_, err := c.hr.RequestPayslipOTP(ctx)
	require.NoError(t, err)
	_, err = c.hr.RequestPayslipOTP(ctx)
	require.Equal(t, http.StatusTooManyRequests, gateway.StatusOf(err))
	require.True(t, gateway.IsCode(err, mockapi.CodeTooManyRequests))

	env.clock.Advance(time.Minute)
	_, err = c.hr.RequestPayslipOTP(ctx)
	require.NoError(t, err)
}

func TestAdminManagement(t *testing.T) {
	env := newTestEnv(t, testConfig{})
	ctx := context.Background()
	admin := env.newClient(t)
	admin.login(t, users.RoleAdmin, mockapi.SeedAdminEmail, adminPassword)

	depts, err := admin.hr.ListDepartments(ctx)
	require.NoError(t, err)
	require.Len(t, depts, 2)
	positions, err := admin.hr.ListPositions(ctx)
	require.NoError(t, err)
	require.Len(t, positions, 2)

	page, err := admin.hr.ListEmployees(ctx, hrapi.ListOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	require.Equal(t, "EMP-0001", page.Items[0].EmployeeCode)

	_, err = admin.hr.CreateEmployee(ctx, hrapi.EmployeeInput{Name: "", Email: "bad", Password: "short"})
	var apiErr *gateway.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	require.Equal(t, mockapi.CodeValidation, apiErr.Code)
	require.Contains(t, string(apiErr.Details), "password")

	grace, err := admin.hr.CreateEmployee(ctx, hrapi.EmployeeInput{
		Name:         "Grace Hopper",
		Email:        "grace@hr.local",
		Password:     "Cobol1959",
		DepartmentID: depts[0].ID,
		BaseSalary:   6100,
	})
	require.NoError(t, err)
	require.Equal(t, "EMP-0002", grace.EmployeeCode)

	_, err = admin.hr.CreateEmployee(ctx, hrapi.EmployeeInput{Name: "Dup", Email: "grace@hr.local", Password: "Cobol1959"})
	require.Equal(t, http.StatusConflict, gateway.StatusOf(err))

	page, err = admin.hr.ListEmployees(ctx, hrapi.ListOptions{Search: "grace", Limit: 5})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	require.Equal(t, 5, page.Limit)

	updated, err := admin.hr.UpdateEmployee(ctx, grace.ID, hrapi.EmployeeUpdate{BaseSalary: utils.Ptr(6500.0)})
	require.NoError(t, err)
	require.Equal(t, 6500.0, updated.BaseSalary)
	require.Equal(t, "Grace Hopper", updated.Name)

	payroll, err := admin.hr.ListPayroll(ctx, "2024-05")
	require.NoError(t, err)
	require.Len(t, payroll, 2)
	require.Equal(t, 6500.0+650.0-520.0, payroll[1].NetPay)

	err = admin.hr.DeleteDepartment(ctx, depts[0].ID)
	require.Equal(t, http.StatusConflict, gateway.StatusOf(err))

	dept, err := admin.hr.CreateDepartment(ctx, hrapi.Department{Name: "Finance"})
	require.NoError(t, err)
	require.NoError(t, admin.hr.DeleteDepartment(ctx, dept.ID))

	// the new employee can log in with the password the admin set
	grc := env.newClient(t)
	grc.login(t, users.RoleEmployee, "grace@hr.local", "Cobol1959")

	require.NoError(t, admin.hr.DeleteEmployee(ctx, grace.ID))
	_, err = admin.hr.GetEmployee(ctx, grace.ID)
	require.Equal(t, http.StatusNotFound, gateway.StatusOf(err))

	_, err = grc.hr.Login(ctx, users.RoleEmployee, hrapi.Credentials{Email: "grace@hr.local", Password: "Cobol1959"})
	require.True(t, gateway.IsCode(err, mockapi.CodeAccountBlocked))
}

func TestEmployeeForbiddenFromAdminRoutes(t *testing.T) {
	env := newTestEnv(t, testConfig{})
	ctx := context.Background()
	c := env.newClient(t)
	c.login(t, users.RoleEmployee, mockapi.SeedEmployeeEmail, employeePassword)

	_, err := c.hr.ListEmployees(ctx, hrapi.ListOptions{})
	require.Equal(t, http.StatusForbidden, gateway.StatusOf(err))
	require.True(t, gateway.IsCode(err, mockapi.CodeForbidden))

	// a 403 with an unrelated code never touches the stores
	require.True(t, c.session.IsAuthenticated())

	own, err := c.hr.GetEmployee(ctx, c.session.Principal().EmployeeID)
	require.NoError(t, err)
	require.Equal(t, "Ada Lovelace", own.Name)
}

func TestAttendanceAndLeave(t *testing.T) {
	env := newTestEnv(t, testConfig{})
	ctx := context.Background()
	emp := env.newClient(t)
	emp.login(t, users.RoleEmployee, mockapi.SeedEmployeeEmail, employeePassword)
	admin := env.newClient(t)
	admin.login(t, users.RoleAdmin, mockapi.SeedAdminEmail, adminPassword)

	in, err := emp.hr.CheckIn(ctx)
	require.NoError(t, err)
	require.Equal(t, hrapi.AttendancePresent, in.Status)
	require.Equal(t, "2024-05-15", in.Date)

	_, err = emp.hr.CheckIn(ctx)
	require.Equal(t, http.StatusConflict, gateway.StatusOf(err))

	env.clock.Advance(8 * time.Hour)
	out, err := emp.hr.CheckOut(ctx)
	require.NoError(t, err)
	require.NotNil(t, out.CheckOut)

	records, err := emp.hr.ListAttendance(ctx, "2024-05", "")
	require.NoError(t, err)
	require.Len(t, records, 1)

	report, err := admin.hr.AttendanceReport(ctx, "2024-05")
	require.NoError(t, err)
	require.Len(t, report, 1)
	require.Equal(t, 1, report[0].PresentDays)
	require.Equal(t, 8.0, report[0].TotalHours)

	_, err = emp.hr.RequestLeave(ctx, hrapi.LeaveRequest{Type: "holiday", StartDate: "2024-06-10", EndDate: "2024-06-01"})
	var apiErr *gateway.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	require.JSONEq(t, `{"type":"Leave type must be annual, sick or unpaid","end_date":"End date cannot be before start date"}`, string(apiErr.Details))

	leave, err := emp.hr.RequestLeave(ctx, hrapi.LeaveRequest{Type: hrapi.LeaveAnnual, StartDate: "2024-06-03", EndDate: "2024-06-07", Reason: "Holiday"})
	require.NoError(t, err)
	require.Equal(t, hrapi.LeavePending, leave.Status)

	pending, err := admin.hr.ListLeaves(ctx, hrapi.LeavePending)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	_, err = emp.hr.ReviewLeave(ctx, leave.ID, hrapi.LeaveStatusUpdate{Status: hrapi.LeaveApproved})
	require.Equal(t, http.StatusForbidden, gateway.StatusOf(err))

	reviewed, err := admin.hr.ReviewLeave(ctx, leave.ID, hrapi.LeaveStatusUpdate{Status: hrapi.LeaveApproved, Note: "Enjoy"})
	require.NoError(t, err)
	require.Equal(t, hrapi.LeaveApproved, reviewed.Status)
	require.Equal(t, admin.session.Principal().ID, reviewed.ReviewedBy)

	_, err = admin.hr.ReviewLeave(ctx, leave.ID, hrapi.LeaveStatusUpdate{Status: hrapi.LeaveRejected})
	require.Equal(t, http.StatusConflict, gateway.StatusOf(err))

	mine, err := emp.hr.ListLeaves(ctx, "")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, hrapi.LeaveApproved, mine[0].Status)
}

func TestUnknownRouteAndMetrics(t *testing.T) {
	env := newTestEnv(t, testConfig{})

	resp, err := http.Get(env.srv.URL + "/api/nope")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.JSONEq(t, `{"success":false,"message":"Route not found","error":{"code":"NOT_FOUND"}}`, string(body))

	resp, err = http.Get(env.srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), "mockapi_http_requests_total")
}
