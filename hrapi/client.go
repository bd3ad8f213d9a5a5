// Package hrapi exposes the backend's endpoints as typed calls over the gateway.
package hrapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jrsteele09/go-hr-portal/gateway"
)

// Endpoint paths, relative to the API base URL
const (
	PathEmployeeLogin     = "/auth/employee/login"
	PathAdminLogin        = "/auth/admin/login"
	PathMe                = "/auth/me"
	PathEmployees         = "/employees"
	PathDepartments       = "/departments"
	PathPositions         = "/positions"
	PathCheckIn           = "/attendance/check-in"
	PathCheckOut          = "/attendance/check-out"
	PathAttendance        = "/attendance"
	PathAttendanceReport  = "/attendance/report"
	PathLeaves            = "/leaves"
	PathPayroll           = "/payroll"
	PathPayslipOTPRequest = "/payslips/otp/request"
	PathPayslipOTPVerify  = "/payslips/otp/verify"
	PathPayslips          = "/payslips"
)

// Gateway is satisfied by *gateway.Client
type Gateway interface {
	Do(ctx context.Context, method, path string, body, out any, opts ...gateway.RequestOption) error
}

// PaymentGrant supplies the payslip credential, e.g. *paymentaccess.Store
type PaymentGrant interface {
	RequestOption() (gateway.RequestOption, error)
}

type Client struct {
	gw  Gateway
	seq *gateway.Sequencer
}

func New(gw Gateway) *Client {
	return &Client{gw: gw, seq: gateway.NewSequencer()}
}

func (c *Client) get(ctx context.Context, path string, out any, opts ...gateway.RequestOption) error {
	return c.gw.Do(ctx, http.MethodGet, path, nil, out, opts...)
}

func (c *Client) post(ctx context.Context, path string, body, out any, opts ...gateway.RequestOption) error {
	return c.gw.Do(ctx, http.MethodPost, path, body, out, opts...)
}

func (o ListOptions) query() gateway.RequestOption {
	q := url.Values{}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Search != "" {
		q.Set("search", o.Search)
	}
	return gateway.WithQuery(q)
}

func itemPath(base, id string) string {
	return base + "/" + url.PathEscape(id)
}
