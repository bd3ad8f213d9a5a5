package hrapi

import (
	"context"
	"net/url"

	"github.com/jrsteele09/go-hr-portal/gateway"
)

func (c *Client) ListPayroll(ctx context.Context, month string) ([]PayrollRow, error) {
	var out []PayrollRow
	if err := c.get(ctx, PathPayroll, &out, gateway.WithQuery(url.Values{"month": {month}})); err != nil {
		return nil, err
	}
	return out, nil
}

// RequestPayslipOTP asks the backend to issue a one-time passcode to the
// current principal.
func (c *Client) RequestPayslipOTP(ctx context.Context) (*OTPChallenge, error) {
	var ch OTPChallenge
	if err := c.post(ctx, PathPayslipOTPRequest, struct{}{}, &ch); err != nil {
		return nil, err
	}
	return &ch, nil
}

// VerifyPayslipOTP exchanges the passcode for a payment access grant.
// Store the returned token with paymentaccess.Store.SetAccessToken.
func (c *Client) VerifyPayslipOTP(ctx context.Context, code string) (*PaymentAccess, error) {
	var pa PaymentAccess
	if err := c.post(ctx, PathPayslipOTPVerify, map[string]string{"otp": code}, &pa); err != nil {
		return nil, err
	}
	return &pa, nil
}

func (c *Client) ListPayslips(ctx context.Context, grant PaymentGrant) ([]Payslip, error) {
	opt, err := grant.RequestOption()
	if err != nil {
		return nil, err
	}
	var out []Payslip
	if err := c.get(ctx, PathPayslips, &out, opt); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetPayslip(ctx context.Context, grant PaymentGrant, id string) (*Payslip, error) {
	opt, err := grant.RequestOption()
	if err != nil {
		return nil, err
	}
	var p Payslip
	if err := c.get(ctx, itemPath(PathPayslips, id), &p, opt); err != nil {
		return nil, err
	}
	return &p, nil
}
