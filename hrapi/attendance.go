package hrapi

import (
	"context"
	"net/url"

	"github.com/jrsteele09/go-hr-portal/gateway"
)

func (c *Client) CheckIn(ctx context.Context) (*Attendance, error) {
	var a Attendance
	if err := c.post(ctx, PathCheckIn, struct{}{}, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) CheckOut(ctx context.Context) (*Attendance, error) {
	var a Attendance
	if err := c.post(ctx, PathCheckOut, struct{}{}, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// ListAttendance returns records for month ("2006-01"). Admins may filter by
// employeeID; employees always get their own records.
func (c *Client) ListAttendance(ctx context.Context, month, employeeID string) ([]Attendance, error) {
	var out []Attendance
	q := url.Values{"month": {month}, "employee_id": {employeeID}}
	if err := c.get(ctx, PathAttendance, &out, gateway.WithQuery(q)); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AttendanceReport(ctx context.Context, month string) ([]AttendanceReport, error) {
	var out []AttendanceReport
	if err := c.get(ctx, PathAttendanceReport, &out, gateway.WithQuery(url.Values{"month": {month}})); err != nil {
		return nil, err
	}
	return out, nil
}
