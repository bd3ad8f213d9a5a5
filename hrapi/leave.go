package hrapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jrsteele09/go-hr-portal/gateway"
)

// ListLeaves returns leave requests, optionally filtered by status
func (c *Client) ListLeaves(ctx context.Context, status LeaveStatus) ([]Leave, error) {
	var out []Leave
	if err := c.get(ctx, PathLeaves, &out, gateway.WithQuery(url.Values{"status": {string(status)}})); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) RequestLeave(ctx context.Context, req LeaveRequest) (*Leave, error) {
	var l Leave
	if err := c.post(ctx, PathLeaves, req, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// ReviewLeave approves or rejects a pending request (admin only)
func (c *Client) ReviewLeave(ctx context.Context, id string, upd LeaveStatusUpdate) (*Leave, error) {
	var l Leave
	if err := c.gw.Do(ctx, http.MethodPatch, itemPath(PathLeaves, id)+"/status", upd, &l); err != nil {
		return nil, err
	}
	return &l, nil
}
