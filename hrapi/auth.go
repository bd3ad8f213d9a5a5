package hrapi

import (
	"context"
	"fmt"

	hrerrors "github.com/jrsteele09/go-hr-portal/internal/errors"
	"github.com/jrsteele09/go-hr-portal/users"
)

// Login exchanges credentials at the role's login endpoint. It does not
// touch the session; commit the result with session.Store.Login.
func (c *Client) Login(ctx context.Context, role users.RoleType, creds Credentials) (*LoginResult, error) {
	path := PathEmployeeLogin
	switch role {
	case users.RoleEmployee:
	case users.RoleAdmin:
		path = PathAdminLogin
	default:
		return nil, hrerrors.Join(hrerrors.ErrInvalidArgument, fmt.Errorf("unknown role %q", role))
	}

	var res LoginResult
	if err := c.post(ctx, path, creds, &res); err != nil {
		return nil, err
	}
	if res.Token == "" || res.User.Validate() != nil {
		return nil, hrerrors.Wrapf(hrerrors.ErrProtocolViolation, "[hrapi Login] incomplete login response")
	}
	return &res, nil
}

// Me returns the principal the backend associates with the current token
func (c *Client) Me(ctx context.Context) (*users.Principal, error) {
	var p users.Principal
	if err := c.get(ctx, PathMe, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
