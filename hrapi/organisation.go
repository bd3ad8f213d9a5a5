package hrapi

import (
	"context"
	"net/http"

	hrerrors "github.com/jrsteele09/go-hr-portal/internal/errors"
)

func (c *Client) ListEmployees(ctx context.Context, opts ListOptions) (*Page[Employee], error) {
	var page Page[Employee]
	if err := c.get(ctx, PathEmployees, &page, opts.query()); err != nil {
		return nil, err
	}
	return &page, nil
}

// SearchEmployees is ListEmployees for type-ahead callers. If another search
// starts before this one's reply arrives, the reply is discarded and
// ErrSuperseded returned.
func (c *Client) SearchEmployees(ctx context.Context, opts ListOptions) (*Page[Employee], error) {
	ticket := c.seq.Next(PathEmployees)
	page, err := c.ListEmployees(ctx, opts)
	if !c.seq.IsLatest(ticket) {
		return nil, hrerrors.Wrapf(hrerrors.ErrSuperseded, "[hrapi SearchEmployees] search %q", opts.Search)
	}
	return page, err
}

func (c *Client) GetEmployee(ctx context.Context, id string) (*Employee, error) {
	var e Employee
	if err := c.get(ctx, itemPath(PathEmployees, id), &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (c *Client) CreateEmployee(ctx context.Context, in EmployeeInput) (*Employee, error) {
	var e Employee
	if err := c.post(ctx, PathEmployees, in, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (c *Client) UpdateEmployee(ctx context.Context, id string, upd EmployeeUpdate) (*Employee, error) {
	var e Employee
	if err := c.gw.Do(ctx, http.MethodPut, itemPath(PathEmployees, id), upd, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (c *Client) DeleteEmployee(ctx context.Context, id string) error {
	return c.gw.Do(ctx, http.MethodDelete, itemPath(PathEmployees, id), nil, nil)
}

func (c *Client) ListDepartments(ctx context.Context) ([]Department, error) {
	var out []Department
	if err := c.get(ctx, PathDepartments, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateDepartment(ctx context.Context, d Department) (*Department, error) {
	var out Department
	if err := c.post(ctx, PathDepartments, d, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateDepartment(ctx context.Context, d Department) (*Department, error) {
	var out Department
	if err := c.gw.Do(ctx, http.MethodPut, itemPath(PathDepartments, d.ID), d, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteDepartment(ctx context.Context, id string) error {
	return c.gw.Do(ctx, http.MethodDelete, itemPath(PathDepartments, id), nil, nil)
}

func (c *Client) ListPositions(ctx context.Context) ([]Position, error) {
	var out []Position
	if err := c.get(ctx, PathPositions, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreatePosition(ctx context.Context, p Position) (*Position, error) {
	var out Position
	if err := c.post(ctx, PathPositions, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdatePosition(ctx context.Context, p Position) (*Position, error) {
	var out Position
	if err := c.gw.Do(ctx, http.MethodPut, itemPath(PathPositions, p.ID), p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeletePosition(ctx context.Context, id string) error {
	return c.gw.Do(ctx, http.MethodDelete, itemPath(PathPositions, id), nil, nil)
}
