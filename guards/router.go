package guards

import (
	"path"
	"strings"

	"github.com/jrsteele09/go-hr-portal/paymentaccess"
	"github.com/jrsteele09/go-hr-portal/session"
)

// RouteKind classifies a route by the guard protecting it
type RouteKind int

const (
	KindAuthenticated RouteKind = iota
	KindGuest
	KindPaymentRequired
	KindPaymentForbidden
)

// SessionStateReader is satisfied by *session.Store
type SessionStateReader interface {
	State() session.State
}

// PaymentStateReader is satisfied by *paymentaccess.Store
type PaymentStateReader interface {
	State() paymentaccess.State
}

// DefaultRoutes classifies every client route. Paths not listed are treated
// as authenticated-only.
var DefaultRoutes = map[string]RouteKind{
	RouteLogin:         KindGuest,
	RouteAdminLogin:    KindGuest,
	RouteHome:          KindAuthenticated,
	RouteDashboard:     KindAuthenticated,
	RouteEmployees:     KindAuthenticated,
	RouteDepartments:   KindAuthenticated,
	RoutePositions:     KindAuthenticated,
	RouteAttendance:    KindAuthenticated,
	RouteLeave:         KindAuthenticated,
	RoutePayroll:       KindAuthenticated,
	RouteProfile:       KindAuthenticated,
	RouteSettings:      KindAuthenticated,
	RoutePayslip:       KindPaymentRequired,
	RoutePayslipVerify: KindPaymentForbidden,
}

// Router evaluates guards for client paths against live store state.
type Router struct {
	session SessionStateReader
	payment PaymentStateReader
	routes  map[string]RouteKind
}

// NewRouter uses DefaultRoutes when routes is nil
func NewRouter(sess SessionStateReader, pay PaymentStateReader, routes map[string]RouteKind) *Router {
	if routes == nil {
		routes = DefaultRoutes
	}
	return &Router{session: sess, payment: pay, routes: routes}
}

// Kind returns the classification of p. A path inherits the kind of its
// nearest classified parent, so "/employees/7" is guarded like "/employees".
func (r *Router) Kind(p string) RouteKind {
	p = path.Clean("/" + strings.TrimSpace(p))
	for {
		if kind, ok := r.routes[p]; ok {
			return kind
		}
		if p == "/" {
			return KindAuthenticated
		}
		p = path.Dir(p)
	}
}

// Evaluate returns the navigation decision for p. Payslip routes sit behind
// the session guard, so an anonymous visitor is sent to login before any
// payment grant is considered.
func (r *Router) Evaluate(p string) Decision {
	switch r.Kind(p) {
	case KindGuest:
		return GuestOnly(r.session.State())
	case KindPaymentRequired:
		if d := RequireAuth(r.session.State()); d.Outcome != Allow {
			return d
		}
		return RequirePaymentGrant(r.payment.State())
	case KindPaymentForbidden:
		if d := RequireAuth(r.session.State()); d.Outcome != Allow {
			return d
		}
		return ForbidPaymentGrant(r.payment.State())
	default:
		return RequireAuth(r.session.State())
	}
}
