// Package guards decides whether navigation to a route is allowed, must wait
// for a store to finish initialising, or must redirect elsewhere. Decisions
// are pure functions of store state.
package guards

import (
	"fmt"

	"github.com/jrsteele09/go-hr-portal/paymentaccess"
	"github.com/jrsteele09/go-hr-portal/session"
)

type Outcome int

const (
	// Pending means the relevant store is still Checking; render nothing yet
	Pending Outcome = iota
	Allow
	Redirect
)

func (o Outcome) String() string {
	switch o {
	case Pending:
		return "pending"
	case Allow:
		return "allow"
	case Redirect:
		return "redirect"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

type Decision struct {
	Outcome    Outcome
	RedirectTo string // Set only when Outcome is Redirect
}

func (d Decision) String() string {
	if d.Outcome == Redirect {
		return "redirect " + d.RedirectTo
	}
	return d.Outcome.String()
}

func allow() Decision             { return Decision{Outcome: Allow} }
func pending() Decision           { return Decision{Outcome: Pending} }
func redirect(to string) Decision { return Decision{Outcome: Redirect, RedirectTo: to} }

// RequireAuth admits authenticated sessions and sends everyone else to login.
func RequireAuth(s session.State) Decision {
	switch s {
	case session.StateChecking:
		return pending()
	case session.StateAuthenticated:
		return allow()
	default:
		return redirect(RouteLogin)
	}
}

// GuestOnly admits unauthenticated visitors and sends signed-in users home.
func GuestOnly(s session.State) Decision {
	switch s {
	case session.StateChecking:
		return pending()
	case session.StateUnauthenticated:
		return allow()
	default:
		return redirect(RouteHome)
	}
}

// RequirePaymentGrant admits holders of a payment grant and sends everyone
// else to the OTP challenge.
func RequirePaymentGrant(p paymentaccess.State) Decision {
	switch p {
	case paymentaccess.StateChecking:
		return pending()
	case paymentaccess.StateGranted:
		return allow()
	default:
		return redirect(RoutePayslipVerify)
	}
}

// ForbidPaymentGrant skips the OTP challenge when a grant already exists.
func ForbidPaymentGrant(p paymentaccess.State) Decision {
	switch p {
	case paymentaccess.StateChecking:
		return pending()
	case paymentaccess.StateNoGrant:
		return allow()
	default:
		return redirect(RoutePayslip)
	}
}
