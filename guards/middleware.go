package guards

import (
	"net/http"
	"strconv"
)

// RetryAfterSeconds is advertised while a store is still initialising
const RetryAfterSeconds = 1

// Guard yields the current decision for a request
type Guard func(r *http.Request) Decision

// Middleware enforces guard: Allow runs next, Redirect answers 303 See Other,
// Pending answers 503 with Retry-After.
func Middleware(guard Guard) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			d := guard(r)
			switch d.Outcome {
			case Allow:
				next(w, r)
			case Redirect:
				http.Redirect(w, r, d.RedirectTo, http.StatusSeeOther)
			default:
				w.Header().Set("Retry-After", strconv.Itoa(RetryAfterSeconds))
				http.Error(w, "authentication check in progress", http.StatusServiceUnavailable)
			}
		}
	}
}

// Middleware guards each request by its URL path
func (r *Router) Middleware() func(http.HandlerFunc) http.HandlerFunc {
	return Middleware(func(req *http.Request) Decision {
		return r.Evaluate(req.URL.Path)
	})
}
