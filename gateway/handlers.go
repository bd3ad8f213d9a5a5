package gateway

import (
	"net/http"

	"github.com/jrsteele09/go-hr-portal/storage"
)

// ErrorHandler reacts to a 403 carrying a specific error code. Handlers run
// synchronously before the failing call returns to its caller.
type ErrorHandler func(*APIError)

type registration struct {
	id      uint64
	handler ErrorHandler
}

// RegisterErrorHandler installs h for code, replacing any handler already
// registered for that code. Handlers for different codes never interfere.
// The returned func removes h, and is a no-op once h has been replaced.
func (c *Client) RegisterErrorHandler(code string, h ErrorHandler) (unregister func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextReg++
	id := c.nextReg
	if _, replaced := c.handlers[code]; replaced {
		c.logger.Debug().Str("code", code).Msg("gateway: replacing error handler")
	}
	c.handlers[code] = registration{id: id, handler: h}

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if current, ok := c.handlers[code]; ok && current.id == id {
			delete(c.handlers, code)
		}
	}
}

// HasErrorHandler reports whether a handler is registered for code
func (c *Client) HasErrorHandler(code string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.handlers[code]
	return ok
}

func (c *Client) dispatch(apiErr *APIError) {
	if apiErr.Status != http.StatusForbidden || apiErr.Code == "" {
		return
	}

	c.mu.RLock()
	reg, ok := c.handlers[apiErr.Code]
	c.mu.RUnlock()

	if ok {
		reg.handler(apiErr)
		return
	}
	if apiErr.Code == CodeTokenExpired {
		c.expireWithoutHandler()
	}
}

// expireWithoutHandler is the degraded path for a token expiry that arrives
// before the session store has registered itself: drop the persisted token
// and the default Authorization header.
func (c *Client) expireWithoutHandler() {
	c.logger.Warn().Str("code", CodeTokenExpired).Msg("gateway: token expired with no handler registered, clearing stored token")

	if c.storage != nil {
		if err := c.storage.Remove(storage.KeyToken); err != nil {
			c.logger.Err(err).Msg("gateway: failed to remove stored token")
		}
	}
	c.SetDefaultAuthorization("")
}
