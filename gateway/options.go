package gateway

import (
	"io"
	"net/http"
	"net/url"
)

// RequestOption customises a single request
type RequestOption func(*requestOptions)

type requestOptions struct {
	headers     http.Header
	query       url.Values
	rawBody     io.Reader
	contentType string
}

// WithHeader adds a header to this request only
func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		if o.headers == nil {
			o.headers = make(http.Header)
		}
		o.headers.Add(key, value)
	}
}

// WithPaymentAccessToken attaches the payslip credential
func WithPaymentAccessToken(token string) RequestOption {
	return WithHeader(HeaderPaymentAccessToken, token)
}

// WithQuery sets the query string. Empty values are dropped.
func WithQuery(q url.Values) RequestOption {
	return func(o *requestOptions) {
		for k, vs := range q {
			for _, v := range vs {
				if v == "" {
					continue
				}
				if o.query == nil {
					o.query = make(url.Values)
				}
				o.query.Add(k, v)
			}
		}
	}
}

// WithRawBody sends r as-is with the given content type instead of JSON
// encoding the body argument. Used for multipart uploads.
func WithRawBody(r io.Reader, contentType string) RequestOption {
	return func(o *requestOptions) {
		o.rawBody = r
		o.contentType = contentType
	}
}
