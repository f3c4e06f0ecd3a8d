// Package httputil provides HTTP handler utilities for consistent JSON
// responses, request parsing, and the middleware stack shared by the API
// and health servers.
package httputil
