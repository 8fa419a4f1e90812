//go:build !embed

package frontend

import "net/http"

// Handler is nil without the embed build tag; the server then falls back
// to serving the static directory from disk.
func Handler() http.Handler {
	return nil
}
