// Package routes declares route groups that domain handlers expose and a
// registrar that flattens them onto a ServeMux.
package routes

import "net/http"

// Route pairs an HTTP method and path pattern with its handler. The
// pattern is relative to the enclosing group's prefix.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}
