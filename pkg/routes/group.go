package routes

import "net/http"

// Group collects the routes sharing a path prefix. Child groups nest under
// their parent's prefix.
type Group struct {
	Prefix   string
	Routes   []Route
	Children []Group
}

// Register flattens the groups onto mux using Go 1.22 method patterns.
func Register(mux *http.ServeMux, groups ...Group) {
	for _, group := range groups {
		registerGroup(mux, "", group)
	}
}

func registerGroup(mux *http.ServeMux, parent string, group Group) {
	prefix := parent + group.Prefix

	for _, route := range group.Routes {
		mux.HandleFunc(route.Method+" "+prefix+route.Pattern, route.Handler)
	}
	for _, child := range group.Children {
		registerGroup(mux, prefix, child)
	}
}
