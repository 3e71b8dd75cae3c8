package routes

import "net/http"

// Group nests routes and child groups under a shared prefix.
type Group struct {
	Prefix   string
	Routes   []Route
	Children []Group
}

// Register adds all routes from the given groups to the mux.
func Register(mux *http.ServeMux, groups ...Group) {
	walk(groups, func(pattern string, r Route) {
		mux.HandleFunc(pattern, r.Handler)
	})
}

// Patterns returns the ServeMux patterns the groups register, in
// declaration order.
func Patterns(groups ...Group) []string {
	var out []string
	walk(groups, func(pattern string, _ Route) {
		out = append(out, pattern)
	})
	return out
}

func walk(groups []Group, fn func(pattern string, r Route)) {
	var visit func(prefix string, g Group)
	visit = func(prefix string, g Group) {
		full := prefix + g.Prefix
		for _, r := range g.Routes {
			fn(r.Method+" "+full+r.Pattern, r)
		}
		for _, child := range g.Children {
			visit(full, child)
		}
	}
	for _, g := range groups {
		visit("", g)
	}
}
