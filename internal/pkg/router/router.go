package router

import (
	"net/http"
	"strings"
)

type Middleware func(http.Handler) http.Handler

// Router wraps http.ServeMux with a middleware chain and prefix mounting.
// Patterns follow ServeMux syntax, including the optional "METHOD " prefix.
type Router struct {
	prefix     string
	mux        *http.ServeMux
	middleware []Middleware
}

func New() *Router {
	return &Router{
		prefix: "",
		mux:    http.NewServeMux(),
	}
}

func (rt *Router) Use(mw ...Middleware) {
	rt.middleware = append(rt.middleware, mw...)
}

func (rt *Router) Handle(pattern string, handler http.Handler) {
	rt.mux.Handle(normalize(pattern), handler)
}

func (rt *Router) HandleFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	rt.mux.HandleFunc(normalize(pattern), handler)
}

// Mount serves h for every path under prefix, with the prefix stripped.
func (rt *Router) Mount(prefix string, h http.Handler) {
	prefix = cleanPrefix(prefix)
	rt.mux.Handle(prefix+"/", http.StripPrefix(prefix, h))
}

func (rt *Router) SubRouter(prefix string) *Router {
	prefix = cleanPrefix(prefix)

	// middleware of rt already wraps everything mounted on it
	s := &Router{
		prefix: rt.prefix + prefix,
		mux:    http.NewServeMux(),
	}

	rt.Mount(prefix, s)
	return s
}

func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var h http.Handler = rt.mux
	for i := len(rt.middleware) - 1; i >= 0; i-- {
		h = rt.middleware[i](h)
	}

	h.ServeHTTP(w, r)
}

func normalize(pattern string) string {
	method, path, found := strings.Cut(pattern, " ")
	if !found {
		method, path = "", pattern
	}

	path = strings.TrimSpace(path)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	if method == "" {
		return path
	}
	return method + " " + path
}

func cleanPrefix(prefix string) string {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		panic("empty router prefix")
	}

	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return prefix
}
