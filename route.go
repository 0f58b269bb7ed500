package httpd

// RouteOption configures a single route registration beyond its pattern
// and handler. It exists because Go has no function overloading: the
// spec's "pattern, handler" and "pattern, [middlewares], handler" forms
// collapse into one signature plus an optional variadic tail.
type RouteOption func(*route)

type route struct {
	middlewares []Middleware
}

// WithMiddleware attaches per-route middleware, run after the global
// middleware registered via Use before this route, and before the route's
// handler.
func WithMiddleware(mw ...Middleware) RouteOption {
	return func(r *route) {
		r.middlewares = append(r.middlewares, mw...)
	}
}
