package httpd

import "strings"

// CorsConfig controls the Cross-Origin Resource Sharing behaviour applied
// ahead of every route. It is built once via CreateCorsConfig and then
// frozen; the setters return the receiver so construction reads as a
// single chained expression, mirroring the original CorsOptions builder.
type CorsConfig struct {
	allowedOrigins   map[string]bool
	allowAllOrigins  bool
	allowedMethods   map[string]bool
	allowedHeaders   map[string]bool
	exposedHeaders   []string
	withCredentials  bool
}

// CreateCorsConfig returns a CorsConfig with nothing allowed; call its
// setters to populate it. Server.CreateCorsConfig builds one this way and
// installs it as the server's CORS policy.
func CreateCorsConfig() *CorsConfig {
	return &CorsConfig{
		allowedOrigins: make(map[string]bool),
		allowedMethods: make(map[string]bool),
		allowedHeaders: make(map[string]bool),
	}
}

// AllowOrigins sets the allowed origin list. A single "*" allows any
// origin, but is rejected at request time if WithCredentials is also set
// (the wildcard-plus-credentials combination is never valid per the CORS
// specification).
func (c *CorsConfig) AllowOrigins(origins ...string) *CorsConfig {
	for _, o := range origins {
		if o == "*" {
			c.allowAllOrigins = true
			continue
		}
		c.allowedOrigins[o] = true
	}
	return c
}

func (c *CorsConfig) AllowMethods(methods ...string) *CorsConfig {
	for _, m := range methods {
		c.allowedMethods[strings.ToUpper(m)] = true
	}
	return c
}

func (c *CorsConfig) AllowHeaders(headers ...string) *CorsConfig {
	for _, h := range headers {
		c.allowedHeaders[strings.ToLower(h)] = true
	}
	return c
}

func (c *CorsConfig) ExposeHeaders(headers ...string) *CorsConfig {
	c.exposedHeaders = append(c.exposedHeaders, headers...)
	return c
}

func (c *CorsConfig) WithCredentials(v bool) *CorsConfig {
	c.withCredentials = v
	return c
}

func (c *CorsConfig) originAllowed(origin string) bool {
	if origin == "" {
		return false
	}
	if c.allowAllOrigins && !c.withCredentials {
		return true
	}
	return c.allowedOrigins[origin]
}

func (c *CorsConfig) methodAllowed(method string) bool {
	return c.allowedMethods[strings.ToUpper(method)]
}

func (c *CorsConfig) headersAllowed(requested string) bool {
	if requested == "" {
		return true
	}
	for _, h := range strings.Split(requested, ",") {
		if !c.allowedHeaders[strings.ToLower(strings.TrimSpace(h))] {
			return false
		}
	}
	return true
}

func (c *CorsConfig) applyResponseHeaders(res *Response, origin string) {
	if c.allowAllOrigins && !c.withCredentials {
		res.SetHeader("Access-Control-Allow-Origin", "*")
	} else {
		res.SetHeader("Access-Control-Allow-Origin", origin)
		res.SetHeader("Vary", "Origin")
	}
	if c.withCredentials {
		res.SetHeader("Access-Control-Allow-Credentials", "true")
	}
	if len(c.exposedHeaders) > 0 {
		res.SetHeader("Access-Control-Expose-Headers", strings.Join(c.exposedHeaders, ", "))
	}
}

// corsMiddleware runs ahead of route lookup for every request once a
// CorsConfig has been installed via Server.CreateCorsConfig. It answers OPTIONS preflight
// requests directly with 204 or 403 and never reaches the handler chain,
// and it rejects (403) any non-preflight cross-origin request that fails
// the origin/method checks before the handler runs.
func corsMiddleware(cfg *CorsConfig) Middleware {
	return func(req *Request, res *Response, next func()) {
		origin := req.Header("Origin")
		if origin == "" {
			next()
			return
		}
		if req.Method == "OPTIONS" && req.Header("Access-Control-Request-Method") != "" {
			reqMethod := req.Header("Access-Control-Request-Method")
			reqHeaders := req.Header("Access-Control-Request-Headers")
			if !cfg.originAllowed(origin) || !cfg.methodAllowed(req.Method) || !cfg.methodAllowed(reqMethod) || !cfg.headersAllowed(reqHeaders) {
				cfg.applyResponseHeaders(res, origin)
				res.Status(403).Send("CORS Policy Error: Origin or Method or headers not allowed")
				return
			}
			cfg.applyResponseHeaders(res, origin)
			res.SetHeader("Access-Control-Allow-Methods", joinAllowedMethods(cfg))
			if len(cfg.allowedHeaders) > 0 {
				res.SetHeader("Access-Control-Allow-Headers", reqHeaders)
			}
			res.Status(204)
			return
		}
		if !cfg.originAllowed(origin) || !cfg.methodAllowed(req.Method) {
			cfg.applyResponseHeaders(res, origin)
			res.Status(403).Send("CORS Policy Error: Origin or Method or headers not allowed")
			return
		}
		cfg.applyResponseHeaders(res, origin)
		next()
	}
}

func joinAllowedMethods(cfg *CorsConfig) string {
	methods := make([]string, 0, len(cfg.allowedMethods))
	for m := range cfg.allowedMethods {
		methods = append(methods, m)
	}
	return strings.Join(methods, ", ")
}
