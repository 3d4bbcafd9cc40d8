package middleware

import (
	"context"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/yi-nology/asset_tracker/pkg/config"
)

const (
	// exposeHeaders lets browser clients read the download name, request id and archive key.
	exposeHeaders = "Content-Disposition,X-Request-ID,X-Archive-Key"
	preflightAge  = "600"
)

type corsPolicy struct {
	anyOrigin   bool
	origins     map[string]struct{}
	methods     string
	headers     string
	credentials bool
}

func newCORSPolicy(cfg *config.CORSConfig) corsPolicy {
	p := corsPolicy{
		anyOrigin: true,
		methods:   "GET,POST,PUT,DELETE,OPTIONS",
		headers:   "Authorization,Content-Type,X-Request-ID",
	}
	if cfg == nil {
		return p
	}
	if cfg.AllowMethods != "" {
		p.methods = cfg.AllowMethods
	}
	if cfg.AllowHeaders != "" {
		p.headers = cfg.AllowHeaders
	}
	p.credentials = cfg.AllowCredentials

	if origin := strings.TrimSpace(cfg.AllowOrigin); origin != "" && origin != "*" {
		p.anyOrigin = false
		p.origins = make(map[string]struct{})
		for _, o := range strings.Split(origin, ",") {
			if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
				p.origins[o] = struct{}{}
			}
		}
	}
	return p
}

// allowedOrigin returns the Access-Control-Allow-Origin value for origin.
// A wildcard is never sent together with credentials.
func (p corsPolicy) allowedOrigin(origin string) (string, bool) {
	if p.anyOrigin {
		if p.credentials {
			return origin, true
		}
		return "*", true
	}
	if _, ok := p.origins[origin]; ok {
		return origin, true
	}
	return "", false
}

// CORS answers preflight requests and decorates cross-origin responses.
// allow_origin is "*" or a comma separated list of origins.
func CORS(cfg *config.CORSConfig) app.HandlerFunc {
	policy := newCORSPolicy(cfg)

	return func(ctx context.Context, c *app.RequestContext) {
		origin := string(c.Request.Header.Peek("Origin"))
		if origin == "" {
			c.Next(ctx)
			return
		}

		h := &c.Response.Header
		if !policy.anyOrigin || policy.credentials {
			h.Add("Vary", "Origin")
		}
		allowed, ok := policy.allowedOrigin(origin)
		preflight := string(c.Request.Method()) == consts.MethodOptions &&
			len(c.Request.Header.Peek("Access-Control-Request-Method")) > 0

		if !ok {
			if preflight {
				c.AbortWithStatus(consts.StatusForbidden)
				return
			}
			c.Next(ctx)
			return
		}

		h.Set("Access-Control-Allow-Origin", allowed)
		if policy.credentials {
			h.Set("Access-Control-Allow-Credentials", "true")
		}
		if preflight {
			h.Set("Access-Control-Allow-Methods", policy.methods)
			h.Set("Access-Control-Allow-Headers", policy.headers)
			h.Set("Access-Control-Max-Age", preflightAge)
			c.AbortWithStatus(consts.StatusNoContent)
			return
		}
		h.Set("Access-Control-Expose-Headers", exposeHeaders)
		c.Next(ctx)
	}
}
