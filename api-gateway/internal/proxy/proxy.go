// Package proxy forwards public requests to the owning service.
package proxy

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/eaglemart/platform/shared/errs"
	"github.com/eaglemart/platform/shared/middleware"
)

// Routes maps a public path prefix to the upstream service that owns it.
// Upstream names match the <NAME>_SERVICE_URL environment variables.
var Routes = map[string]string{
	"/token":         "user",
	"/users":         "user",
	"/products":      "product",
	"/orders":        "order",
	"/inventory":     "inventory",
	"/payments":      "payment",
	"/webhooks":      "payment",
	"/notifications": "notification",
	"/sms":           "notification",
}

// hopHeaders are connection-scoped and never forwarded.
var hopHeaders = map[string]bool{
	"Connection":          true,
	"Keep-Alive":          true,
	"Proxy-Authenticate":  true,
	"Proxy-Authorization": true,
	"Te":                  true,
	"Trailer":             true,
	"Transfer-Encoding":   true,
	"Upgrade":             true,
}

// DefaultMaxBody caps the request body the gateway buffers before forwarding.
const DefaultMaxBody = 10 << 20

type Gateway struct {
	upstreams map[string]string
	client    *http.Client
	logger    *slog.Logger
	maxBody   int64
}

func New(upstreams map[string]string, client *http.Client, logger *slog.Logger) *Gateway {
	if client == nil {
		client = http.DefaultClient
	}
	return &Gateway{upstreams: upstreams, client: client, logger: logger, maxBody: DefaultMaxBody}
}

// RegisterRoutes mounts every route whose upstream is configured and returns
// the prefixes that were skipped.
func (g *Gateway) RegisterRoutes(r gin.IRouter) (skipped []string) {
	prefixes := make([]string, 0, len(Routes))
	for prefix := range Routes {
		prefixes = append(prefixes, prefix)
	}
	sort.Strings(prefixes)

	for _, prefix := range prefixes {
		base, ok := g.upstreams[Routes[prefix]]
		if !ok {
			skipped = append(skipped, prefix)
			continue
		}
		h := g.proxyTo(strings.TrimSuffix(base, "/"))
		r.Any(prefix, h)
		if prefix != "/token" {
			r.Any(prefix+"/*path", h)
		}
	}
	return skipped
}

func (g *Gateway) proxyTo(serviceURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		targetURL := serviceURL + c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			targetURL += "?" + c.Request.URL.RawQuery
		}

		var bodyBytes []byte
		if c.Request.Body != nil {
			var err error
			bodyBytes, err = io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, g.maxBody))
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					middleware.RespondWithAppError(c, errs.Wrap(errs.ErrValidation, "Request body too large", err))
					return
				}
				middleware.RespondWithAppError(c, errs.Wrap(errs.ErrValidation, "Invalid request body", err))
				return
			}
		}

		req, err := http.NewRequestWithContext(c.Request.Context(), c.Request.Method, targetURL, bytes.NewReader(bodyBytes))
		if err != nil {
			middleware.RespondWithAppError(c, errs.Wrap(errs.ErrUpstream, "Service unavailable", err))
			return
		}
		copyHeaders(req.Header, c.Request.Header)
		req.Header.Set("X-Forwarded-For", c.ClientIP())

		resp, err := g.client.Do(req)
		if err != nil {
			g.logger.Error("proxy request failed",
				slog.String("target", serviceURL),
				slog.String("path", c.Request.URL.Path),
				slog.Any("error", err),
			)
			middleware.RespondWithAppError(c, errs.Wrap(errs.ErrUpstream, "Service unavailable", err))
			return
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			middleware.RespondWithAppError(c, errs.Wrap(errs.ErrUpstream, "Service unavailable", err))
			return
		}

		copyHeaders(c.Writer.Header(), resp.Header)
		c.Data(resp.StatusCode, resp.Header.Get("Content-Type"), respBody)
	}
}

func copyHeaders(dst, src http.Header) {
	for key, values := range src {
		if hopHeaders[key] {
			continue
		}
		for _, value := range values {
			dst.Add(key, value)
		}
	}
}
