package tenant

import (
	"net"
	"net/http"
	"strings"
)

// DefaultID names the tenant used when a request carries no tenant metadata.
const DefaultID = "default"

const pathPrefix = "/tenant/"

// Resolver resolves tenant identifiers from HTTP requests using headers, subdomains or a
// /tenant/{id}/ path prefix, in that order.
type Resolver struct {
	HeaderName    string
	RootDomain    string
	DefaultTenant string
}

// NewResolver returns a resolver configured with the provided header name, root domain, and default tenant slug.
// If headerName is empty, "X-Tenant-ID" is used. If defaultTenant is empty, "default" is used.
func NewResolver(headerName, rootDomain, defaultTenant string) *Resolver {
	if headerName == "" {
		headerName = "X-Tenant-ID"
	}
	defaultTenant = strings.TrimSpace(defaultTenant)
	if defaultTenant == "" {
		defaultTenant = DefaultID
	}
	return &Resolver{
		HeaderName:    headerName,
		RootDomain:    strings.ToLower(strings.TrimSpace(rootDomain)),
		DefaultTenant: defaultTenant,
	}
}

// Middleware resolves the tenant from the request and injects it into the context passed downstream.
// A /tenant/{id} prefix is stripped from the path so the remainder routes normally. The tenant lives
// on the request context only and disappears with it.
func (r *Resolver) Middleware(next http.Handler) http.Handler {
	if r == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		tenantID := r.Resolve(req)
		if rest, ok := stripTenantPath(req.URL.Path); ok {
			u := *req.URL
			u.Path = rest
			u.RawPath = ""
			req = req.Clone(req.Context())
			req.URL = &u
		}
		ctx := WithTenant(req.Context(), tenantID)
		next.ServeHTTP(w, req.WithContext(ctx))
	})
}

// Resolve returns the tenant identifier for req, falling back to the default tenant.
// It never validates the identifier against a registry.
func (r *Resolver) Resolve(req *http.Request) string {
	if r == nil || req == nil {
		return DefaultID
	}
	if tenantID := strings.TrimSpace(req.Header.Get(r.HeaderName)); tenantID != "" {
		return tenantID
	}
	if sub := r.subdomainFromHost(hostWithoutPort(req.Host)); sub != "" {
		return sub
	}
	if req.URL != nil {
		if id := tenantFromPath(req.URL.Path); id != "" {
			return id
		}
	}
	return r.fallback()
}

func (r *Resolver) fallback() string {
	if r.DefaultTenant == "" {
		return DefaultID
	}
	return r.DefaultTenant
}

func (r *Resolver) subdomainFromHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" || net.ParseIP(host) != nil {
		return ""
	}

	if r.RootDomain != "" {
		if host == r.RootDomain {
			return ""
		}
		suffix := "." + r.RootDomain
		if !strings.HasSuffix(host, suffix) {
			return ""
		}
		parts := strings.Split(strings.TrimSuffix(host, suffix), ".")
		return labelOrEmpty(parts[len(parts)-1])
	}

	parts := strings.Split(host, ".")
	if len(parts) <= 2 {
		return ""
	}
	return labelOrEmpty(parts[0])
}

func labelOrEmpty(label string) string {
	label = strings.TrimSpace(label)
	if label == "www" {
		return ""
	}
	return label
}

func tenantFromPath(path string) string {
	if !strings.HasPrefix(path, pathPrefix) {
		return ""
	}
	rest := strings.TrimPrefix(path, pathPrefix)
	if idx := strings.Index(rest, "/"); idx != -1 {
		rest = rest[:idx]
	}
	return strings.TrimSpace(rest)
}

func stripTenantPath(path string) (string, bool) {
	id := tenantFromPath(path)
	if id == "" {
		return path, false
	}
	rest := strings.TrimPrefix(path, pathPrefix+id)
	if rest == "" {
		rest = "/"
	}
	return rest, true
}

func hostWithoutPort(hostport string) string {
	hostport = strings.TrimSpace(hostport)
	if h, _, err := net.SplitHostPort(hostport); err == nil {
		return h
	}
	return strings.Trim(hostport, "[]")
}
