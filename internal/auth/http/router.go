package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/authserver/internal/auth/metrics"
	"github.com/aussiebroadwan/authserver/internal/auth/service"
	"github.com/aussiebroadwan/authserver/internal/auth/store"
	"github.com/aussiebroadwan/authserver/pkg/httpx"
	"github.com/aussiebroadwan/authserver/pkg/jwtx"
	"github.com/aussiebroadwan/authserver/pkg/slogx"

	_ "github.com/aussiebroadwan/authserver/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeySet
	issuer       string
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	TokenService *service.TokenService
	TokenStore   *service.JWTTokenStore
	Metrics      *metrics.Metrics

	// Limits defaults to httpx.DefaultLimits.
	Limits httpx.Limits

	// IntrospectScopes, when set, are the scopes a caller needs (any one of)
	// to use the introspection endpoints.
	IntrospectScopes []string
}

func NewRouter(
	keys *jwtx.KeySet,
	issuer, buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		issuer:       issuer,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
		Limits:       httpx.DefaultLimits,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

// ApplyRoutes registers every endpoint. The well-known documents are
// rendered here, once.
func (r *Router) ApplyRoutes() error {
	if err := r.registerWellKnown(); err != nil {
		return err
	}
	r.registerOAuth2()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
	return nil
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Authorization Server API
//	@version		0.1.0
//	@description	OAuth2 client_credentials token issuer. Access tokens are RS256-signed JWTs
//	@description	verifiable with the key set published at /.well-known/jwks.json.
//
//	@contact.name	AussieBroadWAN Team
//	@contact.url	https://github.com/aussiebroadwan/authserver
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8080
//	@BasePath		/
//
//	@schemes		http https
//
//	@securityDefinitions.basic	BasicAuth
//	@description				client_secret_basic client authentication.
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerWellKnown() error {
	jwks, err := JWKSHandler(r.keys)
	if err != nil {
		return err
	}
	discovery, err := DiscoveryHandler(r.issuer)
	if err != nil {
		return err
	}

	// Public, unauthenticated, cacheable.
	r.Mux.Handle("GET "+JWKSPath,
		httpx.Chain(jwks, httpx.RateLimitByIP(r.Limits.Public)),
	)
	r.Mux.Handle("GET /.well-known/openid-configuration",
		httpx.Chain(discovery, httpx.RateLimitByIP(r.Limits.Public)),
	)
	return nil
}

func (r *Router) registerOAuth2() {
	// POST /token - strict, per IP and presented client id
	tokenHandler := &TokenHandler{TokenService: r.TokenService, Metrics: r.Metrics}
	r.Mux.Handle("POST /oauth/token",
		httpx.Chain(tokenHandler,
			httpx.RateLimitByIPAndClient(r.Limits.Strict),
		),
	)

	// Introspection (RFC 7662) and the check_token alias share one handler
	// and one limiter.
	introspect := httpx.Chain(&IntrospectHandler{TokenStore: r.TokenStore},
		httpx.AuthnMiddleware(r.bearerVerifier()),
		httpx.RequireAnyScope(r.IntrospectScopes...),
		httpx.RateLimitBySubject(r.Limits.Moderate),
	)
	r.Mux.Handle("POST /oauth/introspect", introspect)
	r.Mux.Handle("POST /oauth/check_token", introspect)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(r.Limits.Public),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys),
			httpx.RateLimitByIP(r.Limits.Public),
		),
	)
	r.Mux.Handle("GET /metrics", r.Metrics.Handler())
}

// bearerVerifier authenticates callers through the token store, so caller
// tokens get the same issuer and signature checks as introspected ones.
func (r *Router) bearerVerifier() httpx.TokenVerifier {
	return httpx.VerifierFunc(func(ctx context.Context, raw string) (jwtx.Claims, error) {
		tok, auth, err := r.TokenStore.ReadToken(ctx, raw)
		if err != nil {
			return jwtx.Claims{}, err
		}
		return r.TokenStore.Converter.Claims(tok, auth), nil
	})
}
