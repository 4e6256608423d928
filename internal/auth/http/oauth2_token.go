package http

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/aussiebroadwan/authserver/internal/auth/domain"
	"github.com/aussiebroadwan/authserver/internal/auth/metrics"
	"github.com/aussiebroadwan/authserver/internal/auth/service"
	"github.com/aussiebroadwan/authserver/pkg/authsdk"
	"github.com/aussiebroadwan/authserver/pkg/httpx"
	"github.com/aussiebroadwan/authserver/pkg/slogx"
)

// TokenHandler serves POST /oauth/token.
// Accepts application/x-www-form-urlencoded per RFC 6749.
type TokenHandler struct {
	TokenService *service.TokenService
	Metrics      *metrics.Metrics
}

// clientCredentials are the credentials a client presented and how.
type clientCredentials struct {
	id     string
	secret string
	basic  bool
}

// ServeHTTP godoc
//
//	@Summary		OAuth2 Token Endpoint
//	@Description	Issues an RS256-signed JWT access token for the client_credentials grant.
//	@Description	Clients authenticate with HTTP Basic (client_secret_basic) or form fields (client_secret_post), not both.
//	@Tags			OAuth2
//	@Accept			application/x-www-form-urlencoded
//	@Produce		json
//	@Param			grant_type		formData	string					true	"Grant type"	Enums(client_credentials)
//	@Param			client_id		formData	string					false	"Client identifier, when not using HTTP Basic"
//	@Param			client_secret	formData	string					false	"Client secret, when not using HTTP Basic"
//	@Param			scope			formData	string					false	"Space-delimited list of scopes"
//	@Success		200				{object}	authsdk.TokenResponse	"access_token, token_type, expires_in, scope, jti"
//	@Failure		400				{object}	authsdk.ErrorResponse	"error, error_description"
//	@Failure		401				{object}	authsdk.ErrorResponse	"error, error_description"
//	@Failure		500				{object}	authsdk.ErrorResponse	"error, error_description"
//	@Header			200				{string}	Cache-Control			"no-store"
//	@Header			200				{string}	Pragma					"no-cache"
//	@Router			/oauth/token [post].
func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if ct := r.Header.Get("Content-Type"); ct != "" &&
		!strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		h.fail(w, authsdk.ErrInvalidContentType, false)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.fail(w, authsdk.ErrInvalidFormBody, false)
		return
	}

	switch grantType := r.PostForm.Get("grant_type"); grantType {
	case domain.GrantClientCredentials:
		h.handleClientCredentialsGrant(w, r, r.PostForm)
	case "":
		h.fail(w, authsdk.ErrInvalidRequest.WithDescription("grant_type is required"), false)
	default:
		h.fail(w, authsdk.ErrUnsupportedGrantType, false)
	}
}

func (h *TokenHandler) handleClientCredentialsGrant(
	w http.ResponseWriter,
	r *http.Request,
	form url.Values,
) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	creds, oauthErr := readClientCredentials(r, form)
	if oauthErr != nil {
		h.fail(w, oauthErr, creds.basic)
		return
	}

	requested := httpx.ParseSpaceDelimitedFields(form.Get("scope"))

	tok, err := h.TokenService.ExchangeClientCredentials(ctx, creds.id, creds.secret, requested)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidClient):
			h.fail(w, authsdk.ErrInvalidClient, creds.basic)
		case errors.Is(err, service.ErrUnauthorizedClient):
			h.fail(w, authsdk.ErrUnauthorizedClient, false)
		case errors.Is(err, service.ErrInvalidScope):
			h.fail(w, authsdk.ErrInvalidScope, false)
		default:
			log.Error("client_credentials grant failed", "client_id", creds.id, "err", err)
			h.fail(w, authsdk.ErrServerError, false)
		}
		return
	}

	h.Metrics.TokenRequest(metrics.ResultOK)
	httpx.WriteJSON(w, http.StatusOK, authsdk.TokenResponse{
		AccessToken: tok.Value,
		TokenType:   "bearer",
		ExpiresIn:   int64(tok.ExpiresAt.Sub(tok.IssuedAt).Seconds()),
		Scope:       strings.Join(tok.Scopes, " "),
		Jti:         tok.ID,
	})
}

// readClientCredentials accepts HTTP Basic or form credentials. Using both
// is an invalid_request (RFC 6749 section 2.3).
func readClientCredentials(r *http.Request, form url.Values) (clientCredentials, *authsdk.OAuth2Error) {
	formID := strings.TrimSpace(form.Get("client_id"))
	formSecret := form.Get("client_secret")

	if user, pass, ok := r.BasicAuth(); ok {
		creds := clientCredentials{basic: true}

		// Basic credentials are form-urlencoded before base64 (RFC 6749 section 2.3.1).
		id, err := url.QueryUnescape(user)
		if err != nil {
			return creds, authsdk.ErrInvalidClient
		}
		secret, err := url.QueryUnescape(pass)
		if err != nil {
			return creds, authsdk.ErrInvalidClient
		}
		creds.id, creds.secret = id, secret

		if formSecret != "" || (formID != "" && formID != id) {
			return creds, authsdk.ErrInvalidRequest.WithDescription("multiple client authentication methods")
		}
		if creds.id == "" {
			return creds, authsdk.ErrInvalidClient
		}
		return creds, nil
	}

	if formID == "" {
		return clientCredentials{}, authsdk.ErrInvalidRequest.WithDescription("client authentication is required")
	}
	if formSecret == "" {
		return clientCredentials{id: formID}, authsdk.ErrInvalidClient
	}
	return clientCredentials{id: formID, secret: formSecret}, nil
}

// fail writes e and counts it. invalid_client answers to a Basic attempt
// carry a Basic challenge.
func (h *TokenHandler) fail(w http.ResponseWriter, e *authsdk.OAuth2Error, basic bool) {
	if basic && e.Code == authsdk.ErrorCodeInvalidClient {
		w.Header().Set("WWW-Authenticate", `Basic realm="oauth"`)
	}
	h.Metrics.TokenRequest(e.Code)
	e.WriteError(w)
}
