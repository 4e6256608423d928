package http

import (
	"context"
	"errors"
	"maps"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/authserver/internal/auth/service"
	"github.com/aussiebroadwan/authserver/pkg/authsdk"
	"github.com/aussiebroadwan/authserver/pkg/httpx"
	"github.com/aussiebroadwan/authserver/pkg/slogx"
)

// IntrospectHandler serves POST /oauth/introspect (RFC 7662) and its
// check_token alias. The caller must present its own bearer token; the
// token being asked about goes in the form.
type IntrospectHandler struct {
	TokenStore *service.JWTTokenStore
}

// ServeHTTP godoc
//
//	@Summary		OAuth2 Token Introspection Endpoint
//	@Description	Introspects an access token and returns its metadata (RFC 7662). Invalid, expired or foreign tokens yield {"active":false}.
//	@Tags			OAuth2
//	@Accept			application/x-www-form-urlencoded
//	@Produce		json
//	@Security		BearerAuth
//	@Param			token			formData	string							true	"The token to introspect"
//	@Param			token_type_hint	formData	string							false	"Only access_token is supported"	Enums(access_token)
//	@Success		200				{object}	authsdk.IntrospectionResponse	"Token introspection result"
//	@Failure		400				{object}	authsdk.ErrorResponse			"error, error_description"
//	@Failure		401				{object}	authsdk.ErrorResponse			"error, error_description"
//	@Header			200				{string}	Cache-Control					"no-store"
//	@Header			200				{string}	Pragma							"no-cache"
//	@Router			/oauth/introspect [post].
func (h *IntrospectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if ct := r.Header.Get("Content-Type"); ct != "" &&
		!strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		authsdk.ErrInvalidContentType.WriteError(w)
		return
	}

	if err := r.ParseForm(); err != nil {
		authsdk.ErrInvalidFormBody.WriteError(w)
		return
	}

	raw := r.PostForm.Get("token")
	if raw == "" {
		authsdk.ErrInvalidRequest.WithDescription("token is required").WriteError(w)
		return
	}

	// Only access tokens exist here; anything else is simply unknown.
	if hint := r.PostForm.Get("token_type_hint"); hint != "" && hint != "access_token" {
		writeInactiveResponse(w)
		return
	}

	tok, auth, err := h.TokenStore.ReadToken(ctx, raw)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			authsdk.ErrServerError.WriteError(w)
			return
		}
		log.Debug("token inactive", "err", err)
		writeInactiveResponse(w)
		return
	}

	resp := authsdk.IntrospectionResponse{
		Active:      true,
		Scope:       strings.Join(tok.Scopes, " "),
		ClientID:    auth.ClientID,
		TokenType:   tok.TokenType,
		Sub:         auth.Principal,
		Jti:         tok.ID,
		Authorities: auth.Authorities,
	}
	if !tok.ExpiresAt.IsZero() {
		resp.Exp = tok.ExpiresAt.Unix()
	}
	if !tok.IssuedAt.IsZero() {
		resp.Iat = tok.IssuedAt.Unix()
		resp.Nbf = resp.Iat
	}
	if iss, ok := tok.AdditionalInformation[service.ClaimIssuer].(string); ok {
		resp.Iss = iss
	}
	if extra := maps.Clone(tok.AdditionalInformation); len(extra) > 0 {
		delete(extra, service.ClaimIssuer)
		if len(extra) > 0 {
			resp.Extra = extra
		}
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}

// writeInactiveResponse returns the minimal RFC 7662 response. The reason a
// token is inactive is never disclosed.
func writeInactiveResponse(w http.ResponseWriter) {
	httpx.WriteJSON(w, http.StatusOK, authsdk.IntrospectionResponse{Active: false})
}
