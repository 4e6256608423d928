/*
Package authsdk is the Go client for the authorization server.

SDKClient covers the unauthenticated surface: the client_credentials token
grant, the JWKS and OpenID discovery documents, and the health probes.

	client := authsdk.NewSDKClient("http://localhost:8080")

	tok, err := client.ClientCredentialsGrant(ctx, "client", "password", []string{"read"})
	jwks, err := client.GetJWKS(ctx)
	disco, err := client.GetDiscovery(ctx)

A Session holds an access token for one client and re-runs the grant when
the token is about to expire (client_credentials issues no refresh token):

	session, err := client.AuthenticateWithClientCredentials(ctx, "client", "password", nil)
	info, err := session.Introspect(ctx, someToken)

Errors from the server are returned as *OAuth2Error, matchable with
errors.As. The same type is used by the server to write RFC 6749 error
bodies, so the codes on both sides always agree.

Sessions are safe for concurrent use.
*/
package authsdk
