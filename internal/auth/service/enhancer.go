package service

import "github.com/aussiebroadwan/authserver/internal/auth/domain"

// ClaimIssuer is the additional-information key IssuerEnhancer writes.
const ClaimIssuer = "iss"

// Enhancer contributes to a token before it is encoded. Implementations must
// return a new token and leave their input untouched.
type Enhancer interface {
	Enhance(token domain.AccessToken, auth domain.Authentication) domain.AccessToken
}

// EnhancerFunc adapts a plain function to Enhancer.
type EnhancerFunc func(token domain.AccessToken, auth domain.Authentication) domain.AccessToken

func (f EnhancerFunc) Enhance(token domain.AccessToken, auth domain.Authentication) domain.AccessToken {
	return f(token, auth)
}

// EnhancerChain applies its enhancers in order, feeding each the previous
// result.
type EnhancerChain []Enhancer

func NewEnhancerChain(enhancers ...Enhancer) EnhancerChain {
	chain := make(EnhancerChain, 0, len(enhancers))
	for _, e := range enhancers {
		if e != nil {
			chain = append(chain, e)
		}
	}
	return chain
}

func (c EnhancerChain) Enhance(token domain.AccessToken, auth domain.Authentication) domain.AccessToken {
	for _, e := range c {
		token = e.Enhance(token, auth)
	}
	return token
}

// IssuerEnhancer sets the iss claim to issuer, verbatim. Applying it twice
// still leaves a single iss.
func IssuerEnhancer(issuer string) Enhancer {
	return EnhancerFunc(func(token domain.AccessToken, _ domain.Authentication) domain.AccessToken {
		return token.WithInfo(ClaimIssuer, issuer)
	})
}
