package jwtx

import (
	"crypto"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/go-jose/go-jose/v4"
)

// KeyPair is the RSA signing key together with its public half and the key
// id published in token headers and the JWKS. It never changes after
// construction.
type KeyPair struct {
	private *rsa.PrivateKey
	kid     string
}

// NewKeyPair validates priv and derives its kid as the RFC 7638 SHA-256
// thumbprint of the public key, so the same key material always carries the
// same kid across restarts and replicas.
func NewKeyPair(priv *rsa.PrivateKey) (*KeyPair, error) {
	if priv == nil {
		return nil, errors.New("jwtx: nil RSA key")
	}
	if err := priv.Validate(); err != nil {
		return nil, fmt.Errorf("jwtx: invalid RSA key: %w", err)
	}

	kid, err := Thumbprint(&priv.PublicKey)
	if err != nil {
		return nil, err
	}
	return &KeyPair{private: priv, kid: kid}, nil
}

// Thumbprint returns the base64url RFC 7638 thumbprint of pub.
func Thumbprint(pub *rsa.PublicKey) (string, error) {
	jwk := jose.JSONWebKey{Key: pub}
	sum, err := jwk.Thumbprint(crypto.SHA256)
	if err != nil {
		return "", fmt.Errorf("jwtx: thumbprint: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(sum), nil
}

func (k *KeyPair) KID() string              { return k.kid }
func (k *KeyPair) Private() *rsa.PrivateKey { return k.private }
func (k *KeyPair) Public() *rsa.PublicKey   { return &k.private.PublicKey }

// Keys returns (public, private).
func (k *KeyPair) Keys() (*rsa.PublicKey, *rsa.PrivateKey) {
	return k.Public(), k.private
}

// KeyProvider hands out the process signing key.
type KeyProvider interface {
	KeyPair() *KeyPair
}

// StaticKeyProvider always returns the same pair.
type StaticKeyProvider struct {
	pair *KeyPair
}

// NewStaticKeyProvider wraps an already validated pair.
func NewStaticKeyProvider(pair *KeyPair) *StaticKeyProvider {
	return &StaticKeyProvider{pair: pair}
}

func (p *StaticKeyProvider) KeyPair() *KeyPair { return p.pair }
