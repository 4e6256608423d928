package jwtx

import (
	"errors"
	"fmt"

	"github.com/aussiebroadwan/authserver/pkg/cryptox"
)

// KeyManager wires a single key pair into everything that needs it: the
// signer used at issuance, the KeySet behind the JWKS endpoint, and the
// verifier used by the token store. There is no rotation; the pair is fixed
// for the life of the process.
type KeyManager struct {
	Signer   Signer
	Verifier Verifier
	KeySet   *KeySet

	pair *KeyPair
}

// NewKeyManager builds a manager around provider's key pair.
func NewKeyManager(provider KeyProvider, opts VerifyOptions) (*KeyManager, error) {
	if provider == nil {
		return nil, errors.New("jwtx: nil key provider")
	}
	pair := provider.KeyPair()
	if pair == nil {
		return nil, errors.New("jwtx: key provider returned no key pair")
	}

	signer, err := NewSignerRS256(pair)
	if err != nil {
		return nil, err
	}
	if err := signer.Validate(); err != nil {
		return nil, err
	}

	keyset := NewKeySet()
	if err := keyset.AddSigner(signer); err != nil {
		return nil, fmt.Errorf("jwtx: failed to add signer to keyset: %w", err)
	}

	return &KeyManager{
		Signer:   signer,
		Verifier: NewVerifierRS256(keyset, opts),
		KeySet:   keyset,
		pair:     pair,
	}, nil
}

// NewEphemeralKeyManager generates a fresh RSA key that only lives in
// memory. Every token it signs becomes unverifiable once the process exits.
func NewEphemeralKeyManager(bits int, opts VerifyOptions) (*KeyManager, error) {
	if bits == 0 {
		bits = cryptox.MinRSABits
	}

	priv, err := cryptox.GenerateRSAKey(bits)
	if err != nil {
		return nil, err
	}
	pair, err := NewKeyPair(priv)
	if err != nil {
		return nil, err
	}
	return NewKeyManager(NewStaticKeyProvider(pair), opts)
}

// KeyPair returns the managed pair. KeyManager is itself a KeyProvider.
func (km *KeyManager) KeyPair() *KeyPair { return km.pair }

// Algorithm returns the signing algorithm being used.
func (km *KeyManager) Algorithm() string { return km.Signer.Alg() }

// IsReady returns true if the KeyManager has valid keys loaded.
func (km *KeyManager) IsReady() bool {
	return km.Signer != nil && km.Signer.Validate() == nil && km.KeySet.IsReady()
}
