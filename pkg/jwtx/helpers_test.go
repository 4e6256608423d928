package jwtx_test

import (
	"sync"
	"testing"

	"github.com/aussiebroadwan/authserver/pkg/cryptox"
	"github.com/aussiebroadwan/authserver/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

var (
	sharedPairOnce sync.Once
	sharedPair     *jwtx.KeyPair
	sharedPairErr  error
)

// testPair returns a 2048-bit pair shared by the whole package; key
// generation dominates test time otherwise.
func testPair(t *testing.T) *jwtx.KeyPair {
	t.Helper()
	sharedPairOnce.Do(func() {
		priv, err := cryptox.GenerateRSAKey(2048)
		if err != nil {
			sharedPairErr = err
			return
		}
		sharedPair, sharedPairErr = jwtx.NewKeyPair(priv)
	})
	require.NoError(t, sharedPairErr)
	return sharedPair
}

func testManager(t *testing.T, opts jwtx.VerifyOptions) *jwtx.KeyManager {
	t.Helper()
	km, err := jwtx.NewKeyManager(jwtx.NewStaticKeyProvider(testPair(t)), opts)
	require.NoError(t, err)
	return km
}
