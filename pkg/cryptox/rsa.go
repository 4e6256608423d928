package cryptox

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
)

// MinRSABits is the smallest modulus accepted anywhere in this package.
const MinRSABits = 2048

// ErrRSAKey wraps every malformed or inconsistent RSA key material error.
var ErrRSAKey = errors.New("cryptox: invalid RSA key")

// GenerateRSAKey generates a new RSA private key with the specified bit size.
func GenerateRSAKey(bits int) (*rsa.PrivateKey, error) {
	if bits < MinRSABits {
		return nil, fmt.Errorf("cryptox: RSA key size must be at least %d bits", MinRSABits)
	}

	key, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("cryptox: failed to generate RSA key: %w", err)
	}
	return key, nil
}

// EncodeRSAKeyPKCS8 returns key as a "PRIVATE KEY" PEM block.
func EncodeRSAKeyPKCS8(key *rsa.PrivateKey) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("cryptox: failed to marshal PKCS8 key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil
}

// EncodeRSAPublicKey returns the PKIX "PUBLIC KEY" PEM block for pub.
func EncodeRSAPublicKey(pub *rsa.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("cryptox: failed to marshal public key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}

// ParseRSAPrivateKeyPEM accepts PKCS1 ("RSA PRIVATE KEY") and PKCS8
// ("PRIVATE KEY") blocks.
func ParseRSAPrivateKeyPEM(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", ErrRSAKey)
	}

	var key *rsa.PrivateKey
	switch block.Type {
	case "RSA PRIVATE KEY":
		k, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRSAKey, err)
		}
		key = k
	case "PRIVATE KEY":
		k, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRSAKey, err)
		}
		rk, ok := k.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: PKCS8 block holds %T", ErrRSAKey, k)
		}
		key = rk
	default:
		return nil, fmt.Errorf("%w: unsupported PEM block %q", ErrRSAKey, block.Type)
	}

	if bits := key.N.BitLen(); bits < MinRSABits {
		return nil, fmt.Errorf("%w: modulus is %d bits, need at least %d", ErrRSAKey, bits, MinRSABits)
	}
	return key, nil
}

// LoadRSAPrivateKeyFile reads and parses a PEM key from disk.
func LoadRSAPrivateKeyFile(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(filepath.Clean(path)) // #nosec G304 - operator supplied path
	if err != nil {
		return nil, fmt.Errorf("cryptox: read key file: %w", err)
	}
	return ParseRSAPrivateKeyPEM(data)
}

// RSAKeyFromDecimal builds a private key from base-10 modulus, public exponent
// and private exponent strings. The primes are recovered from (n, e, d) so
// the result passes rsa.PrivateKey.Validate and can use CRT.
func RSAKeyFromDecimal(modulus, publicExponent, privateExponent string) (*rsa.PrivateKey, error) {
	n, err := parseDecimal("modulus", modulus)
	if err != nil {
		return nil, err
	}
	e, err := parseDecimal("public exponent", publicExponent)
	if err != nil {
		return nil, err
	}
	d, err := parseDecimal("private exponent", privateExponent)
	if err != nil {
		return nil, err
	}

	if bits := n.BitLen(); bits < MinRSABits {
		return nil, fmt.Errorf("%w: modulus is %d bits, need at least %d", ErrRSAKey, bits, MinRSABits)
	}
	if !e.IsInt64() || e.Int64() < 3 || e.Int64() > 1<<31-1 || e.Bit(0) == 0 {
		return nil, fmt.Errorf("%w: unsupported public exponent %s", ErrRSAKey, e)
	}
	if d.Cmp(n) >= 0 {
		return nil, fmt.Errorf("%w: private exponent exceeds modulus", ErrRSAKey)
	}

	p, q, err := recoverPrimes(n, e, d)
	if err != nil {
		return nil, err
	}

	key := &rsa.PrivateKey{
		PublicKey: rsa.PublicKey{N: n, E: int(e.Int64())},
		D:         d,
		Primes:    []*big.Int{p, q},
	}
	key.Precompute()
	if err := key.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRSAKey, err)
	}
	return key, nil
}

func parseDecimal(name, s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() <= 0 {
		return nil, fmt.Errorf("%w: %s is not a positive decimal integer", ErrRSAKey, name)
	}
	return v, nil
}

// recoverPrimes factors n given a matching (e, d) pair. d*e-1 is a multiple
// of lambda(n); writing it as 2^t*r, some witness g has a non-trivial square
// root of one in the sequence g^r, g^2r, ... and gcd(root-1, n) is a factor.
func recoverPrimes(n, e, d *big.Int) (*big.Int, *big.Int, error) {
	one := big.NewInt(1)
	nMinus1 := new(big.Int).Sub(n, one)

	k := new(big.Int).Mul(d, e)
	k.Sub(k, one)
	if k.Sign() <= 0 || k.Bit(0) != 0 {
		return nil, nil, fmt.Errorf("%w: private exponent does not match public exponent", ErrRSAKey)
	}

	t := k.TrailingZeroBits()
	r := new(big.Int).Rsh(k, t)

	for g := int64(2); g < 200; g++ {
		y := new(big.Int).Exp(big.NewInt(g), r, n)
		if y.Cmp(one) == 0 || y.Cmp(nMinus1) == 0 {
			continue
		}

		for i := uint(1); i <= t; i++ {
			x := new(big.Int).Exp(y, big.NewInt(2), n)
			if x.Cmp(one) == 0 {
				p := new(big.Int).GCD(nil, nil, new(big.Int).Sub(y, one), n)
				q, rem := new(big.Int).QuoRem(n, p, new(big.Int))
				if rem.Sign() != 0 || p.Cmp(one) == 0 || q.Cmp(one) == 0 {
					break
				}
				if p.Cmp(q) < 0 {
					p, q = q, p
				}
				return p, q, nil
			}
			if x.Cmp(nMinus1) == 0 {
				break
			}
			y = x
		}
	}

	return nil, nil, fmt.Errorf("%w: could not factor modulus from the private exponent", ErrRSAKey)
}
