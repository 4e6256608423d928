package app

import (
	"crypto/rsa"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/authserver/pkg/cryptox"
	"github.com/aussiebroadwan/authserver/pkg/jwtx"
)

// Sample signing key, given as decimal modulus, public exponent and private
// exponent. It is public, so it is only fit for local development.
const (
	sampleModulus = "18044398961479537755088511127417480155072543594514852056908450877656126120801808993616738273349107491806340290040410660515399239279742407357192875363433659810851147557504389760192273458065587503508596714389889971758652047927503525007076910925306186421971180013159326306810174367375596043267660331677530921991343349336096643043840224352451615452251387611820750171352353189973315443889352557807329336576421211370350554195530374360110583327093711721857129170040527236951522127488980970085401773781530555922385755722534685479501240842392531455355164896023070459024737908929308707435474197069199421373363801477026083786683"

	samplePublicExponent = "65537"

	samplePrivateExponent = "3851612021791312596791631935569878540203393691253311342052463788814433805390794604753109719790052408607029530149004451377846406736413270923596916756321977922303381344613407820854322190592787335193581632323728135479679928871596911841005827348430783250026013354350760878678723915119966019947072651782000702927096735228356171563532131162414366310012554312756036441054404004920678199077822575051043273088621405687950081861819700809912238863867947415641838115425624808671834312114785499017269379478439158796130804789241476050832773822038351367878951389438751088021113551495469440016698505614123035099067172660197922333993"
)

// SampleKey returns the compiled-in development key.
func SampleKey() (*rsa.PrivateKey, error) {
	return cryptox.RSAKeyFromDecimal(sampleModulus, samplePublicExponent, samplePrivateExponent)
}

// InitAuthKeys builds the KeyManager for the configured key source.
//
// Key sources:
//   - "static": the compiled-in sample key. Tokens survive restarts, but the
//     key is public.
//   - "pem": a PKCS1 or PKCS8 private key read from AUTH_KEY_FILE.
//   - "generate": a fresh key per process. Every token becomes invalid when
//     the service restarts.
//
// The key is fixed for the life of the process; there is no rotation.
func InitAuthKeys(cfg Config, logger *slog.Logger) (*jwtx.KeyManager, error) {
	opts := jwtx.VerifyOptions{Issuer: cfg.Issuer}

	var (
		priv *rsa.PrivateKey
		err  error
	)

	switch cfg.KeySource {
	case KeySourcePEM:
		priv, err = cryptox.LoadRSAPrivateKeyFile(cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load signing key: %w", err)
		}

	case KeySourceGenerate:
		logger.Info("generating ephemeral signing key", "bits", cfg.RSABits)
		km, err := jwtx.NewEphemeralKeyManager(cfg.RSABits, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to generate signing key: %w", err)
		}
		logger.Warn("all existing tokens are now invalid due to key generation on startup",
			"kid", km.Signer.KID(),
		)
		return km, nil

	case KeySourceStatic, "":
		priv, err = SampleKey()
		if err != nil {
			return nil, fmt.Errorf("failed to load sample signing key: %w", err)
		}
		if cfg.Env == "prod" {
			logger.Warn("the compiled-in sample signing key is in use; set AUTH_KEY_SOURCE for production")
		}

	default:
		return nil, fmt.Errorf("unknown key source %q", cfg.KeySource)
	}

	pair, err := jwtx.NewKeyPair(priv)
	if err != nil {
		return nil, fmt.Errorf("failed to build key pair: %w", err)
	}

	km, err := jwtx.NewKeyManager(jwtx.NewStaticKeyProvider(pair), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize key manager: %w", err)
	}

	logger.Info("signing key loaded",
		"source", cfg.KeySource,
		"algorithm", km.Algorithm(),
		"kid", pair.KID(),
		"bits", priv.N.BitLen(),
	)
	return km, nil
}
