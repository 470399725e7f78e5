package app

import (
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/doorman/pkg/cryptox"
	"github.com/aussiebroadwan/doorman/pkg/jwtx"
)

// Keys is the signing key and the key set verifying against it.
type Keys struct {
	Signer   jwtx.Signer
	KeySet   *jwtx.KeySet
	Verifier jwtx.Verifier
}

// InitAuthKeys loads the Ed25519 signing key from cfg.SigningKeyFile, or
// generates one when it is unset. A generated key lives only in memory, so
// every session issued before a restart stops verifying.
func InitAuthKeys(cfg Config, logger *slog.Logger) (*Keys, error) {
	pemKey, ephemeral, err := cryptox.LoadEd25519Key(cfg.SigningKeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load signing key: %w", err)
	}

	signer, err := jwtx.NewSignerEdDSA("", pemKey)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize signer: %w", err)
	}
	if err := signer.Validate(); err != nil {
		return nil, fmt.Errorf("signing key failed self-check: %w", err)
	}

	keys := jwtx.NewKeySet()
	if err := keys.AddSigner(signer); err != nil {
		return nil, err
	}

	if ephemeral {
		logger.Warn("generated ephemeral signing key, all existing tokens are now invalid",
			"kid", signer.KID(),
		)
	} else {
		logger.Info("signing key loaded", "kid", signer.KID(), "path", cfg.SigningKeyFile)
	}

	return &Keys{
		Signer:   signer,
		KeySet:   keys,
		Verifier: jwtx.NewVerifierEdDSA(keys, cfg.Issuer, nil),
	}, nil
}
