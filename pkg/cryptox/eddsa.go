package cryptox

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

// GenerateEd25519Key generates a new Ed25519 private key encoded as PKCS8 PEM.
func GenerateEd25519Key() ([]byte, error) {
	_, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("cryptox: failed to generate Ed25519 key: %w", err)
	}

	der, err := x509.MarshalPKCS8PrivateKey(privateKey)
	if err != nil {
		return nil, fmt.Errorf("cryptox: failed to marshal PKCS8 key: %w", err)
	}

	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil
}

// LoadEd25519Key reads a PKCS8 PEM key from path. An empty path yields a
// freshly generated key, and ephemeral reports true in that case.
func LoadEd25519Key(path string) (pemKey []byte, ephemeral bool, err error) {
	if path == "" {
		pemKey, err = GenerateEd25519Key()
		return pemKey, true, err
	}

	pemKey, err = os.ReadFile(path) // #nosec G304 - operator supplied path
	if err != nil {
		return nil, false, fmt.Errorf("cryptox: read signing key: %w", err)
	}
	if block, _ := pem.Decode(pemKey); block == nil {
		return nil, false, errors.New("cryptox: signing key file is not PEM")
	}
	return pemKey, false, nil
}
