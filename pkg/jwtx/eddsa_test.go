package jwtx_test

import (
	"crypto/ed25519"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/doorman/pkg/cryptox"
	"github.com/aussiebroadwan/doorman/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const exampleIssuer = "doorman-test"

func newSigner(t *testing.T, kid string) jwtx.Signer {
	t.Helper()
	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)
	signer, err := jwtx.NewSignerEdDSA(kid, pemKey)
	require.NoError(t, err)
	return signer
}

func newVerifier(t *testing.T, signers ...jwtx.Signer) *jwtx.EdDSAVerifier {
	t.Helper()
	keyset := jwtx.NewKeySet()
	for _, s := range signers {
		require.NoError(t, keyset.AddSigner(s))
	}
	return jwtx.NewVerifierEdDSA(keyset, exampleIssuer, nil)
}

func TestEdDSASignAndVerify(t *testing.T) {
	signer := newSigner(t, "test-key-eddsa")
	require.NoError(t, signer.Validate())
	require.Equal(t, "EdDSA", signer.Alg())
	require.Equal(t, "test-key-eddsa", signer.KID())

	claims := jwtx.NewSessionClaims("a@x.com", []string{jwtx.AMRPassword}, 5*time.Minute, exampleIssuer, time.Now().UTC())
	token, err := signer.Sign(claims)
	require.NoError(t, err)
	require.Equal(t, 2, strings.Count(token, "."))

	parsed, err := newVerifier(t, signer).Verify(token)
	require.NoError(t, err)
	require.Equal(t, "a@x.com", parsed.Subject)
	require.Equal(t, exampleIssuer, parsed.Issuer)
	require.Equal(t, claims.ID, parsed.ID)
	require.True(t, parsed.HasAMR(jwtx.AMRPassword))
	require.False(t, parsed.HasAMR(jwtx.AMROTP))
}

func TestEdDSASignerDerivesKID(t *testing.T) {
	signer := newSigner(t, "")
	require.NotEmpty(t, signer.KID())
	require.Equal(t, signer.KID(), signer.PublicJWK().Kid)
}

func TestThumbprintRFC8037Vector(t *testing.T) {
	x, err := base64.RawURLEncoding.DecodeString("11qYAYKxCrfVS_7TyWQHOg7hcvPapiMlrwIaaPcHURo")
	require.NoError(t, err)
	require.Equal(t, "kPrK_qmxVWaYVA9wwBF6Iuo3vVzz7TxHCTwXBygrS4k", jwtx.Thumbprint(ed25519.PublicKey(x)))
}

func TestEdDSAParseSkipsExpiry(t *testing.T) {
	signer := newSigner(t, "k1")
	issued := time.Now().Add(-3 * time.Hour)
	token, err := signer.Sign(jwtx.NewSessionClaims("a@x.com", nil, time.Hour, exampleIssuer, issued))
	require.NoError(t, err)

	v := newVerifier(t, signer)

	claims, err := v.Parse(token)
	require.NoError(t, err, "parse must not reject an expired but well signed token")
	require.ErrorIs(t, claims.ValidateExpiry(), jwtx.ErrExpired)

	_, err = v.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrExpired)
	require.NotErrorIs(t, err, jwtx.ErrMalformed)
}

func TestEdDSAVerifyFailsForWrongIssuer(t *testing.T) {
	signer := newSigner(t, "k1")
	token, err := signer.Sign(jwtx.NewSessionClaims("a@x.com", nil, time.Minute, "someone-else", time.Now()))
	require.NoError(t, err)

	_, err = newVerifier(t, signer).Verify(token)
	require.ErrorIs(t, err, jwtx.ErrMalformed)
	require.ErrorIs(t, err, jwtx.ErrIssuer)
}

func TestEdDSAVerifyFailsForUnknownKey(t *testing.T) {
	signer1 := newSigner(t, "key1")
	signer2 := newSigner(t, "key2")

	token, err := signer1.Sign(jwtx.NewSessionClaims("a@x.com", nil, time.Minute, exampleIssuer, time.Now()))
	require.NoError(t, err)

	_, err = newVerifier(t, signer2).Verify(token)
	require.ErrorIs(t, err, jwtx.ErrMalformed)
	require.ErrorIs(t, err, jwtx.ErrUnknownKID)
}

func TestEdDSAVerifyFailsForForeignKeyUnderSameKID(t *testing.T) {
	genuine := newSigner(t, "shared")
	forged := newSigner(t, "shared")

	token, err := forged.Sign(jwtx.NewSessionClaims("a@x.com", nil, time.Minute, exampleIssuer, time.Now()))
	require.NoError(t, err)

	_, err = newVerifier(t, genuine).Verify(token)
	require.ErrorIs(t, err, jwtx.ErrMalformed)
}

func TestEdDSAVerifyRejectsOtherAlgorithms(t *testing.T) {
	claims := jwtx.NewSessionClaims("a@x.com", nil, time.Minute, exampleIssuer, time.Now())
	hs := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	hs.Header["kid"] = "k1"
	token, err := hs.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = newVerifier(t, newSigner(t, "k1")).Verify(token)
	require.ErrorIs(t, err, jwtx.ErrMalformed)
}

func TestEdDSAVerifyRejectsGarbage(t *testing.T) {
	v := newVerifier(t, newSigner(t, "k1"))
	for _, token := range []string{"", "not-a-jwt", "a.b.c", "eyJhbGciOiJub25lIn0.e30."} {
		_, err := v.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrMalformed, "token %q", token)
	}
}

func TestEdDSAVerifyRejectsMissingSubject(t *testing.T) {
	signer := newSigner(t, "k1")
	token, err := signer.Sign(jwtx.NewSessionClaims("", nil, time.Minute, exampleIssuer, time.Now()))
	require.NoError(t, err)

	_, err = newVerifier(t, signer).Parse(token)
	require.ErrorIs(t, err, jwtx.ErrMalformed)
}

func TestEdDSASignerRejectsInvalidKey(t *testing.T) {
	_, err := jwtx.NewSignerEdDSA("test", []byte("not-a-pem-key"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid PEM")
}
