package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/doorman/pkg/authsdk"
	"github.com/aussiebroadwan/doorman/pkg/httpx"
	"github.com/aussiebroadwan/doorman/pkg/jwtx"
)

// jwksMaxAge lets verifiers cache the key set. The key only changes on
// restart with an ephemeral key.
const jwksMaxAge = 5 * time.Minute

// JWKSHandler godoc
//
//	@Summary		Get JWKS
//	@Description	Returns the Ed25519 public keys session tokens are signed with, for offline verification.
//	@Tags			well-known
//	@Produce		json
//	@Success		200	{object}	authsdk.JWKSResponse	"The JSON Web Key Set"
//	@Failure		503	{object}	authsdk.APIError	"No signing key loaded"
//	@Router			/.well-known/jwks.json [get]
func JWKSHandler(keys *jwtx.KeySet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !keys.IsReady() {
			httpx.WriteError(w, http.StatusServiceUnavailable, "No signing key loaded")
			return
		}
		httpx.WriteCacheableJSON(w, http.StatusOK, jwksMaxAge, authsdk.JWKSResponse(keys.PublicJWKS()))
	}
}
