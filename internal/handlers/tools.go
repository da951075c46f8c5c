package handlers

import (
	"context"
	"errors"
	"net/http"

	pkgauth "github.com/BradenHooton/authguard/pkg/auth"
	"github.com/BradenHooton/authguard/pkg/crypto"
	"github.com/BradenHooton/authguard/pkg/fingerprint"
	pkghttp "github.com/BradenHooton/authguard/pkg/http"
)

// PayloadServiceInterface seals and opens payloads under the service key
type PayloadServiceInterface interface {
	Seal(ctx context.Context, plaintext []byte) (*crypto.EncryptedPayload, error)
	Open(ctx context.Context, payload *crypto.EncryptedPayload) ([]byte, error)
}

// ToolsHandler serves the stateless helpers: strength scoring, fingerprints
// and payload encryption
type ToolsHandler struct {
	payloads PayloadServiceInterface
}

// NewToolsHandler creates a new ToolsHandler
func NewToolsHandler(payloads PayloadServiceInterface) *ToolsHandler {
	return &ToolsHandler{payloads: payloads}
}

// PasswordStrength scores a password
// @Router /v1/password/strength [post]
func (h *ToolsHandler) PasswordStrength(w http.ResponseWriter, r *http.Request) {
	var req PasswordStrengthRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, pkgauth.Analyze(req.Password))
}

// Fingerprint combines environment attributes into a device identifier
// @Router /v1/fingerprint [post]
func (h *ToolsHandler) Fingerprint(w http.ResponseWriter, r *http.Request) {
	var req FingerprintRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, FingerprintResponse{
		Fingerprint: fingerprint.Generate(req.Attributes),
	})
}

// Seal encrypts a payload
// @Router /v1/payload/seal [post]
func (h *ToolsHandler) Seal(w http.ResponseWriter, r *http.Request) {
	var req SealRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	payload, err := h.payloads.Seal(r.Context(), req.Plaintext)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, payload)
}

// Open decrypts a payload. Every decryption failure gets the same response.
// @Router /v1/payload/open [post]
func (h *ToolsHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req OpenRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	plaintext, err := h.payloads.Open(r.Context(), &crypto.EncryptedPayload{
		Ciphertext: req.Ciphertext,
		IV:         req.IV,
	})
	if err != nil {
		if errors.Is(err, crypto.ErrAuthenticationFailed) {
			pkghttp.WriteError(w, http.StatusBadRequest, "decryption_failed", "payload could not be decrypted")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, OpenResponse{Plaintext: plaintext})
}
