package handlers

import (
	"github.com/BradenHooton/authguard/internal/models"
)

// Request DTOs

// PasswordStrengthRequest represents the request body for strength scoring
type PasswordStrengthRequest struct {
	Password string `json:"password" validate:"max=1024"`
}

// PrecheckRequest represents a login about to be processed. Username and
// password rules are applied by the guard so every violation is reported.
type PrecheckRequest struct {
	Username   string            `json:"username" validate:"max=256"`
	Password   string            `json:"password" validate:"max=1024"`
	Attributes map[string]string `json:"attributes" validate:"max=64,dive,keys,max=64,endkeys,max=4096"`
}

// OutcomeRequest reports the result of the credential check
type OutcomeRequest struct {
	Username string `json:"username" validate:"required,min=3,max=256,username_chars"`
	Success  *bool  `json:"success" validate:"required"`
}

// DetectRequest carries a caller-held attempt history. Window is a Go
// duration string such as "30m"; empty uses the configured window.
type DetectRequest struct {
	Attempts []models.AttemptRecord `json:"attempts" validate:"max=10000"`
	Window   string                 `json:"window" validate:"max=32"`
}

// FingerprintRequest carries the environment attributes to combine
type FingerprintRequest struct {
	Attributes map[string]string `json:"attributes" validate:"required,max=64,dive,keys,max=64,endkeys,max=4096"`
}

// SealRequest carries base64 plaintext to encrypt
type SealRequest struct {
	Plaintext []byte `json:"plaintext" validate:"max=65536"`
}

// OpenRequest carries a payload produced by /v1/payload/seal
type OpenRequest struct {
	Ciphertext []byte `json:"ciphertext" validate:"required"`
	IV         []byte `json:"iv" validate:"required"`
}

// Response DTOs

// DecisionResponse is the rate limit state of one identifier
type DecisionResponse struct {
	Identifier        string `json:"identifier"`
	Allowed           bool   `json:"allowed"`
	AttemptsLeft      int    `json:"attemptsLeft"`
	RetryAfterSeconds int    `json:"retryAfterSeconds"`
}

// FingerprintResponse wraps a generated fingerprint
type FingerprintResponse struct {
	Fingerprint string `json:"fingerprint"`
}

// OpenResponse carries decrypted bytes (base64 in JSON)
type OpenResponse struct {
	Plaintext []byte `json:"plaintext"`
}
