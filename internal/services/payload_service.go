package services

import (
	"context"
	"time"

	"github.com/BradenHooton/authguard/internal/auth"
	"github.com/BradenHooton/authguard/pkg/crypto"
	"github.com/BradenHooton/authguard/pkg/logger"
)

// payloadKeyInfo binds the derived key to this use
const payloadKeyInfo = "authguard/payload/v1"

// PayloadService seals and opens payloads with a key derived from the
// configured secret. The key never leaves the service.
type PayloadService struct {
	key         []byte
	timing      *auth.TimingDelay
	auditLogger *logger.AuditLogger
}

// NewPayloadService derives the AES-256 key from secret. timing may be nil.
func NewPayloadService(secret string, timing *auth.TimingDelay, auditLogger *logger.AuditLogger) (*PayloadService, error) {
	key, err := crypto.DeriveKey([]byte(secret), payloadKeyInfo)
	if err != nil {
		return nil, err
	}
	return &PayloadService{
		key:         key,
		timing:      timing,
		auditLogger: auditLogger,
	}, nil
}

// Seal encrypts plaintext under the service key
func (s *PayloadService) Seal(ctx context.Context, plaintext []byte) (*crypto.EncryptedPayload, error) {
	payload, err := crypto.Encrypt(plaintext, s.key)
	if err != nil {
		s.auditLogger.LogCryptoFailure(ctx, "encrypt", err)
		return nil, err
	}
	return payload, nil
}

// Open decrypts payload. Every failure is audited and padded to the same
// latency before the error is returned.
func (s *PayloadService) Open(ctx context.Context, payload *crypto.EncryptedPayload) ([]byte, error) {
	start := time.Now()

	plaintext, err := crypto.Decrypt(payload, s.key)
	if err != nil {
		s.auditLogger.LogCryptoFailure(ctx, "decrypt", err)
		if s.timing != nil {
			s.timing.WaitFrom(ctx, start, false)
		}
		return nil, err
	}
	return plaintext, nil
}
