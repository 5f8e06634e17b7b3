package service

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/devhub/devhub-api/internal/auth"
	apperrors "github.com/devhub/devhub-api/pkg/util"
)

// Codec is the asymmetric transport capability consumed by services.
type Codec interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
	PublicKeyPEM() (string, error)
}

// TransportService translates codec failures into client-safe errors.
// Cryptographic detail is logged, never returned.
type TransportService struct {
	codec  Codec
	logger *zap.Logger
}

// NewTransportService wraps a codec.
func NewTransportService(codec Codec, logger *zap.Logger) *TransportService {
	return &TransportService{codec: codec, logger: logger.Named("transport")}
}

// PublicKey returns the PEM encoded public key clients encrypt secrets with.
func (s *TransportService) PublicKey() (string, error) {
	key, err := s.codec.PublicKeyPEM()
	if err != nil {
		s.logger.Error("public key unavailable", zap.Error(err))
		return "", apperrors.NewConfigurationError("public key not available", err)
	}
	return key, nil
}

// Encrypt is used by diagnostics only.
func (s *TransportService) Encrypt(plaintext string) (string, error) {
	ciphertext, err := s.codec.Encrypt(plaintext)
	if err != nil {
		s.logger.Error("encryption failed", zap.Error(err))
		if errors.Is(err, auth.ErrCodecDisabled) {
			return "", apperrors.NewConfigurationError("encryption unavailable", err)
		}
		return "", apperrors.NewCryptoError("encryption failed", http.StatusInternalServerError, err)
	}
	return ciphertext, nil
}

// DecryptSecret recovers a secret sent by a client. Key absence is a 500,
// anything wrong with the ciphertext is a 400.
func (s *TransportService) DecryptSecret(ciphertext string) (string, error) {
	plaintext, err := s.codec.Decrypt(ciphertext)
	if err != nil {
		if errors.Is(err, auth.ErrCodecDisabled) {
			s.logger.Error("decryption unavailable", zap.Error(err))
			return "", apperrors.NewConfigurationError("decryption unavailable", err)
		}
		s.logger.Warn("failed to decrypt client secret", zap.Error(err))
		return "", apperrors.NewCryptoError("failed to decrypt password", http.StatusBadRequest, err)
	}
	return plaintext, nil
}
