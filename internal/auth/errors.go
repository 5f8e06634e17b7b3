package auth

import "errors"

// ErrCodecDisabled is matched by every error caused by missing key material.
var ErrCodecDisabled = errors.New("transport codec disabled")

var (
	ErrPublicKeyUnavailable  = &codecError{msg: "public key not loaded"}
	ErrPrivateKeyUnavailable = &codecError{msg: "private key not loaded"}

	ErrMalformedCiphertext = errors.New("ciphertext is not valid base64")
	ErrDecryptFailed       = errors.New("decryption failed")
	ErrEncryptFailed       = errors.New("encryption failed")

	ErrSigningSecretMissing = errors.New("signing secret not configured")
	ErrTokenExpired         = errors.New("token expired")
	ErrTokenInvalid         = errors.New("token invalid")

	ErrStoreUnavailable = errors.New("credential store unavailable")
)

type codecError struct {
	msg string
}

func (e *codecError) Error() string { return e.msg }

func (e *codecError) Is(target error) bool { return target == ErrCodecDisabled }
