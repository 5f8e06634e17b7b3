package dto

import "time"

// LoginRequest payload for login. Password is base64 OAEP ciphertext.
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required,base64"`
}

// TokenRequest carries a bearer token in the body.
type TokenRequest struct {
	Token string `json:"token" validate:"required"`
}

// DecryptRequest payload for the decrypt diagnostics endpoint.
type DecryptRequest struct {
	Ciphertext string `json:"ciphertext" validate:"required"`
}

// AuthResponse standard response for login.
type AuthResponse struct {
	Message   string    `json:"message"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// PublicKeyResponse wraps the PEM encoded transport key.
type PublicKeyResponse struct {
	PublicKey string `json:"publicKey"`
}

// CryptoTestResponse echoes both sides of a diagnostics round.
type CryptoTestResponse struct {
	Plaintext  string `json:"plaintext"`
	Ciphertext string `json:"ciphertext"`
}

// SweepResponse reports how many credentials were removed.
type SweepResponse struct {
	Removed int64 `json:"removed"`
}
