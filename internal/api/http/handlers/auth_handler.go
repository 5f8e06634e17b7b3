package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/devhub/devhub-api/internal/api/dto"
	"github.com/devhub/devhub-api/internal/service"
)

// AuthHandler exposes credential endpoints.
type AuthHandler struct {
	auth      *service.AuthService
	transport *service.TransportService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, transport *service.TransportService) *AuthHandler {
	return &AuthHandler{auth: authService, transport: transport}
}

// PublicKey handles GET /auth/public_key.
func (h *AuthHandler) PublicKey(c *fiber.Ctx) error {
	key, err := h.transport.PublicKey()
	if err != nil {
		return err
	}
	return c.JSON(dto.PublicKeyResponse{PublicKey: key})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	password, err := h.transport.DecryptSecret(req.Password)
	if err != nil {
		return err
	}

	cred, err := h.auth.Login(c.UserContext(), req.Identifier, password)
	if err != nil {
		return err
	}

	return c.JSON(dto.AuthResponse{
		Message:   "Login successful",
		Token:     cred.Token,
		ExpiresAt: cred.ExpiresAt,
	})
}

// ValidateToken handles POST /auth/validate_token.
func (h *AuthHandler) ValidateToken(c *fiber.Ctx) error {
	var req dto.TokenRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if err := h.auth.ValidateToken(c.UserContext(), req.Token); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "Token is valid"})
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var req dto.TokenRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if err := h.auth.Logout(c.UserContext(), req.Token); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "Logged out successfully"})
}

// Sweep handles POST /auth/sweep.
func (h *AuthHandler) Sweep(c *fiber.Ctx) error {
	return c.JSON(dto.SweepResponse{Removed: h.auth.SweepExpired(c.UserContext())})
}

// Me handles GET /auth/me. The gate only proves some valid token was presented.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"authenticated": true})
}

// EncryptTest handles GET /auth/encrypt_test/:plaintext.
func (h *AuthHandler) EncryptTest(c *fiber.Ctx) error {
	plaintext := c.Params("plaintext")
	ciphertext, err := h.transport.Encrypt(plaintext)
	if err != nil {
		return err
	}
	return c.JSON(dto.CryptoTestResponse{Plaintext: plaintext, Ciphertext: ciphertext})
}

// DecryptTest handles POST /auth/decrypt_test.
func (h *AuthHandler) DecryptTest(c *fiber.Ctx) error {
	var req dto.DecryptRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	plaintext, err := h.transport.DecryptSecret(req.Ciphertext)
	if err != nil {
		return err
	}
	return c.JSON(dto.CryptoTestResponse{Plaintext: plaintext, Ciphertext: req.Ciphertext})
}
