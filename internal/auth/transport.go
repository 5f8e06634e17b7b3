package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// TransportCodec encrypts small secrets for client-to-server transport using
// RSA-OAEP with SHA-256 for both the digest and MGF1, and no label.
// Keys are immutable after construction. A nil key leaves that half disabled.
type TransportCodec struct {
	public  *rsa.PublicKey
	private *rsa.PrivateKey
}

// NewTransportCodec builds a codec from already parsed keys. Either may be nil.
func NewTransportCodec(public *rsa.PublicKey, private *rsa.PrivateKey) *TransportCodec {
	return &TransportCodec{public: public, private: private}
}

// LoadTransportCodec parses PEM key material. Empty or unparsable material
// degrades the codec instead of failing startup; the problem is logged.
func LoadTransportCodec(publicPEM, privatePEM string, logger *zap.Logger) *TransportCodec {
	codec := &TransportCodec{}

	if strings.TrimSpace(publicPEM) == "" {
		logger.Warn("RSA public key not provided; encryption disabled")
	} else if key, err := ParsePublicKey([]byte(publicPEM)); err != nil {
		logger.Error("failed to parse RSA public key; encryption disabled", zap.Error(err))
	} else {
		codec.public = key
	}

	if strings.TrimSpace(privatePEM) == "" {
		logger.Warn("RSA private key not provided; decryption disabled")
	} else if key, err := ParsePrivateKey([]byte(privatePEM)); err != nil {
		logger.Error("failed to parse RSA private key; decryption disabled", zap.Error(err))
	} else {
		codec.private = key
	}

	return codec
}

// Encrypt returns the base64 (standard, padded) OAEP ciphertext of plaintext.
func (c *TransportCodec) Encrypt(plaintext string) (string, error) {
	if c == nil || c.public == nil {
		return "", ErrPublicKeyUnavailable
	}
	ciphertext, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, c.public, []byte(plaintext), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncryptFailed, err)
	}
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt reverses Encrypt. The recovered plaintext must be valid UTF-8.
func (c *TransportCodec) Decrypt(ciphertextB64 string) (string, error) {
	if c == nil || c.private == nil {
		return "", ErrPrivateKeyUnavailable
	}
	ciphertext, err := base64.StdEncoding.DecodeString(strings.TrimSpace(ciphertextB64))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedCiphertext, err)
	}
	plaintext, err := rsa.DecryptOAEP(sha256.New(), nil, c.private, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryptFailed, err)
	}
	if !utf8.Valid(plaintext) {
		return "", fmt.Errorf("%w: plaintext is not valid utf-8", ErrDecryptFailed)
	}
	return string(plaintext), nil
}

// PublicKeyPEM returns the public key as a PKIX "PUBLIC KEY" block.
func (c *TransportCodec) PublicKeyPEM() (string, error) {
	if c == nil || c.public == nil {
		return "", ErrPublicKeyUnavailable
	}
	der, err := x509.MarshalPKIXPublicKey(c.public)
	if err != nil {
		return "", fmt.Errorf("marshal public key: %w", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})), nil
}

// MaxPlaintextSize is the largest plaintext Encrypt accepts for the loaded key.
func (c *TransportCodec) MaxPlaintextSize() int {
	if c == nil || c.public == nil {
		return 0
	}
	return c.public.Size() - 2*sha256.Size - 2
}

// Enabled reports which halves of the codec are usable.
func (c *TransportCodec) Enabled() (encrypt, decrypt bool) {
	if c == nil {
		return false, false
	}
	return c.public != nil, c.private != nil
}

// ParsePublicKey accepts PKIX ("PUBLIC KEY") or PKCS#1 ("RSA PUBLIC KEY") PEM.
func ParsePublicKey(data []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("no PEM block found")
	}
	switch block.Type {
	case "PUBLIC KEY":
		key, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		rsaKey, ok := key.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("unsupported public key type %T", key)
		}
		return rsaKey, nil
	case "RSA PUBLIC KEY":
		return x509.ParsePKCS1PublicKey(block.Bytes)
	default:
		return nil, fmt.Errorf("unexpected PEM block %q", block.Type)
	}
}

// ParsePrivateKey accepts unencrypted PKCS#8 ("PRIVATE KEY") or PKCS#1 ("RSA PRIVATE KEY") PEM.
func ParsePrivateKey(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("no PEM block found")
	}
	switch block.Type {
	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("unsupported private key type %T", key)
		}
		return rsaKey, nil
	case "RSA PRIVATE KEY":
		return x509.ParsePKCS1PrivateKey(block.Bytes)
	default:
		return nil, fmt.Errorf("unexpected PEM block %q", block.Type)
	}
}
