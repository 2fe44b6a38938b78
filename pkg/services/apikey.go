package services

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/fluxionhq/fluxion/pkg/models"
)

// apiKeyRandomBytes yields 43 url-safe characters after base64 encoding.
const apiKeyRandomBytes = 32

// GenerateAPIKey mints a new plaintext API key and its bcrypt hash. The
// plaintext form is returned to the caller exactly once; only the hash is
// stored.
func GenerateAPIKey() (plaintext, hash string, err error) {
	raw := make([]byte, apiKeyRandomBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", "", fmt.Errorf("failed to generate API key: %w", err)
	}

	plaintext = models.APIKeyPrefix + base64.RawURLEncoding.EncodeToString(raw)

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", "", fmt.Errorf("failed to hash API key: %w", err)
	}

	return plaintext, string(hashed), nil
}

// VerifyAPIKey compares a presented key against the stored hash.
func VerifyAPIKey(hash, presented string) error {
	if presented == "" {
		return ErrMissingAPIKey
	}

	if !strings.HasPrefix(presented, models.APIKeyPrefix) {
		return ErrInvalidAPIKey
	}

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(presented))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidAPIKey
		}

		return fmt.Errorf("failed to verify API key: %w", err)
	}

	return nil
}
