package sheets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/scrypt"
)

// scrypt parameters for credential key derivation. N follows the
// OWASP minimum for interactive use; the key length matches AES-256.
const (
	scryptN      = 32768
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
	nonceSize    = 12
)

// EncryptedPayload is the on-disk form of an encrypted service account
// key. The integrity hash is checked before any decryption work runs.
type EncryptedPayload struct {
	Version    uint8  `json:"version"`
	Salt       []byte `json:"salt"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
	Integrity  []byte `json:"integrity"`
}

// EncryptCredentials seals a service account JSON under a passphrase.
// Used by the report tool to prepare credential files that are safe to
// ship alongside the service.
func EncryptCredentials(plaintext []byte, passphrase string) (*EncryptedPayload, error) {
	if len(plaintext) == 0 {
		return nil, errors.New("credentials are empty")
	}
	if passphrase == "" {
		return nil, errors.New("passphrase is empty")
	}

	salt := make([]byte, 32)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	key, err := scrypt.Key([]byte(passphrase), salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("key derivation failed: %w", err)
	}
	defer wipe(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)

	return &EncryptedPayload{
		Version:    1,
		Salt:       salt,
		Nonce:      nonce,
		Ciphertext: ciphertext,
		Integrity:  integrityHash(ciphertext, salt, nonce),
	}, nil
}

// DecryptCredentials opens a sealed payload. Tampering surfaces as an
// integrity error before key derivation, and as a GCM failure after.
func DecryptCredentials(payload *EncryptedPayload, passphrase string) ([]byte, error) {
	if payload == nil {
		return nil, errors.New("payload is nil")
	}
	if payload.Version != 1 {
		return nil, fmt.Errorf("unsupported payload version %d", payload.Version)
	}
	if passphrase == "" {
		return nil, errors.New("passphrase is empty")
	}

	expected := integrityHash(payload.Ciphertext, payload.Salt, payload.Nonce)
	if subtle.ConstantTimeCompare(payload.Integrity, expected) != 1 {
		return nil, errors.New("integrity verification failed")
	}

	key, err := scrypt.Key([]byte(passphrase), payload.Salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("key derivation failed: %w", err)
	}
	defer wipe(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	plaintext, err := gcm.Open(nil, payload.Nonce, payload.Ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decryption failed: %w", err)
	}
	return plaintext, nil
}

// LoadCredentials reads a service account key from disk. The file may
// hold either the plain JSON issued by the cloud console or an
// EncryptedPayload produced by EncryptCredentials; encrypted files
// need the passphrase.
func LoadCredentials(path, passphrase string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	var payload EncryptedPayload
	if err := json.Unmarshal(data, &payload); err == nil && payload.Version > 0 && len(payload.Ciphertext) > 0 {
		plaintext, err := DecryptCredentials(&payload, passphrase)
		if err != nil {
			return nil, fmt.Errorf("encrypted credentials in %s: %w", path, err)
		}
		return plaintext, nil
	}

	if !json.Valid(data) {
		return nil, fmt.Errorf("credentials file %s is neither service account JSON nor an encrypted payload", path)
	}
	return data, nil
}

func integrityHash(ciphertext, salt, nonce []byte) []byte {
	h := sha256.New()
	h.Write([]byte("SALESPULSE-CREDS-V1"))
	h.Write(ciphertext)
	h.Write(salt)
	h.Write(nonce)
	return h.Sum(nil)
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
