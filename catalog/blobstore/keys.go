package blobstore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	keySize = 32

	encryptionInfo = "mailmanifest blob encryption v1"
	signingInfo    = "mailmanifest blob url signing v1"
)

var ErrCiphertextTooShort = errors.New("encrypted data too short")

// deriveKey expands the master secret into an independent key for one purpose.
func deriveKey(secret []byte, info string) ([]byte, error) {
	if len(secret) == 0 {
		return nil, errors.New("blob secret cannot be empty")
	}
	key := make([]byte, keySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return key, nil
}

func newAEAD(secret []byte) (cipher.AEAD, error) {
	key, err := deriveKey(secret, encryptionInfo)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// seal encrypts data with a random nonce prepended to the ciphertext.
// The object key is bound as additional data so ciphertexts cannot be swapped between keys.
func seal(aead cipher.AEAD, data []byte, objectKey string) ([]byte, error) {
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return aead.Seal(nonce, nonce, data, []byte(objectKey)), nil
}

func open(aead cipher.AEAD, encrypted []byte, objectKey string) ([]byte, error) {
	if len(encrypted) < aead.NonceSize() {
		return nil, ErrCiphertextTooShort
	}

	nonce := encrypted[:aead.NonceSize()]
	plaintext, err := aead.Open(nil, nonce, encrypted[aead.NonceSize():], []byte(objectKey))
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt data: %w", err)
	}
	return plaintext, nil
}
