package blobstore

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type URLMode string

const (
	// URLModePublic links straight to a public base URL; links never expire
	URLModePublic URLMode = "public"
	// URLModeSigned links to this service's /blobs route with an expiring HMAC signature
	URLModeSigned URLMode = "signed"

	DefaultURLTTL = time.Hour
	BlobRoute     = "/blobs/"
)

var (
	ErrSignatureExpired = errors.New("signed url expired")
	ErrSignatureInvalid = errors.New("signed url signature invalid")
)

// ParseURLMode accepts "public" or "signed"; empty means signed.
func ParseURLMode(s string) (URLMode, error) {
	switch URLMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", URLModeSigned:
		return URLModeSigned, nil
	case URLModePublic:
		return URLModePublic, nil
	}
	return "", fmt.Errorf("unknown blob url mode %q", s)
}

// Signer issues and verifies expiring links to blobs.
type Signer struct {
	key     []byte
	baseURL string
	ttl     time.Duration
	now     func() time.Time
}

func NewSigner(secret []byte, baseURL string, ttl time.Duration) (*Signer, error) {
	key, err := deriveKey(secret, signingInfo)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = DefaultURLTTL
	}
	return &Signer{
		key:     key,
		baseURL: strings.TrimRight(baseURL, "/"),
		ttl:     ttl,
		now:     time.Now,
	}, nil
}

func (s *Signer) signature(key string, expires int64) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(key))
	mac.Write([]byte{'\n'})
	mac.Write([]byte(strconv.FormatInt(expires, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

// URL returns a link to key valid for the signer's TTL.
func (s *Signer) URL(key string) string {
	expires := s.now().Add(s.ttl).Unix()
	q := url.Values{}
	q.Set("expires", strconv.FormatInt(expires, 10))
	q.Set("signature", s.signature(key, expires))
	return s.baseURL + BlobRoute + key + "?" + q.Encode()
}

// Verify checks a signature produced by URL.
func (s *Signer) Verify(key, expires, signature string) error {
	exp, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		return ErrSignatureInvalid
	}

	want := s.signature(key, exp)
	if !hmac.Equal([]byte(want), []byte(strings.ToLower(signature))) {
		return ErrSignatureInvalid
	}
	if s.now().Unix() > exp {
		return ErrSignatureExpired
	}
	return nil
}
