package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
)

// KeyProvider resolves the HMAC key for a token's kid header.
type KeyProvider interface {
	SigningKey() (kid string, key []byte)
	VerificationKey(kid string) ([]byte, error)
}

var ErrUnknownKey = errors.New("unknown signing key")

// StaticKeyProvider serves a single shared secret.
type StaticKeyProvider struct {
	Kid    string
	Secret []byte
}

func (p *StaticKeyProvider) SigningKey() (string, []byte) {
	return p.Kid, p.Secret
}

func (p *StaticKeyProvider) VerificationKey(kid string) ([]byte, error) {
	if len(p.Secret) == 0 || kid != p.Kid {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKey, kid)
	}
	return p.Secret, nil
}

// NewStaticKeyProvider wraps secret. An empty secret is replaced by 32
// random bytes, so tokens do not survive a restart.
func NewStaticKeyProvider(kid, secret string) (*StaticKeyProvider, bool, error) {
	if secret != "" {
		return &StaticKeyProvider{Kid: kid, Secret: []byte(secret)}, false, nil
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, false, err
	}
	return &StaticKeyProvider{Kid: kid, Secret: buf}, true, nil
}
