package signer

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

// KeyEnvVar holds a hex ed25519 seed or private key for deployments that
// inject secrets through the environment.
const KeyEnvVar = "COURT_NODE_KEY"

// KeyLoader yields the node key from some backing source.
type KeyLoader interface {
	LoadKey() (*NodeKey, error)
}

// EnvKeyLoader reads the key from an environment variable, KeyEnvVar by
// default. Nothing is written to disk.
type EnvKeyLoader struct {
	Var string
}

func (l EnvKeyLoader) LoadKey() (*NodeKey, error) {
	name := l.Var
	if name == "" {
		name = KeyEnvVar
	}
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return nil, fmt.Errorf("%s not set in environment", name)
	}
	k, err := FromHex(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return k, nil
}

// DirKeyLoader loads the keypair files from Dir, generating them on first
// use. Created is set after a LoadKey call that generated a new key.
type DirKeyLoader struct {
	Dir     string
	Created bool
}

func (l *DirKeyLoader) LoadKey() (*NodeKey, error) {
	k, created, err := LoadOrGenerate(l.Dir)
	l.Created = created
	return k, err
}

// LoaderFor prefers the environment when KeyEnvVar is set and falls back to
// the key files in dir.
func LoaderFor(dir string) KeyLoader {
	if os.Getenv(KeyEnvVar) != "" {
		return EnvKeyLoader{}
	}
	return &DirKeyLoader{Dir: dir}
}

// FromHex accepts a 32 byte seed or a 64 byte private key.
func FromHex(s string) (*NodeKey, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex key: %w", err)
	}
	var priv ed25519.PrivateKey
	switch len(raw) {
	case ed25519.SeedSize:
		priv = ed25519.NewKeyFromSeed(raw)
	case ed25519.PrivateKeySize:
		priv = ed25519.PrivateKey(raw)
	default:
		return nil, fmt.Errorf("ed25519 key must be %d or %d bytes, got %d", ed25519.SeedSize, ed25519.PrivateKeySize, len(raw))
	}
	return &NodeKey{Public: priv.Public().(ed25519.PublicKey), private: priv}, nil
}
