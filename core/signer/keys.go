// Package signer holds the node's ed25519 identity, used to sign chain
// exports so a copy can be attributed to the node that produced it.
package signer

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	PrivKeyFile = "node_ed25519.priv"
	PubKeyFile  = "node_ed25519.pub"
)

// NodeKey is an ed25519 keypair.
type NodeKey struct {
	Public  ed25519.PublicKey
	private ed25519.PrivateKey
}

// Generate creates a fresh keypair that is not written anywhere.
func Generate() (*NodeKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &NodeKey{Public: pub, private: priv}, nil
}

// LoadOrGenerate loads the keypair from dir, creating and saving one if the
// private key file is absent. It reports whether a new key was generated.
func LoadOrGenerate(dir string) (*NodeKey, bool, error) {
	privPath := filepath.Join(dir, PrivKeyFile)
	if _, err := os.Stat(privPath); err == nil {
		k, err := Load(dir)
		return k, false, err
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, false, err
	}

	k, err := Generate()
	if err != nil {
		return nil, false, err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, false, err
	}
	if err := os.WriteFile(privPath, []byte(hex.EncodeToString(k.private)), 0o600); err != nil {
		return nil, false, fmt.Errorf("write private key: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, PubKeyFile), []byte(k.PublicHex()), 0o644); err != nil {
		return nil, false, fmt.Errorf("write public key: %w", err)
	}
	return k, true, nil
}

// Load reads the keypair from dir and checks that both halves match.
func Load(dir string) (*NodeKey, error) {
	privHex, err := os.ReadFile(filepath.Join(dir, PrivKeyFile))
	if err != nil {
		return nil, err
	}
	priv, err := hex.DecodeString(strings.TrimSpace(string(privHex)))
	if err != nil || len(priv) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%s: invalid ed25519 private key", PrivKeyFile)
	}
	key := ed25519.PrivateKey(priv)
	pub := key.Public().(ed25519.PublicKey)

	if pubHex, err := os.ReadFile(filepath.Join(dir, PubKeyFile)); err == nil {
		if strings.TrimSpace(string(pubHex)) != hex.EncodeToString(pub) {
			return nil, fmt.Errorf("%s does not match %s", PubKeyFile, PrivKeyFile)
		}
	}
	return &NodeKey{Public: pub, private: key}, nil
}

// PublicHex is the hex encoded public key.
func (k *NodeKey) PublicHex() string {
	return hex.EncodeToString(k.Public)
}

// SeedHex is the hex encoded 32 byte seed, the form EnvKeyLoader accepts.
func (k *NodeKey) SeedHex() string {
	return hex.EncodeToString(k.private.Seed())
}
