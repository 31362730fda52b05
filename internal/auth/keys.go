package auth

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"alpha-duel/sdk"
)

// AddressPrefix marks account addresses backed by an ed25519 key.
const AddressPrefix = "ed25519:"

// AddressFor returns the account address of pub.
func AddressFor(pub ed25519.PublicKey) sdk.Address {
	return sdk.Address(AddressPrefix + base64.RawURLEncoding.EncodeToString(pub))
}

// PublicKeyOf extracts the verification key from an account address.
func PublicKeyOf(addr sdk.Address) (ed25519.PublicKey, error) {
	raw, ok := strings.CutPrefix(addr.String(), AddressPrefix)
	if !ok {
		return nil, fmt.Errorf("address %q is not an %s address", addr, strings.TrimSuffix(AddressPrefix, ":"))
	}
	key, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("decode address key: %w", err)
	}
	if len(key) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("address key must be %d bytes", ed25519.PublicKeySize)
	}
	return ed25519.PublicKey(key), nil
}

// GenerateKey creates a new account key pair.
func GenerateKey() (sdk.Address, ed25519.PrivateKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return "", nil, fmt.Errorf("generate key: %w", err)
	}
	return AddressFor(pub), priv, nil
}

// EncodePrivateKey renders a private key as unpadded standard base64.
func EncodePrivateKey(key ed25519.PrivateKey) string {
	return base64.RawStdEncoding.EncodeToString(key)
}

// DecodePrivateKey parses a base64 private key, padded or not.
func DecodePrivateKey(value string) (ed25519.PrivateKey, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, errors.New("empty private key")
	}
	decoded, err := base64.RawStdEncoding.DecodeString(value)
	if err != nil {
		decoded, err = base64.StdEncoding.DecodeString(value)
		if err != nil {
			return nil, fmt.Errorf("decode private key: %w", err)
		}
	}
	if len(decoded) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("private key must be %d bytes", ed25519.PrivateKeySize)
	}
	return ed25519.PrivateKey(decoded), nil
}
