package pasetotoken

import (
	"strings"

	paseto "aidanwoods.dev/go-paseto"
)

type Mode string

const (
	ModeLocal  Mode = "local"  // v4.local, encrypted
	ModePublic Mode = "public" // v4.public, signed
)

// Keys holds the key material for one Mode. In public mode a verify-only
// instance may carry just the public key.
type Keys struct {
	Mode Mode

	Symmetric *paseto.V4SymmetricKey

	Secret *paseto.V4AsymmetricSecretKey
	Public *paseto.V4AsymmetricPublicKey
}

// KeyStrings is Keys as hex, the way it appears in config.
type KeyStrings struct {
	Mode         Mode
	SymmetricHex string
	SecretHex    string
	PublicHex    string
}

func LoadKeys(in KeyStrings) (Keys, error) {
	switch in.Mode {
	case ModeLocal:
		return loadLocal(strings.TrimSpace(in.SymmetricHex))
	case ModePublic:
		return loadPublic(strings.TrimSpace(in.SecretHex), strings.TrimSpace(in.PublicHex))
	default:
		return Keys{}, ErrConfig{Msg: "mode must be local or public, got " + string(in.Mode)}
	}
}

func loadLocal(symHex string) (Keys, error) {
	if symHex == "" {
		return Keys{}, ErrConfig{Msg: "local mode requires local_key_hex"}
	}
	k, err := paseto.V4SymmetricKeyFromHex(symHex)
	if err != nil {
		return Keys{}, ErrConfig{Msg: "local_key_hex: " + err.Error()}
	}
	return Keys{Mode: ModeLocal, Symmetric: &k}, nil
}

// loadPublic derives the public key from the secret when only the secret
// is configured. An explicit public key wins.
func loadPublic(secHex, pubHex string) (Keys, error) {
	if secHex == "" && pubHex == "" {
		return Keys{}, ErrConfig{Msg: "public mode requires secret_key_hex or public_key_hex"}
	}
	out := Keys{Mode: ModePublic}
	if secHex != "" {
		sk, err := paseto.NewV4AsymmetricSecretKeyFromHex(secHex)
		if err != nil {
			return Keys{}, ErrConfig{Msg: "secret_key_hex: " + err.Error()}
		}
		pk := sk.Public()
		out.Secret, out.Public = &sk, &pk
	}
	if pubHex != "" {
		pk, err := paseto.NewV4AsymmetricPublicKeyFromHex(pubHex)
		if err != nil {
			return Keys{}, ErrConfig{Msg: "public_key_hex: " + err.Error()}
		}
		out.Public = &pk
	}
	return out, nil
}

// NewLocalKeys generates a fresh symmetric key. Tests and dev only.
func NewLocalKeys() Keys {
	k := paseto.NewV4SymmetricKey()
	return Keys{Mode: ModeLocal, Symmetric: &k}
}

func NewPublicKeys() Keys {
	sk := paseto.NewV4AsymmetricSecretKey()
	pk := sk.Public()
	return Keys{Mode: ModePublic, Secret: &sk, Public: &pk}
}
