package pasetotoken

import (
	"time"

	"github.com/Alijeyrad/clinicflow_backend/config"
)

// NewPasetoManager builds the session token manager from the
// authentication.paseto config section.
func NewPasetoManager(cfg *config.Config) (*Manager, error) {
	p := cfg.Authentication.Paseto
	mode := Mode(p.Mode)

	keys, err := LoadKeys(KeyStrings{
		Mode:         mode,
		SymmetricHex: p.LocalKeyHex,
		SecretHex:    p.SecretKeyHex,
		PublicHex:    p.PublicKeyHex,
	})
	if err != nil {
		return nil, err
	}

	return New(Config{
		Mode:       mode,
		Issuer:     p.Issuer,
		Audience:   p.Audience,
		AccessTTL:  time.Duration(p.AccessTTLMinutes) * time.Minute,
		RefreshTTL: time.Duration(p.RefreshTTLDays) * 24 * time.Hour,
	}, keys)
}
