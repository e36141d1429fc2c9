// Package pasetotoken issues and verifies the v4 PASETO access and refresh
// tokens that back user sessions.
package pasetotoken

import (
	"fmt"
	"time"

	paseto "aidanwoods.dev/go-paseto"
	"github.com/google/uuid"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 30 * 24 * time.Hour
)

type Config struct {
	Mode     Mode
	Issuer   string
	Audience string

	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Implicit is bound into every token without being transmitted.
	Implicit []byte
}

// codec seals and opens tokens for one mode.
type codec interface {
	seal(tok paseto.Token, implicit []byte) (string, error)
	open(p paseto.Parser, raw string, implicit []byte) (*paseto.Token, error)
}

type localCodec struct{ key *paseto.V4SymmetricKey }

func (c localCodec) seal(tok paseto.Token, implicit []byte) (string, error) {
	return tok.V4Encrypt(*c.key, implicit), nil
}

func (c localCodec) open(p paseto.Parser, raw string, implicit []byte) (*paseto.Token, error) {
	return p.ParseV4Local(*c.key, raw, implicit)
}

type publicCodec struct {
	secret *paseto.V4AsymmetricSecretKey
	public *paseto.V4AsymmetricPublicKey
}

func (c publicCodec) seal(tok paseto.Token, implicit []byte) (string, error) {
	if c.secret == nil {
		return "", ErrConfig{Msg: "verify-only manager cannot issue tokens"}
	}
	return tok.V4Sign(*c.secret, implicit), nil
}

func (c publicCodec) open(p paseto.Parser, raw string, implicit []byte) (*paseto.Token, error) {
	return p.ParseV4Public(*c.public, raw, implicit)
}

type Manager struct {
	cfg    Config
	codec  codec
	parser paseto.Parser
}

func New(cfg Config, keys Keys) (*Manager, error) {
	switch {
	case cfg.Mode != keys.Mode:
		return nil, ErrConfig{Msg: fmt.Sprintf("config mode %q does not match key mode %q", cfg.Mode, keys.Mode)}
	case cfg.Issuer == "":
		return nil, ErrConfig{Msg: "issuer is required"}
	case cfg.Audience == "":
		return nil, ErrConfig{Msg: "audience is required"}
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = defaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = defaultRefreshTTL
	}

	var c codec
	switch keys.Mode {
	case ModeLocal:
		if keys.Symmetric == nil {
			return nil, ErrConfig{Msg: "missing symmetric key"}
		}
		c = localCodec{key: keys.Symmetric}
	case ModePublic:
		if keys.Public == nil {
			return nil, ErrConfig{Msg: "missing public key"}
		}
		c = publicCodec{secret: keys.Secret, public: keys.Public}
	default:
		return nil, ErrConfig{Msg: "unknown mode " + string(keys.Mode)}
	}

	p := paseto.NewParser()
	p.AddRule(paseto.IssuedBy(cfg.Issuer))
	p.AddRule(paseto.ForAudience(cfg.Audience))
	p.AddRule(paseto.NotExpired())

	return &Manager{cfg: cfg, codec: c, parser: p}, nil
}

func (m *Manager) IssueAccess(userID uuid.UUID, sessionID *uuid.UUID) (string, error) {
	return m.issue(TokenTypeAccess, userID, sessionID, m.cfg.AccessTTL)
}

func (m *Manager) IssueRefresh(userID uuid.UUID, sessionID *uuid.UUID) (string, error) {
	return m.issue(TokenTypeRefresh, userID, sessionID, m.cfg.RefreshTTL)
}

func (m *Manager) AccessTTL() time.Duration { return m.cfg.AccessTTL }

// RefreshTTL is also the lifetime of the session behind the token.
func (m *Manager) RefreshTTL() time.Duration { return m.cfg.RefreshTTL }

// VerifyType is Verify plus a token type check, so refresh tokens never
// authenticate requests.
func (m *Manager) VerifyType(raw string, want TokenType) (*Claims, error) {
	claims, err := m.Verify(raw)
	if err != nil {
		return nil, err
	}
	if claims.Type != want {
		return nil, ErrInvalidToken{Err: fmt.Errorf("expected %s token, got %q", want, claims.Type)}
	}
	return claims, nil
}

func (m *Manager) Verify(raw string) (*Claims, error) {
	tok, err := m.codec.open(m.parser, raw, m.cfg.Implicit)
	if err != nil {
		return nil, ErrInvalidToken{Err: err}
	}
	claims, err := readClaims(tok)
	if err != nil {
		return nil, ErrInvalidToken{Err: err}
	}
	return claims, nil
}

func (m *Manager) issue(tt TokenType, userID uuid.UUID, sessionID *uuid.UUID, ttl time.Duration) (string, error) {
	now := time.Now()

	tok := paseto.NewToken()
	tok.SetIssuer(m.cfg.Issuer)
	tok.SetAudience(m.cfg.Audience)
	tok.SetJti(uuid.NewString())
	tok.SetSubject(userID.String())
	tok.SetIssuedAt(now)
	tok.SetNotBefore(now)
	tok.SetExpiration(now.Add(ttl))

	tok.SetString(claimType, string(tt))
	tok.SetString(claimUser, userID.String())
	if sessionID != nil {
		tok.SetString(claimSession, sessionID.String())
	}

	return m.codec.seal(tok, m.cfg.Implicit)
}

func readClaims(tok *paseto.Token) (*Claims, error) {
	var (
		out Claims
		err error
	)
	if out.TokenID, err = tok.GetJti(); err != nil {
		return nil, err
	}
	if out.IssuedAt, err = tok.GetIssuedAt(); err != nil {
		return nil, err
	}
	if out.ExpiresAt, err = tok.GetExpiration(); err != nil {
		return nil, err
	}

	typ, err := tok.GetString(claimType)
	if err != nil {
		return nil, err
	}
	out.Type = TokenType(typ)

	uid, err := tok.GetString(claimUser)
	if err != nil {
		return nil, err
	}
	if out.UserID, err = uuid.Parse(uid); err != nil {
		return nil, fmt.Errorf("uid claim: %w", err)
	}

	// sid is absent on tokens issued without a session.
	if sid, gerr := tok.GetString(claimSession); gerr == nil {
		id, err := uuid.Parse(sid)
		if err != nil {
			return nil, fmt.Errorf("sid claim: %w", err)
		}
		out.SessionID = &id
	}
	return &out, nil
}
