package auth

import (
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/adapter/config"
	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/core/domain"
	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/core/port"
)

const payloadClaim = "payload"

type PasetoToken struct {
	parser paseto.Parser
	key    paseto.V4SymmetricKey
	ttl    time.Duration
	now    func() time.Time
}

// New builds a local (encrypted) token service. An empty key in cfg yields a random one,
// so tokens do not survive a restart.
func New(cfg *config.Auth) (port.TokenService, error) {
	key := paseto.NewV4SymmetricKey()
	if cfg.TokenKey != "" {
		var err error
		key, err = paseto.V4SymmetricKeyFromHex(cfg.TokenKey)
		if err != nil {
			return nil, fmt.Errorf("error parsing token key: %w", err)
		}
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &PasetoToken{
		parser: paseto.NewParser(),
		key:    key,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

func (p *PasetoToken) CreateToken(customerID string) (string, error) {
	if customerID == "" {
		return "", domain.ErrTokenCreation
	}

	now := p.now()
	token := paseto.NewToken()
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(now.Add(p.ttl))

	payload := port.TokenPayload{CustomerID: customerID}
	if err := token.Set(payloadClaim, payload); err != nil {
		return "", domain.ErrTokenCreation
	}

	return token.V4Encrypt(p.key, nil), nil
}

func (p *PasetoToken) VerifyToken(token string) (*port.TokenPayload, error) {
	parsedToken, err := p.parser.ParseV4Local(p.key, token, nil)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	payload := port.TokenPayload{}
	if err := parsedToken.Get(payloadClaim, &payload); err != nil || payload.CustomerID == "" {
		return nil, domain.ErrInvalidToken
	}
	return &payload, nil
}
