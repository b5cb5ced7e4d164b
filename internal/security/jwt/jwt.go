package jwt

import (
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

const (
	ScopeAdmin    = "admin"
	ScopeCustomer = "customer"
)

var ErrScope = errors.New("token scope mismatch")

type Manager struct {
	secret []byte
	expire time.Duration
	issuer string
}

// Claims sub 为后台管理员 id 或顾客 id，由 scope 区分
type Claims struct {
	SubjectID int64  `json:"sub"`
	Scope     string `json:"scope"`
	JTI       string `json:"jti"`
	jwtlib.RegisteredClaims
}

func NewManager(secret string, expireSeconds int, issuer string) *Manager {
	return &Manager{secret: []byte(secret), expire: time.Duration(expireSeconds) * time.Second, issuer: issuer}
}

func (m *Manager) Generate(subjectID int64, scope, jti string) (string, error) {
	now := time.Now()
	claims := Claims{
		SubjectID: subjectID,
		Scope:     scope,
		JTI:       jti,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    m.issuer,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(m.expire)),
		},
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *Manager) Parse(tokenStr string) (*Claims, error) {
	token, err := jwtlib.ParseWithClaims(tokenStr, &Claims{}, func(t *jwtlib.Token) (interface{}, error) {
		return m.secret, nil
	}, jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwtlib.ErrTokenInvalidClaims
}

// ParseScoped 校验签名后再校验 scope
func (m *Manager) ParseScoped(tokenStr, scope string) (*Claims, error) {
	c, err := m.Parse(tokenStr)
	if err != nil {
		return nil, err
	}
	if c.Scope != scope || c.SubjectID <= 0 {
		return nil, ErrScope
	}
	return c, nil
}

func (m *Manager) ExpireDuration() time.Duration { return m.expire }
