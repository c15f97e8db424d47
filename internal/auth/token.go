package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken はトークンの検証に失敗した場合のエラー
var ErrInvalidToken = errors.New("invalid token")

// トークンの用途（aud クレーム）
const (
	audienceSession = "session"
	audienceCustom  = "custom"
	issuer          = "message-board"
)

// Claims はトークンに含まれるクレーム
type Claims struct {
	UID string `json:"uid"`
	jwt.RegisteredClaims
}

// Issuer はセッショントークンとブートストラップ用カスタムトークンを発行・検証する
type Issuer struct {
	key        []byte
	sessionTTL time.Duration
	now        func() time.Time
}

// NewIssuer は新しいIssuerを作成する
func NewIssuer(key []byte, sessionTTL time.Duration) *Issuer {
	return &Issuer{key: key, sessionTTL: sessionTTL, now: time.Now}
}

// SignInAnonymously は新しい匿名UIDを発行し、そのセッショントークンを返す
func (i *Issuer) SignInAnonymously() (uid, token string, err error) {
	uid = uuid.New().String()
	token, err = i.sign(uid, audienceSession, i.sessionTTL)
	return uid, token, err
}

// SignInWithCustomToken はカスタムトークンを検証し、同じUIDのセッショントークンを返す
func (i *Issuer) SignInWithCustomToken(customToken string) (uid, token string, err error) {
	claims, err := i.parse(customToken, audienceCustom)
	if err != nil {
		return "", "", err
	}
	token, err = i.sign(claims.UID, audienceSession, i.sessionTTL)
	return claims.UID, token, err
}

// MintCustomToken は指定したUIDのブートストラップ用カスタムトークンを発行する
func (i *Issuer) MintCustomToken(uid string, ttl time.Duration) (string, error) {
	if uid == "" {
		return "", fmt.Errorf("mint custom token: %w", ErrInvalidToken)
	}
	return i.sign(uid, audienceCustom, ttl)
}

// Verify はセッショントークンを検証してUIDを返す
func (i *Issuer) Verify(token string) (string, error) {
	claims, err := i.parse(token, audienceSession)
	if err != nil {
		return "", err
	}
	return claims.UID, nil
}

func (i *Issuer) sign(uid, audience string, ttl time.Duration) (string, error) {
	now := i.now()
	claims := &Claims{
		UID: uid,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			Audience:  jwt.ClaimStrings{audience},
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
}

func (i *Issuer) parse(token, audience string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return i.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.UID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
