package serverutils

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"second-brain-client/internal/entity"
)

const (
	UserIdLocal = "user_id"
	emailLocal  = "email"
	tokenLocal  = "token"
)

var ErrRevokedToken = errors.New("token has been revoked")

// TokenIssuer signs and checks the HS256 tokens handed out by the dev
// backend. Revocation is kept in memory by token id.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:  []byte(secret),
		ttl:     ttl,
		now:     time.Now,
		revoked: make(map[string]time.Time),
	}
}

func (i *TokenIssuer) Issue(user entity.User) (string, error) {
	now := i.now()
	claims := jwt.MapClaims{
		"user_id": user.Id,
		"sub":     user.Id,
		"email":   user.Email,
		"jti":     uuid.NewString(),
		"iat":     now.Unix(),
		"exp":     now.Add(i.ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

func (i *TokenIssuer) Verify(tokenStr string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil {
		return nil, err
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if jti, _ := claims["jti"].(string); jti != "" {
		if _, gone := i.revoked[jti]; gone {
			return nil, ErrRevokedToken
		}
	}
	return claims, nil
}

// Revoke rejects the token for the rest of its lifetime.
func (i *TokenIssuer) Revoke(tokenStr string) {
	claims, err := i.Verify(tokenStr)
	if err != nil {
		return
	}
	jti, _ := claims["jti"].(string)
	if jti == "" {
		return
	}
	exp, _ := claims.GetExpirationTime()

	i.mu.Lock()
	defer i.mu.Unlock()
	now := i.now()
	for id, until := range i.revoked {
		if until.Before(now) {
			delete(i.revoked, id)
		}
	}
	if exp != nil {
		i.revoked[jti] = exp.Time
	} else {
		i.revoked[jti] = now.Add(i.ttl)
	}
}

// BearerToken returns the token from the Authorization header, or "".
func BearerToken(ctx *fiber.Ctx) string {
	authHeader := ctx.Get(fiber.HeaderAuthorization)
	if len(authHeader) < 7 || !strings.EqualFold(authHeader[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(authHeader[7:])
}

func JwtMiddleware(issuer *TokenIssuer) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		tokenStr := BearerToken(ctx)
		if tokenStr == "" {
			return ErrorResponse(ctx, fiber.StatusUnauthorized, "Missing token")
		}

		claims, err := issuer.Verify(tokenStr)
		if err != nil {
			return ErrorResponse(ctx, fiber.StatusUnauthorized, "Invalid token")
		}

		userId, _ := claims["user_id"].(string)
		if userId == "" {
			return ErrorResponse(ctx, fiber.StatusUnauthorized, "Invalid claims")
		}

		email, _ := claims["email"].(string)
		ctx.Locals(UserIdLocal, userId)
		ctx.Locals(emailLocal, email)
		ctx.Locals(tokenLocal, tokenStr)
		return ctx.Next()
	}
}

// UserId is the authenticated user set by JwtMiddleware.
func UserId(ctx *fiber.Ctx) string {
	id, _ := ctx.Locals(UserIdLocal).(string)
	return id
}

func Email(ctx *fiber.Ctx) string {
	email, _ := ctx.Locals(emailLocal).(string)
	return email
}

func Token(ctx *fiber.Ctx) string {
	token, _ := ctx.Locals(tokenLocal).(string)
	return token
}
