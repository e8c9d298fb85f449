package services

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cedarwell/actbridge-backend/internal/pkg/ctxutil"
	"github.com/cedarwell/actbridge-backend/internal/pkg/logger"
	"github.com/cedarwell/actbridge-backend/internal/repos"
	"github.com/cedarwell/actbridge-backend/internal/types"
)

// AuthService verifies bearer tokens and resolves the per-request identity.
// Token issuance lives with the identity provider; this side only validates.
type AuthService interface {
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	IssueToken(userID uuid.UUID, ttl time.Duration) (string, error)
}

type authService struct {
	db     *gorm.DB
	log    *logger.Logger
	users  repos.UserRepo
	secret []byte
}

func NewAuthService(db *gorm.DB, baseLog *logger.Logger, userRepo repos.UserRepo, secret string) (AuthService, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret required")
	}
	return &authService{
		db:     db,
		log:    baseLog.With("service", "AuthService"),
		users:  userRepo,
		secret: []byte(secret),
	}, nil
}

func (s *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return ctx, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return ctx, fmt.Errorf("invalid token claims")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return ctx, fmt.Errorf("token missing subject")
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return ctx, fmt.Errorf("token subject is not a valid user id")
	}

	if err := s.users.EnsureExists(ctx, nil, &types.User{ID: userID}); err != nil {
		return ctx, fmt.Errorf("resolve user: %w", err)
	}

	rd := &ctxutil.RequestData{UserID: userID}
	if prev := ctxutil.GetRequestData(ctx); prev != nil {
		rd.RequestID = prev.RequestID
	}
	return ctxutil.WithRequestData(ctx, rd), nil
}

// IssueToken mints a short-lived HS256 token. Intended for local development
// and tests; production tokens come from the identity provider.
func (s *authService) IssueToken(userID uuid.UUID, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID.String(),
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	})
	return token.SignedString(s.secret)
}
