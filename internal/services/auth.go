package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/collabhub-backend/internal/data/repos"
	types "github.com/yungbote/collabhub-backend/internal/domain"
	"github.com/yungbote/collabhub-backend/internal/pkg/ctxutil"
	"github.com/yungbote/collabhub-backend/internal/pkg/dbctx"
	apperr "github.com/yungbote/collabhub-backend/internal/pkg/errors"
	"github.com/yungbote/collabhub-backend/internal/pkg/logger"
)

// JWTClaims are the claims this service trusts from the identity provider
// that issued the bearer token.
type JWTClaims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

type AuthService interface {
	// SetContextFromToken verifies tokenString, makes sure a user row exists
	// for its subject and attaches the caller to ctx.
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
}

type authService struct {
	db           *gorm.DB
	log          *logger.Logger
	userRepo     repos.UserRepo
	jwtSecretKey string
}

func NewAuthService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, jwtSecretKey string) AuthService {
	return &authService{
		db:           db,
		log:          log.With("service", "AuthService"),
		userRepo:     userRepo,
		jwtSecretKey: jwtSecretKey,
	}
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return ctx, apperr.ErrUnauthorized
	}
	if as.jwtSecretKey == "" {
		return ctx, fmt.Errorf("%w: token verification is not configured", apperr.ErrUnauthorized)
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.jwtSecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return ctx, fmt.Errorf("%w: %v", apperr.ErrUnauthorized, err)
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return ctx, fmt.Errorf("%w: invalid or expired token", apperr.ErrUnauthorized)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, fmt.Errorf("%w: invalid subject in token", apperr.ErrUnauthorized)
	}
	if strings.TrimSpace(claims.Email) == "" {
		return ctx, fmt.Errorf("%w: token has no email claim", apperr.ErrUnauthorized)
	}

	u, err := as.userRepo.Upsert(dbctx.New(ctx), &types.User{
		ID:    userID,
		Email: claims.Email,
		Name:  claims.Name,
	})
	if err != nil {
		as.log.Warn("Failed to upsert token subject", "error", err, "user_id", userID)
		return ctx, fmt.Errorf("upsert user: %w", err)
	}

	rd := &ctxutil.RequestData{UserID: userID, Email: claims.Email, Name: claims.Name}
	if u != nil {
		rd.Email = u.Email
		rd.Name = u.Name
	}
	return ctxutil.WithRequestData(ctx, rd), nil
}
