package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/printready/proofdesk-backend/internal/config"
	"github.com/printready/proofdesk-backend/internal/events"
	"github.com/printready/proofdesk-backend/internal/repository"
)

// AuthService is the identity-provider shim. It issues the durable identifier
// (the credential ID) and publishes a signed-in event on every successful
// authentication; profile bookkeeping belongs to the reconcile service.
type AuthService interface {
	Register(ctx context.Context, displayName, email, password string) (string, string, string, error)
	Login(ctx context.Context, email, password string) (string, string, string, error)
	RefreshToken(ctx context.Context, refreshToken string) (string, string, error)
	Logout(ctx context.Context, refreshToken string) error
	ValidateToken(tokenString string) (*jwt.Token, error)
	GetUserIDFromToken(token *jwt.Token) (string, error)
	// GetEmailForUser returns the mailbox the identity provider has on file
	// for a durable identifier.
	GetEmailForUser(ctx context.Context, userID string) (string, error)
	// RevokeCredential best-effort deletes the identity-provider side of an
	// account: refresh tokens first, then the credential row.
	RevokeCredential(ctx context.Context, userID string) error
}

type authService struct {
	cfg        *config.Config
	authRepo   repository.AuthRepository
	dispatcher *events.Dispatcher
}

func NewAuthService(cfg *config.Config, authRepo repository.AuthRepository, dispatcher *events.Dispatcher) AuthService {
	return &authService{cfg: cfg, authRepo: authRepo, dispatcher: dispatcher}
}

func (s *authService) Register(ctx context.Context, displayName, email, password string) (string, string, string, error) {
	email = normalizeEmail(email)
	existing, err := s.authRepo.FindCredentialByEmail(ctx, email)
	if err != nil {
		return "", "", "", fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if existing != nil {
		return "", "", "", ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", "", "", fmt.Errorf("%w: %v", ErrInternal, err)
	}

	cred := &repository.Credential{Email: email, PasswordHash: string(hash)}
	if err := s.authRepo.CreateCredential(ctx, cred); err != nil {
		return "", "", "", fmt.Errorf("%w: %v", ErrInternal, err)
	}

	access, refresh, err := s.generateTokens(ctx, cred.ID)
	if err != nil {
		return "", "", "", err
	}

	if s.dispatcher != nil {
		s.dispatcher.PublishSignedIn(events.SignedIn{DurableID: cred.ID, Email: email})
	}
	return cred.ID, access, refresh, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (string, string, string, error) {
	email = normalizeEmail(email)
	cred, err := s.authRepo.FindCredentialByEmail(ctx, email)
	if err != nil {
		return "", "", "", fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if cred == nil {
		return "", "", "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return "", "", "", ErrInvalidCredentials
	}

	access, refresh, err := s.generateTokens(ctx, cred.ID)
	if err != nil {
		return "", "", "", err
	}

	if s.dispatcher != nil {
		s.dispatcher.PublishSignedIn(events.SignedIn{DurableID: cred.ID, Email: email})
	}
	return cred.ID, access, refresh, nil
}

func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (string, string, error) {
	stored, err := s.authRepo.FindRefreshToken(ctx, refreshToken)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if stored == nil || stored.ExpiresAt.Before(time.Now()) {
		return "", "", ErrInvalidToken
	}

	// Rotate: old token is single-use.
	if err := s.authRepo.DeleteRefreshToken(ctx, refreshToken); err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return s.generateTokens(ctx, stored.UserID)
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	return s.authRepo.DeleteRefreshToken(ctx, refreshToken)
}

func (s *authService) ValidateToken(tokenString string) (*jwt.Token, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	return token, nil
}

func (s *authService) GetUserIDFromToken(token *jwt.Token) (string, error) {
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}

func (s *authService) GetEmailForUser(ctx context.Context, userID string) (string, error) {
	cred, err := s.authRepo.FindCredentialByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if cred == nil {
		return "", ErrNotFound
	}
	return cred.Email, nil
}

func (s *authService) RevokeCredential(ctx context.Context, userID string) error {
	if err := s.authRepo.DeleteTokensForUser(ctx, userID); err != nil {
		return err
	}
	return s.authRepo.DeleteCredential(ctx, userID)
}

func (s *authService) generateTokens(ctx context.Context, userID string) (string, string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(time.Duration(s.cfg.JWTExpiry) * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	access, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInternal, err)
	}

	refresh := uuid.New().String()
	rt := &repository.RefreshToken{
		Token:     refresh,
		UserID:    userID,
		ExpiresAt: now.Add(time.Duration(s.cfg.RefreshExpiry) * 24 * time.Hour),
	}
	if err := s.authRepo.CreateRefreshToken(ctx, rt); err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return access, refresh, nil
}
