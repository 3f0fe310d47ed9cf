package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"fs25hub/internal/apperr"
	"fs25hub/internal/discord"
	"fs25hub/internal/model"
	"fs25hub/internal/policy"
	"fs25hub/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	accessTokenTTL  = 24 * time.Hour
	refreshTokenTTL = 7 * 24 * time.Hour
)

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// DTOs
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	// Identifier is a username or an email address.
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthService covers registration, password and Discord login, token refresh
// and the logout bookkeeping that accumulates logged hours.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*model.User, error)
	Login(ctx context.Context, req LoginRequest) (*model.User, *TokenPair, error)
	Logout(ctx context.Context, actor policy.Actor, refreshToken string) error
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Me(ctx context.Context, actor policy.Actor) (*model.User, error)
	LoginWithDiscord(ctx context.Context, code string) (*model.User, *TokenPair, error)
	DiscordAuthURL(state string) (string, error)
}

type authService struct {
	userRepo  repository.UserRepository
	txManager repository.TransactionManager
	oauth     *discord.OAuthClient
	jwtSecret []byte
}

func NewAuthService(
	userRepo repository.UserRepository,
	txManager repository.TransactionManager,
	oauth *discord.OAuthClient,
	jwtSecret []byte,
) AuthService {
	return &authService{
		userRepo:  userRepo,
		txManager: txManager,
		oauth:     oauth,
		jwtSecret: jwtSecret,
	}
}

func (s *authService) Register(ctx context.Context, req RegisterRequest) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !emailRe.MatchString(email) {
		return nil, apperr.Validationf("invalid email format")
	}

	if _, err := s.userRepo.GetByUsername(ctx, req.Username); err == nil {
		return nil, apperr.Conflictf("username already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, apperr.Conflictf("email already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username: req.Username,
		Email:    email,
		Password: string(hashed),
		Role:     policy.RolePlayer,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*model.User, *TokenPair, error) {
	user, err := s.findByIdentifier(ctx, req.Identifier)
	if err != nil {
		return nil, nil, apperr.Unauthorizedf("invalid credentials")
	}
	if user.Password == "" {
		return nil, nil, apperr.Unauthorizedf("invalid credentials or password not set (try Discord login?)")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, nil, apperr.Unauthorizedf("invalid credentials")
	}

	return s.startSession(ctx, user)
}

// startSession stamps login time and issues the token pair.
func (s *authService) startSession(ctx context.Context, user *model.User) (*model.User, *TokenPair, error) {
	now := time.Now().UTC()
	user.LoginTime = &now
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("failed to record login time: %w", err)
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

func (s *authService) Logout(ctx context.Context, actor policy.Actor, refreshToken string) error {
	user, err := s.userRepo.GetByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFoundf("user %s", actor.ID)
		}
		return fmt.Errorf("failed to load user: %w", err)
	}

	now := time.Now().UTC()
	user.LogoutTime = &now
	// Session hours only accumulate when we saw the matching login.
	if user.LoginTime != nil {
		user.TotalLoggedHours += now.Sub(*user.LoginTime).Hours()
		user.LoginTime = nil
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.userRepo.Update(txCtx, user); err != nil {
			return fmt.Errorf("failed to record logout: %w", err)
		}
		if refreshToken != "" {
			if err := s.userRepo.DeleteRefreshToken(txCtx, refreshToken); err != nil {
				return fmt.Errorf("failed to revoke refresh token: %w", err)
			}
		}
		return nil
	})
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	stored, err := s.userRepo.GetRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, apperr.Unauthorizedf("invalid refresh token")
	}
	if time.Now().After(stored.ExpiresAt) {
		_ = s.userRepo.DeleteRefreshToken(ctx, refreshToken)
		return nil, apperr.Unauthorizedf("refresh token expired")
	}

	user, err := s.userRepo.GetByID(ctx, stored.UserID)
	if err != nil {
		return nil, apperr.Unauthorizedf("invalid refresh token")
	}

	// Rotate: the old token dies with the refresh.
	if err := s.userRepo.DeleteRefreshToken(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}
	return s.issueTokens(ctx, user)
}

func (s *authService) Me(ctx context.Context, actor policy.Actor) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("user %s", actor.ID)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

func (s *authService) DiscordAuthURL(state string) (string, error) {
	if !s.oauth.Configured() {
		return "", apperr.InvalidStatef("discord login is not configured")
	}
	return s.oauth.AuthCodeURL(state), nil
}

// LoginWithDiscord resolves the Discord identity to a local account: by
// linked Discord ID first, then by matching email (which links the account),
// and finally by creating a fresh player account.
func (s *authService) LoginWithDiscord(ctx context.Context, code string) (*model.User, *TokenPair, error) {
	if !s.oauth.Configured() {
		return nil, nil, apperr.InvalidStatef("discord login is not configured")
	}

	identity, err := s.oauth.FetchIdentity(ctx, code)
	if err != nil {
		return nil, nil, apperr.Unauthorizedf("discord login failed: %v", err)
	}

	if user, err := s.userRepo.GetByDiscordID(ctx, identity.ID); err == nil {
		return s.startSession(ctx, user)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, fmt.Errorf("failed to look up discord account: %w", err)
	}

	if identity.Email != "" {
		if user, err := s.userRepo.GetByEmail(ctx, identity.Email); err == nil {
			user.DiscordUserID = &identity.ID
			if err := s.userRepo.Update(ctx, user); err != nil {
				return nil, nil, fmt.Errorf("failed to link discord account: %w", err)
			}
			return s.startSession(ctx, user)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("failed to look up email: %w", err)
		}
	}

	username, err := s.uniqueUsername(ctx, identity.Username)
	if err != nil {
		return nil, nil, err
	}
	email := strings.ToLower(identity.Email)
	if email == "" {
		email = fmt.Sprintf("%s@discord.local", identity.ID)
	}

	user := &model.User{
		Username:      username,
		Email:         email,
		Role:          policy.RolePlayer,
		DiscordUserID: &identity.ID,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("failed to create discord user: %w", err)
	}
	return s.startSession(ctx, user)
}

// uniqueUsername appends _1, _2, ... until the name is free.
func (s *authService) uniqueUsername(ctx context.Context, base string) (string, error) {
	base = strings.TrimSpace(base)
	if base == "" {
		base = "player"
	}
	candidate := base
	for i := 1; ; i++ {
		_, err := s.userRepo.GetByUsername(ctx, candidate)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check username: %w", err)
		}
		candidate = fmt.Sprintf("%s_%d", base, i)
		if i > 1000 {
			return "", fmt.Errorf("could not derive a unique username from %q", base)
		}
	}
}

func (s *authService) issueTokens(ctx context.Context, user *model.User) (*TokenPair, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": string(user.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(accessTokenTTL).Unix(),
	})
	accessToken, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshToken, err := randomToken()
	if err != nil {
		return nil, err
	}
	rt := &model.RefreshToken{
		UserID:    user.ID,
		Token:     refreshToken,
		ExpiresAt: now.Add(refreshTokenTTL),
	}
	if err := s.userRepo.SaveRefreshToken(ctx, rt); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func (s *authService) findByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	if strings.Contains(identifier, "@") {
		return s.userRepo.GetByEmail(ctx, identifier)
	}
	user, err := s.userRepo.GetByUsername(ctx, identifier)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Some players type their email without realizing which field it is.
		return s.userRepo.GetByEmail(ctx, identifier)
	}
	return user, err
}
