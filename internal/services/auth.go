package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"storefront/internal/clients/mail"
	"storefront/internal/logger"
	"storefront/internal/normalization"
	"storefront/internal/repos"
	"storefront/internal/requestdata"
	"storefront/internal/types"
	"storefront/internal/uow"
)

type AuthService interface {
	RegisterUser(ctx context.Context, email, username, password string) (*types.User, error)
	LoginUser(ctx context.Context, email, password string) (string, string, error)
	RefreshUser(ctx context.Context) (string, string, error)
	LogoutUser(ctx context.Context) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	unit          uow.UnitOfWork
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
	resetRepo     repos.PasswordResetTokenRepo
	mailClient    mail.Client
	jwtSecretKey  string
	appURL        string
	accessTTL     time.Duration
	refreshTTL    time.Duration
	resetTTL      time.Duration
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	unit uow.UnitOfWork,
	userRepo repos.UserRepo,
	userTokenRepo repos.UserTokenRepo,
	resetRepo repos.PasswordResetTokenRepo,
	mailClient mail.Client,
	jwtSecretKey string,
	appURL string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
	resetTTL time.Duration,
) AuthService {
	return &authService{
		db:            db,
		log:           log.With("service", "AuthService"),
		unit:          unit,
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		resetRepo:     resetRepo,
		mailClient:    mailClient,
		jwtSecretKey:  jwtSecretKey,
		appURL:        appURL,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		resetTTL:      resetTTL,
	}
}

type jwtClaims struct {
	jwt.RegisteredClaims
}

func (as *authService) RegisterUser(ctx context.Context, email, username, password string) (*types.User, error) {
	email = normalization.NormalizeEmail(email)
	username = normalization.ParseInputString(username)

	if !normalization.ValidEmail(email) {
		return nil, types.ErrInvalidEmail
	}
	if username == "" {
		return nil, fmt.Errorf("a username is required to register")
	}
	if !normalization.StrongPassword(password) {
		return nil, types.ErrWeakPassword
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &types.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hashed),
		Username:     username,
		IsActive:     true,
	}

	err = as.unit.Do(ctx, func(tx *gorm.DB) error {
		exists, err := as.userRepo.EmailExists(ctx, tx, email)
		if err != nil {
			return fmt.Errorf("failed to check user email: %w", err)
		}
		if exists {
			return types.ErrEmailTaken
		}
		if _, err := as.userRepo.Create(ctx, tx, []*types.User{user}); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Welcome email goes out after commit; failure is not the caller's
	// problem.
	go func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := as.mailClient.SendRegistrationEmail(sendCtx, user.Email, user.Username); err != nil {
			as.log.Warn("Failed to send registration email", "error", err, "user_id", user.ID)
		}
	}()

	return user, nil
}

func (as *authService) LoginUser(ctx context.Context, email, password string) (string, string, error) {
	email = normalization.NormalizeEmail(email)
	if email == "" || password == "" {
		return "", "", types.ErrInvalidCredentials
	}

	user, err := as.userRepo.GetByEmail(ctx, nil, email)
	if errors.Is(err, types.ErrNotFound) {
		return "", "", types.ErrInvalidCredentials
	}
	if err != nil {
		return "", "", fmt.Errorf("error retrieving user by email: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", "", types.ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", "", types.ErrInvalidCredentials
	}

	var accessToken, refreshToken string
	err = as.unit.Do(ctx, func(tx *gorm.DB) error {
		// A fresh login replaces any existing session rows for the user.
		if err := as.userTokenRepo.FullDeleteByUserIDs(ctx, tx, []uuid.UUID{user.ID}); err != nil {
			return fmt.Errorf("failed to clear existing user tokens: %w", err)
		}
		tok, err := as.generateAccessToken(user)
		if err != nil {
			return fmt.Errorf("generate access token: %w", err)
		}
		accessToken = tok
		refreshToken = uuid.New().String()
		userToken := &types.UserToken{
			ID:           uuid.New(),
			UserID:       user.ID,
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			ExpiresAt:    time.Now().Add(as.refreshTTL),
		}
		if _, err := as.userTokenRepo.Create(ctx, tx, []*types.UserToken{userToken}); err != nil {
			return fmt.Errorf("create user token: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

func (as *authService) RefreshUser(ctx context.Context) (string, string, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.RefreshToken == "" {
		return "", "", types.ErrInvalidToken
	}

	var accessToken, newRefreshToken string
	err := as.unit.Do(ctx, func(tx *gorm.DB) error {
		foundTokens, err := as.userTokenRepo.GetByRefreshTokens(ctx, tx, []string{rd.RefreshToken})
		if err != nil {
			return fmt.Errorf("error fetching refresh token: %w", err)
		}
		if len(foundTokens) == 0 {
			return types.ErrInvalidToken
		}
		existing := foundTokens[0]
		if existing.ExpiresAt.Before(time.Now()) {
			if err := as.userTokenRepo.FullDeleteByTokens(ctx, tx, []*types.UserToken{existing}); err != nil {
				return fmt.Errorf("failed to delete expired token: %w", err)
			}
			return types.ErrExpiredToken
		}
		users, err := as.userRepo.GetByIDs(ctx, tx, []uuid.UUID{existing.UserID})
		if err != nil {
			return fmt.Errorf("failed to load user for refresh: %w", err)
		}
		if len(users) == 0 {
			return types.ErrInvalidToken
		}
		user := users[0]

		tok, err := as.generateAccessToken(user)
		if err != nil {
			return fmt.Errorf("generate access token: %w", err)
		}
		accessToken = tok
		newRefreshToken = uuid.New().String()
		newToken := &types.UserToken{
			ID:           uuid.New(),
			UserID:       user.ID,
			AccessToken:  accessToken,
			RefreshToken: newRefreshToken,
			ExpiresAt:    time.Now().Add(as.refreshTTL),
		}
		if _, err := as.userTokenRepo.Create(ctx, tx, []*types.UserToken{newToken}); err != nil {
			return fmt.Errorf("create user token: %w", err)
		}
		if err := as.userTokenRepo.FullDeleteByTokens(ctx, tx, []*types.UserToken{existing}); err != nil {
			return fmt.Errorf("failed to remove old refresh token: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", "", err
	}
	return accessToken, newRefreshToken, nil
}

func (as *authService) LogoutUser(ctx context.Context) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.TokenString == "" {
		return types.ErrInvalidToken
	}
	return as.unit.Do(ctx, func(tx *gorm.DB) error {
		foundTokens, err := as.userTokenRepo.GetByAccessTokens(ctx, tx, []string{rd.TokenString})
		if err != nil {
			return fmt.Errorf("error finding user token: %w", err)
		}
		if len(foundTokens) == 0 {
			return nil
		}
		return as.userTokenRepo.FullDeleteByTokens(ctx, tx, foundTokens)
	})
}

// RequestPasswordReset always returns nil for unknown emails so the
// endpoint can't be used to probe for accounts.
func (as *authService) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalization.NormalizeEmail(email)
	user, err := as.userRepo.GetByEmail(ctx, nil, email)
	if errors.Is(err, types.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("error retrieving user by email: %w", err)
	}

	tokenStr, err := randomToken()
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}
	resetToken := &types.PasswordResetToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		Token:     tokenStr,
		ExpiresAt: time.Now().Add(as.resetTTL),
	}
	err = as.unit.Do(ctx, func(tx *gorm.DB) error {
		_, err := as.resetRepo.Create(ctx, tx, []*types.PasswordResetToken{resetToken})
		return err
	})
	if err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/auth/password-reset/confirm?token=%s", as.appURL, tokenStr)
	go func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := as.mailClient.SendPasswordResetEmail(sendCtx, user.Email, user.Username, resetURL); err != nil {
			as.log.Warn("Failed to send password reset email", "error", err, "user_id", user.ID)
		}
	}()
	return nil
}

func (as *authService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if !normalization.StrongPassword(newPassword) {
		return types.ErrWeakPassword
	}
	return as.unit.Do(ctx, func(tx *gorm.DB) error {
		resetToken, err := as.resetRepo.GetByToken(ctx, tx, token)
		if errors.Is(err, types.ErrNotFound) {
			return types.ErrInvalidToken
		}
		if err != nil {
			return fmt.Errorf("error fetching reset token: %w", err)
		}
		if resetToken.Used {
			return types.ErrExpiredToken
		}
		if resetToken.IsExpired(time.Now()) {
			return types.ErrExpiredToken
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		if err := as.userRepo.UpdatePasswordHash(ctx, tx, resetToken.UserID, string(hashed)); err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}
		if err := as.resetRepo.MarkUsed(ctx, tx, resetToken); err != nil {
			return fmt.Errorf("failed to mark reset token used: %w", err)
		}
		// Force re-login everywhere after a password change.
		return as.userTokenRepo.FullDeleteByUserIDs(ctx, tx, []uuid.UUID{resetToken.UserID})
	})
}

func (as *authService) generateAccessToken(user *types.User) (string, error) {
	// The jti keeps tokens unique even when two logins land in the same
	// second.
	claims := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ID:        uuid.New().String(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, types.ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &jwtClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(as.jwtSecretKey), nil
	})
	if err != nil {
		return ctx, fmt.Errorf("failed to parse token: %w", err)
	}
	claims, ok := parsed.Claims.(*jwtClaims)
	if !ok || !parsed.Valid {
		return ctx, types.ErrInvalidToken
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, fmt.Errorf("invalid user id in token: %w", err)
	}

	var refreshToken string
	foundTokens, err := as.userTokenRepo.GetByAccessTokens(ctx, nil, []string{tokenString})
	if err != nil {
		return ctx, fmt.Errorf("failed to fetch user token: %w", err)
	}
	if len(foundTokens) == 0 {
		// Token signature is valid but the session row is gone (logout or
		// password reset).
		return ctx, types.ErrExpiredToken
	}
	refreshToken = foundTokens[0].RefreshToken

	rd := &requestdata.RequestData{
		TokenString:  tokenString,
		RefreshToken: refreshToken,
		UserID:       userID,
	}
	return requestdata.WithRequestData(ctx, rd), nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
