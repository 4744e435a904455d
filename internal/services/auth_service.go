package services

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/practice-service/internal/config"
	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/SAP-F-2025/practice-service/internal/repositories"
	"github.com/SAP-F-2025/practice-service/internal/validator"
)

const ResetRequestedMessage = "Password reset token generated"

type authService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	tokens    *TokenIssuer
	identity  repositories.IdentityProvider
	resetTTL  time.Duration
	now       func() time.Time
}

// NewAuthService builds the auth service. identity may be nil when SSO is not configured.
func NewAuthService(
	repo repositories.Repository,
	db *gorm.DB,
	logger *slog.Logger,
	validator *validator.Validator,
	cfg config.JWTConfig,
	identity repositories.IdentityProvider,
) AuthService {
	resetTTL := cfg.ResetTokenTTL
	if resetTTL <= 0 {
		resetTTL = time.Hour
	}
	return &authService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		tokens:    NewTokenIssuer(cfg),
		identity:  identity,
		resetTTL:  resetTTL,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ===== ACCOUNTS =====

func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var errs validator.ValidationErrors
	if req.Password != req.PasswordConfirm {
		errs = append(errs, validator.Field("password", "Passwords do not match.")...)
	}

	user := &models.User{
		Username:  username,
		Email:     email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      models.RoleUser,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := s.repo.User().ExistsByUsername(ctx, tx, username)
		if err != nil {
			return err
		}
		if taken {
			errs = append(errs, validator.Field("username", "Username already exists.")...)
		}

		registered, err := s.repo.User().ExistsByEmail(ctx, tx, email)
		if err != nil {
			return err
		}
		if registered {
			errs = append(errs, validator.Field("email", "Email already registered.")...)
		}

		if len(errs) > 0 {
			return errs
		}

		hash, err := hashPassword(req.Password)
		if err != nil {
			return err
		}
		user.PasswordHash = hash

		if err := s.repo.User().Create(ctx, tx, user); err != nil {
			if repositories.IsDuplicateError(err) {
				return validator.Field("username", "Username already exists.")
			}
			return err
		}
		_, err = s.repo.Profile().GetOrCreate(ctx, tx, user.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("User registered", "user_id", user.ID, "username", user.Username)
	return s.authResponse(user)
}

// Login accepts a username or an email in req.Username
func (s *authService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.repo.User().GetByLogin(ctx, s.db, strings.TrimSpace(req.Username))
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if user.PasswordHash == "" || !checkPassword(user.PasswordHash, req.Password) {
		s.logger.Warn("Failed login", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	return s.authResponse(user)
}

func (s *authService) Refresh(ctx context.Context, req *RefreshRequest) (*TokenPair, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	claims, err := s.tokens.Parse(req.Refresh, tokenTypeRefresh)
	if err != nil {
		s.logger.Debug("Refresh token rejected", "error", err)
		return nil, ErrInvalidRefreshToken
	}

	// Role changes since the refresh token was issued are picked up here
	user, err := s.repo.User().GetByID(ctx, s.db, claims.UserID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	return s.tokens.Pair(user)
}

func (s *authService) CurrentUser(ctx context.Context, userID uint) (*UserSummary, error) {
	user, err := s.repo.User().GetByID(ctx, s.db, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return NewUserSummary(user), nil
}

func (s *authService) ParseAccessToken(token string) (*Claims, error) {
	claims, err := s.tokens.Parse(token, tokenTypeAccess)
	if err != nil {
		return nil, ErrInvalidAccessToken
	}
	return claims, nil
}

// ===== SSO =====

// SSOLogin maps a verified external identity onto a local account, creating it on first login
func (s *authService) SSOLogin(ctx context.Context, req *SSOLoginRequest) (*AuthResponse, error) {
	if s.identity == nil {
		return nil, ErrSSODisabled
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	ext, err := s.identity.VerifyToken(ctx, req.Token)
	if err != nil {
		s.logger.Warn("SSO token rejected", "error", err)
		return nil, ErrInvalidSSOToken
	}

	var user *models.User
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		user, err = s.findOrCreateExternal(ctx, tx, ext)
		if err != nil {
			return err
		}
		_, err = s.repo.Profile().GetOrCreate(ctx, tx, user.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("SSO login", "user_id", user.ID, "subject", ext.Subject)
	return s.authResponse(user)
}

func (s *authService) findOrCreateExternal(ctx context.Context, tx *gorm.DB, ext *repositories.ExternalIdentity) (*models.User, error) {
	user, err := s.repo.User().GetByExternalID(ctx, tx, ext.Subject)
	if err == nil {
		return user, nil
	}
	if !repositories.IsNotFoundError(err) {
		return nil, err
	}

	// An existing local account with the same email is linked rather than duplicated
	user, err = s.repo.User().GetByEmail(ctx, tx, ext.Email)
	if err == nil {
		if err := s.repo.User().LinkExternalID(ctx, tx, user.ID, ext.Subject); err != nil {
			return nil, err
		}
		return user, nil
	}
	if !repositories.IsNotFoundError(err) {
		return nil, err
	}

	username, err := s.availableUsername(ctx, tx, ssoUsername(ext))
	if err != nil {
		return nil, err
	}

	subject := ext.Subject
	user = &models.User{
		Username:   username,
		Email:      ext.Email,
		FirstName:  ext.FirstName,
		LastName:   ext.LastName,
		Role:       models.RoleUser,
		ExternalID: &subject,
	}
	if ext.IsAdmin {
		user.Role = models.RoleAdmin
	}
	if err := s.repo.User().Create(ctx, tx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ssoUsername is the email local part, falling back to the provider's username
func ssoUsername(ext *repositories.ExternalIdentity) string {
	if local, _, ok := strings.Cut(ext.Email, "@"); ok && local != "" {
		return local
	}
	if ext.Username != "" {
		return ext.Username
	}
	return "user"
}

func (s *authService) availableUsername(ctx context.Context, tx *gorm.DB, base string) (string, error) {
	candidate := base
	for i := 1; i <= 20; i++ {
		taken, err := s.repo.User().ExistsByUsername(ctx, tx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s%d", base, i)
	}
	return base + "-" + uuid.NewString()[:8], nil
}

// ===== PASSWORD RESET =====

// RequestPasswordReset stores a fresh single-use token. The token is returned in the
// response because no mail transport is wired.
func (s *authService) RequestPasswordReset(ctx context.Context, req *PasswordResetRequest) (*PasswordResetResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.repo.User().GetByEmail(ctx, s.db, strings.TrimSpace(req.Email))
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, validator.Field("email", "No user found with this email.")
		}
		return nil, err
	}

	token := uuid.NewString()
	if err := s.repo.User().SetResetToken(ctx, s.db, user.ID, token, s.now().Add(s.resetTTL)); err != nil {
		return nil, err
	}

	s.logger.Info("Password reset requested", "user_id", user.ID)
	return &PasswordResetResponse{
		Message: ResetRequestedMessage,
		UID:     EncodeUID(user.ID),
		Token:   token,
	}, nil
}

func (s *authService) ConfirmPasswordReset(ctx context.Context, req *PasswordResetConfirmRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}
	if req.Password != req.PasswordConfirm {
		return validator.Field("password", "Passwords do not match.")
	}

	userID, err := DecodeUID(req.UID)
	if err != nil {
		return ErrInvalidResetUser
	}

	user, err := s.repo.User().GetByID(ctx, s.db, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrInvalidResetUser
		}
		return err
	}

	if user.ResetToken == nil || user.ResetTokenExpiresAt == nil ||
		subtle.ConstantTimeCompare([]byte(*user.ResetToken), []byte(req.Token)) != 1 ||
		s.now().After(*user.ResetTokenExpiresAt) {
		return ErrInvalidResetToken
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return err
	}
	if err := s.repo.User().UpdatePassword(ctx, s.db, user.ID, hash); err != nil {
		return err
	}

	s.logger.Info("Password reset", "user_id", user.ID)
	return nil
}

// EncodeUID is the base64url form of a user id used in reset links
func EncodeUID(id uint) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatUint(uint64(id), 10)))
}

func DecodeUID(uid string) (uint, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(uid, "="))
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid uid %q", uid)
	}
	return uint(id), nil
}

// ===== HELPERS =====

func (s *authService) authResponse(user *models.User) (*AuthResponse, error) {
	pair, err := s.tokens.Pair(user)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{User: NewUserSummary(user), TokenPair: *pair}, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
