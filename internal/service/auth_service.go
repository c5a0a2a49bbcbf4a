package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chempartner/paperdesk/config"
	"github.com/chempartner/paperdesk/internal/apperror"
	"github.com/chempartner/paperdesk/internal/auth"
	"github.com/chempartner/paperdesk/internal/dto"
	"github.com/chempartner/paperdesk/internal/model"
	"github.com/chempartner/paperdesk/internal/repository"
	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// TokenIssuer is the issuing half of auth.TokenService.
type TokenIssuer interface {
	Issue(subject string) (string, time.Time, error)
}

type AuthService interface {
	Register(req dto.RegisterRequest) (*dto.UserResponse, error)
	Login(req dto.TokenRequest) (*dto.TokenResponse, error)
	// Authenticate resolves a bearer token to its user. It does not look at
	// the active or admin flags.
	Authenticate(token string) (*model.User, error)
	GetByUsername(username string) (*dto.UserResponse, error)
	PromoteToAdmin(userID uint) (*dto.UserResponse, error)
	EnsureBootstrapAdmin(admin config.Admin) error
}

type authService struct {
	userRepo repository.UserRepository
	hasher   auth.PasswordHasher
	issuer   TokenIssuer
	verifier auth.TokenVerifier
}

func NewAuthService(userRepo repository.UserRepository, hasher auth.PasswordHasher, tokens *auth.TokenService) AuthService {
	return newAuthService(userRepo, hasher, tokens, tokens)
}

func newAuthService(userRepo repository.UserRepository, hasher auth.PasswordHasher, issuer TokenIssuer, verifier auth.TokenVerifier) *authService {
	return &authService{userRepo: userRepo, hasher: hasher, issuer: issuer, verifier: verifier}
}

func toUserResponse(user *model.User) *dto.UserResponse {
	var resp dto.UserResponse
	copier.Copy(&resp, user)
	return &resp
}

func (s *authService) Register(req dto.RegisterRequest) (*dto.UserResponse, error) {
	email := strings.TrimSpace(strings.ToLower(req.Email))
	username := strings.TrimSpace(req.Username)

	if _, err := s.userRepo.FindByEmail(email); err == nil {
		return nil, apperror.New(apperror.KindConflict, "Email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if _, err := s.userRepo.FindByUsername(username); err == nil {
		return nil, apperror.New(apperror.KindConflict, "Username already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check username: %w", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	user := model.User{
		Username:       username,
		Email:          email,
		HashedPassword: hash,
		IsActive:       true,
		IsAdmin:        false,
	}
	if err := s.userRepo.Create(&user); err != nil {
		// Lost a race against a concurrent registration.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Wrap(apperror.KindConflict, "Email or username already registered", err)
		}
		log.Error().Err(err).Str("username", username).Msg("Register: failed to create user")
		return nil, fmt.Errorf("create user: %w", err)
	}

	log.Info().Uint("userID", user.ID).Str("username", user.Username).Msg("User registered")
	return toUserResponse(&user), nil
}

func (s *authService) Login(req dto.TokenRequest) (*dto.TokenResponse, error) {
	badCredentials := apperror.New(apperror.KindUnauthenticated, "Incorrect username or password")

	user, err := s.userRepo.FindByUsername(req.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, badCredentials
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !s.hasher.Compare(user.HashedPassword, req.Password) {
		log.Warn().Str("username", req.Username).Msg("Login: password mismatch")
		return nil, badCredentials
	}

	token, expiresAt, err := s.issuer.Issue(user.Username)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &dto.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt,
		IsAdmin:     user.IsAdmin,
		Username:    user.Username,
	}, nil
}

func (s *authService) Authenticate(token string) (*model.User, error) {
	if token == "" {
		return nil, apperror.ErrUnauthenticated
	}
	subject, err := s.verifier.Verify(token)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByUsername(subject)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Wrap(apperror.KindUnauthenticated, apperror.ErrUnauthenticated.Message, err)
		}
		return nil, fmt.Errorf("resolve token subject: %w", err)
	}
	return user, nil
}

func (s *authService) GetByUsername(username string) (*dto.UserResponse, error) {
	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		return nil, lookupError(err, "User not found", "load user")
	}
	return toUserResponse(user), nil
}

func (s *authService) PromoteToAdmin(userID uint) (*dto.UserResponse, error) {
	user, err := s.userRepo.SetAdmin(userID, true)
	if err != nil {
		return nil, lookupError(err, "User not found", "promote user")
	}
	log.Info().Uint("userID", user.ID).Msg("User promoted to admin")
	return toUserResponse(user), nil
}

// EnsureBootstrapAdmin creates the configured admin account, or promotes it
// if it already exists. An empty username disables bootstrapping.
func (s *authService) EnsureBootstrapAdmin(admin config.Admin) error {
	if admin.Username == "" {
		return nil
	}
	existing, err := s.userRepo.FindByUsername(admin.Username)
	switch {
	case err == nil:
		if !existing.IsAdmin {
			if _, err := s.userRepo.SetAdmin(existing.ID, true); err != nil {
				return fmt.Errorf("promote bootstrap admin: %w", err)
			}
		}
		return nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("load bootstrap admin: %w", err)
	}

	if admin.Email == "" || admin.Password == "" {
		return errors.New("ADMIN_EMAIL and ADMIN_PASSWORD are required to create the bootstrap admin")
	}
	hash, err := s.hasher.Hash(admin.Password)
	if err != nil {
		return err
	}
	user := model.User{
		Username:       admin.Username,
		Email:          strings.ToLower(admin.Email),
		HashedPassword: hash,
		IsActive:       true,
		IsAdmin:        true,
	}
	if err := s.userRepo.Create(&user); err != nil {
		return fmt.Errorf("create bootstrap admin: %w", err)
	}
	log.Info().Str("username", user.Username).Msg("Bootstrap admin created")
	return nil
}
