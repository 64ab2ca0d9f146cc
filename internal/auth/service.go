package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/wired-social/auth-service/internal/config"
)

// Work factor for password digests. Deliberately slow.
const bcryptCost = 12

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account locked")
	ErrInvalidResetCode   = errors.New("invalid reset code")
	ErrResetCodeExpired   = errors.New("reset code expired")
)

type Service struct {
	config     *config.AuthConfig
	log        *zap.Logger
	repository Repository
	policy     LockoutPolicy
	sender     CodeSender
}

type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// ClientContext carries the request metadata recorded in the audit trail.
type ClientContext struct {
	IP        string
	UserAgent string
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
	Name     string
	LastName string
}

// LoginResult is what a successful login hands back to the client.
type LoginResult struct {
	AccessToken string
	TokenType   string
	ExpiresIn   int
	Account     *Account
}

func NewService(config *config.AuthConfig, log *zap.Logger, repo Repository, sender CodeSender) *Service {
	return &Service{
		config:     config,
		log:        log,
		repository: repo,
		policy: LockoutPolicy{
			MaxFailedAttempts: config.MaxFailedAttempts,
			LockDuration:      config.LockDuration,
		},
		sender: sender,
	}
}

func (s *Service) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return string(bytes), err
}

func (s *Service) CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func (s *Service) GenerateToken(account *Account) (string, error) {
	expirationTime := time.Now().Add(s.config.TokenExpiration)
	claims := &Claims{
		Username: account.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(account.ID), 10),
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.config.JWTSecret), nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}

// Register creates a new account. Identifiers are unique across both
// columns: the new username and email may not collide with any existing
// username or email.
func (s *Service) Register(input RegisterInput) error {
	if _, err := s.repository.GetByIdentifier(input.Email); err == nil {
		return ErrEmailAlreadyExists
	}
	if _, err := s.repository.GetByIdentifier(input.Username); err == nil {
		return ErrEmailAlreadyExists
	}

	hashedPassword, err := s.HashPassword(input.Password)
	if err != nil {
		return err
	}

	account := &Account{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hashedPassword,
		Bio:          buildBio(input.Name, input.LastName),
	}

	return s.repository.CreateAccount(account)
}

// Login verifies credentials and issues a session token. Failed attempts
// feed the lockout policy; every attempt except the locked branch leaves
// an audit row.
func (s *Service) Login(identifier, password string, client ClientContext) (*LoginResult, error) {
	account, err := s.repository.GetByIdentifier(identifier)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			s.HashPassword("dummy") // keep timing flat for unknown identifiers
			s.logAttempt(identifier, LoginOutcomeFailed, client)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if account.LockedAt(time.Now()) {
		return nil, ErrAccountLocked
	}

	if !s.CheckPasswordHash(password, account.PasswordHash) {
		if err := s.repository.MutateLoginState(account.ID, func(a *Account) {
			next := s.policy.Fail(LoginState{
				FailedLoginCount: a.FailedLoginCount,
				LockoutEndTime:   a.LockoutEndTime,
			}, time.Now())
			a.FailedLoginCount = next.FailedLoginCount
			a.LockoutEndTime = next.LockoutEndTime
		}); err != nil {
			s.log.Error("failed to update login attempts", zap.Error(err))
		}
		s.logAttempt(account.Username, LoginOutcomeFailed, client)
		return nil, ErrInvalidCredentials
	}

	if err := s.repository.MutateLoginState(account.ID, func(a *Account) {
		next := s.policy.Succeed()
		a.FailedLoginCount = next.FailedLoginCount
		a.LockoutEndTime = next.LockoutEndTime
	}); err != nil {
		s.log.Error("failed to reset login attempts", zap.Error(err))
	}
	s.logAttempt(account.Username, LoginOutcomeSuccess, client)

	token, err := s.GenerateToken(account)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.config.TokenExpiration.Seconds()),
		Account:     account,
	}, nil
}

// ForgotPassword issues a short-lived reset code and delivers it out of
// band. The returned message never contains the code.
func (s *Service) ForgotPassword(email string) (string, error) {
	account, err := s.repository.GetByEmail(email)
	if err != nil {
		return "", err
	}

	code, err := generateResetCode()
	if err != nil {
		return "", err
	}

	expiresAt := time.Now().Add(s.config.ResetCodeTTL)
	if err := s.repository.SetResetCode(account.ID, code, expiresAt); err != nil {
		return "", err
	}

	if err := s.sender.SendResetCode(account.Email, code); err != nil {
		s.log.Error("failed to deliver reset code",
			zap.String("email", account.Email),
			zap.Error(err))
		return "", err
	}

	minutes := int(s.config.ResetCodeTTL.Minutes())
	return fmt.Sprintf("Verification code sent (valid %d minutes)", minutes), nil
}

// ResetPassword exchanges a valid reset code for a new password digest.
// The code fields are cleared in the same update as the digest.
func (s *Service) ResetPassword(email, code, newPassword string) error {
	account, err := s.repository.GetByEmail(email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return ErrInvalidResetCode
		}
		return err
	}

	if account.ResetCode == nil || *account.ResetCode != code {
		return ErrInvalidResetCode
	}
	if account.ResetCodeExpiresAt == nil || account.ResetCodeExpiresAt.Before(time.Now()) {
		return ErrResetCodeExpired
	}

	hash, err := s.HashPassword(newPassword)
	if err != nil {
		return err
	}

	return s.repository.UpdatePassword(account.ID, hash)
}

func (s *Service) GetProfile(id uint) (*Account, error) {
	return s.repository.GetByID(id)
}

// logAttempt writes an audit row. Best effort: a failed write is logged
// and never blocks the login response.
func (s *Service) logAttempt(identifier, outcome string, client ClientContext) {
	entry := &LoginHistory{
		Identifier: identifier,
		Status:     outcome,
		IPAddress:  client.IP,
		UserAgent:  client.UserAgent,
	}
	if err := s.repository.RecordLoginAttempt(entry); err != nil {
		s.log.Error("failed to record login attempt",
			zap.String("identifier", identifier),
			zap.Error(err))
	}
}

func buildBio(name, lastName string) string {
	parts := make([]string, 0, 2)
	for _, p := range []string{name, lastName} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "New user"
	}
	return "Hello, I am " + strings.Join(parts, " ")
}
