package auth

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wired-social/auth-service/internal/config"
)

func newTestLogger(t *testing.T) *zap.Logger {
	logger, err := zap.NewDevelopment()
	assert.NoError(t, err)
	return logger
}

func newTestConfig() *config.AuthConfig {
	return &config.AuthConfig{
		JWTSecret:         "test-secret-key",
		TokenExpiration:   time.Hour,
		MaxFailedAttempts: 5,
		LockDuration:      15 * time.Minute,
		ResetCodeTTL:      15 * time.Minute,
	}
}

// recordingSender captures delivered reset codes for assertions.
type recordingSender struct {
	mu    sync.Mutex
	codes map[string]string
}

func newRecordingSender() *recordingSender {
	return &recordingSender{codes: make(map[string]string)}
}

func (s *recordingSender) SendResetCode(email, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[email] = code
	return nil
}

func (s *recordingSender) codeFor(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codes[email]
}

func newTestService(t *testing.T) (*Service, *mockRepository, *recordingSender) {
	repo := newMockRepository()
	sender := newRecordingSender()
	svc := NewService(newTestConfig(), newTestLogger(t), repo, sender)
	return svc, repo, sender
}

// registerAccount creates an account and returns its stored form.
func registerAccount(t *testing.T, svc *Service, repo *mockRepository, username, email, password string) *Account {
	t.Helper()

	err := svc.Register(RegisterInput{
		Username: username,
		Email:    email,
		Password: password,
	})
	require.NoError(t, err)

	account, err := repo.GetByIdentifier(username)
	require.NoError(t, err)
	return account
}
