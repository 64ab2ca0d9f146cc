package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testClient = ClientContext{IP: "203.0.113.7", UserAgent: "test-agent"}

func TestService_HashPassword(t *testing.T) {
	svc, _, _ := newTestService(t)

	hash, err := svc.HashPassword("testpassword123")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	assert.True(t, svc.CheckPasswordHash("testpassword123", hash))
	assert.False(t, svc.CheckPasswordHash("wrongpass", hash))
}

func TestService_GenerateToken(t *testing.T) {
	svc, repo, _ := newTestService(t)
	account := registerAccount(t, svc, repo, "testuser", "test@example.com", "testpass123")

	token, err := svc.GenerateToken(account)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "testuser", claims.Username)
	assert.Equal(t, "1", claims.Subject)
}

func TestService_ValidateToken(t *testing.T) {
	svc, repo, _ := newTestService(t)
	account := registerAccount(t, svc, repo, "testuser", "test@example.com", "testpass123")

	tests := []struct {
		name       string
		setupToken func() string
		wantErr    bool
		wantUser   string
	}{
		{
			name: "valid token",
			setupToken: func() string {
				token, _ := svc.GenerateToken(account)
				return token
			},
			wantUser: "testuser",
		},
		{
			name: "expired token",
			setupToken: func() string {
				expiredConfig := newTestConfig()
				expiredConfig.TokenExpiration = -time.Hour
				expiredSvc := NewService(expiredConfig, newTestLogger(t), newMockRepository(), newRecordingSender())
				token, _ := expiredSvc.GenerateToken(account)
				return token
			},
			wantErr: true,
		},
		{
			name: "invalid token",
			setupToken: func() string {
				return "invalid.token.here"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := svc.ValidateToken(tt.setupToken())

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantUser, claims.Username)
		})
	}
}

func TestService_Register(t *testing.T) {
	tests := []struct {
		name    string
		input   RegisterInput
		setup   func(*Service)
		wantErr error
		wantBio string
	}{
		{
			name: "new account without name gets placeholder bio",
			input: RegisterInput{
				Username: "testuser",
				Email:    "test@example.com",
				Password: "testpass123",
			},
			wantBio: "New user",
		},
		{
			name: "name parts interpolated into greeting",
			input: RegisterInput{
				Username: "nameduser",
				Email:    "named@example.com",
				Password: "testpass123",
				Name:     "Ada",
				LastName: "Lovelace",
			},
			wantBio: "Hello, I am Ada Lovelace",
		},
		{
			name: "single name part, no trailing space",
			input: RegisterInput{
				Username: "singlename",
				Email:    "single@example.com",
				Password: "testpass123",
				Name:     "Ada",
			},
			wantBio: "Hello, I am Ada",
		},
		{
			name: "duplicate email",
			input: RegisterInput{
				Username: "newuser",
				Email:    "existing@example.com",
				Password: "testpass123",
			},
			setup: func(s *Service) {
				_ = s.Register(RegisterInput{Username: "existing", Email: "existing@example.com", Password: "pass123"})
			},
			wantErr: ErrEmailAlreadyExists,
		},
		{
			name: "duplicate username",
			input: RegisterInput{
				Username: "existing",
				Email:    "new@example.com",
				Password: "testpass123",
			},
			setup: func(s *Service) {
				_ = s.Register(RegisterInput{Username: "existing", Email: "existing@example.com", Password: "pass123"})
			},
			wantErr: ErrEmailAlreadyExists,
		},
		{
			name: "username colliding with existing email",
			input: RegisterInput{
				Username: "existing@example.com",
				Email:    "other@example.com",
				Password: "testpass123",
			},
			setup: func(s *Service) {
				_ = s.Register(RegisterInput{Username: "existing", Email: "existing@example.com", Password: "pass123"})
			},
			wantErr: ErrEmailAlreadyExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newTestService(t)
			if tt.setup != nil {
				tt.setup(svc)
			}

			err := svc.Register(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			account, err := repo.GetByIdentifier(tt.input.Username)
			require.NoError(t, err)
			assert.Equal(t, tt.input.Email, account.Email)
			assert.Equal(t, tt.wantBio, account.Bio)
			assert.Zero(t, account.FailedLoginCount)
			assert.Nil(t, account.LockoutEndTime)
			assert.Nil(t, account.ResetCode)
			assert.True(t, svc.CheckPasswordHash(tt.input.Password, account.PasswordHash))
		})
	}
}

func TestService_Login_Success(t *testing.T) {
	svc, repo, _ := newTestService(t)
	account := registerAccount(t, svc, repo, "testuser", "test@example.com", "testpass123")

	tests := []struct {
		name       string
		identifier string
	}{
		{name: "by username", identifier: "testuser"},
		{name: "by email", identifier: "test@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.Login(tt.identifier, "testpass123", testClient)
			require.NoError(t, err)

			assert.NotEmpty(t, result.AccessToken)
			assert.Equal(t, "Bearer", result.TokenType)
			assert.Equal(t, 3600, result.ExpiresIn)
			assert.Equal(t, account.ID, result.Account.ID)
			assert.Equal(t, "test@example.com", result.Account.Email)

			claims, err := svc.ValidateToken(result.AccessToken)
			require.NoError(t, err)
			assert.Equal(t, "testuser", claims.Username)
		})
	}

	rows := repo.historyFor("testuser")
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, LoginOutcomeSuccess, row.Status)
		assert.Equal(t, testClient.IP, row.IPAddress)
		assert.Equal(t, testClient.UserAgent, row.UserAgent)
	}
}

func TestService_Login_UnknownIdentifier(t *testing.T) {
	svc, repo, _ := newTestService(t)

	_, err := svc.Login("nobody@example.com", "whatever", testClient)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// The audit row is keyed by the raw identifier.
	rows := repo.historyFor("nobody@example.com")
	require.Len(t, rows, 1)
	assert.Equal(t, LoginOutcomeFailed, rows[0].Status)
}

func TestService_Login_WrongPasswordIncrementsCounter(t *testing.T) {
	svc, repo, _ := newTestService(t)
	account := registerAccount(t, svc, repo, "testuser", "test@example.com", "testpass123")

	_, err := svc.Login("testuser", "wrongpass", testClient)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	stored, err := repo.GetByID(account.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.FailedLoginCount)
	assert.Nil(t, stored.LockoutEndTime)

	// Failure rows are keyed by the canonical username.
	rows := repo.historyFor("testuser")
	require.Len(t, rows, 1)
	assert.Equal(t, LoginOutcomeFailed, rows[0].Status)
}

func TestService_Login_ThresholdLocksAndResetsCounter(t *testing.T) {
	svc, repo, _ := newTestService(t)
	account := registerAccount(t, svc, repo, "testuser", "test@example.com", "testpass123")

	// Four prior failures; the fifth wrong password sets the lock.
	repo.setLoginState(account.ID, 4, nil)

	before := time.Now()
	_, err := svc.Login("testuser", "wrongpass", testClient)
	// The locking attempt itself still reports bad credentials.
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	stored, err := repo.GetByID(account.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.FailedLoginCount)
	require.NotNil(t, stored.LockoutEndTime)
	assert.WithinDuration(t, before.Add(15*time.Minute), *stored.LockoutEndTime, 5*time.Second)
}

func TestService_Login_LockedAccount(t *testing.T) {
	svc, repo, _ := newTestService(t)
	account := registerAccount(t, svc, repo, "testuser", "test@example.com", "testpass123")

	lockUntil := time.Now().Add(10 * time.Minute)
	repo.setLoginState(account.ID, 0, &lockUntil)

	tests := []struct {
		name     string
		password string
	}{
		{name: "correct password", password: "testpass123"},
		{name: "wrong password", password: "wrongpass"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login("testuser", tt.password, testClient)
			assert.ErrorIs(t, err, ErrAccountLocked)
		})
	}

	// No audit rows on the locked branch.
	assert.Empty(t, repo.historyFor("testuser"))
}

func TestService_Login_ExpiredLockAdmits(t *testing.T) {
	svc, repo, _ := newTestService(t)
	account := registerAccount(t, svc, repo, "testuser", "test@example.com", "testpass123")

	expired := time.Now().Add(-time.Minute)
	repo.setLoginState(account.ID, 0, &expired)

	result, err := svc.Login("testuser", "testpass123", testClient)
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)

	stored, err := repo.GetByID(account.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.FailedLoginCount)
	assert.Nil(t, stored.LockoutEndTime)
}

func TestService_Login_SuccessResetsState(t *testing.T) {
	svc, repo, _ := newTestService(t)
	account := registerAccount(t, svc, repo, "testuser", "test@example.com", "testpass123")

	repo.setLoginState(account.ID, 3, nil)

	_, err := svc.Login("testuser", "testpass123", testClient)
	require.NoError(t, err)

	stored, err := repo.GetByID(account.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.FailedLoginCount)
	assert.Nil(t, stored.LockoutEndTime)
}

func TestService_ForgotPassword(t *testing.T) {
	svc, repo, sender := newTestService(t)
	registerAccount(t, svc, repo, "testuser", "test@example.com", "testpass123")

	message, err := svc.ForgotPassword("test@example.com")
	require.NoError(t, err)

	code := sender.codeFor("test@example.com")
	require.Len(t, code, 6)
	// The code travels out of band, never in the response.
	assert.NotContains(t, message, code)

	account, err := repo.GetByEmail("test@example.com")
	require.NoError(t, err)
	require.NotNil(t, account.ResetCode)
	assert.Equal(t, code, *account.ResetCode)
	require.NotNil(t, account.ResetCodeExpiresAt)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), *account.ResetCodeExpiresAt, 5*time.Second)
}

func TestService_ForgotPassword_UnknownAccount(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.ForgotPassword("nobody@example.com")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestService_ResetPassword_RoundTrip(t *testing.T) {
	svc, repo, sender := newTestService(t)
	account := registerAccount(t, svc, repo, "testuser", "test@example.com", "oldpass123")

	_, err := svc.ForgotPassword("test@example.com")
	require.NoError(t, err)
	code := sender.codeFor("test@example.com")

	err = svc.ResetPassword("test@example.com", code, "newpass456")
	require.NoError(t, err)

	stored, err := repo.GetByID(account.ID)
	require.NoError(t, err)
	assert.True(t, svc.CheckPasswordHash("newpass456", stored.PasswordHash))
	assert.Nil(t, stored.ResetCode)
	assert.Nil(t, stored.ResetCodeExpiresAt)

	// The code is single use.
	err = svc.ResetPassword("test@example.com", code, "anotherpass789")
	assert.ErrorIs(t, err, ErrInvalidResetCode)

	result, err := svc.Login("testuser", "newpass456", testClient)
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
}

func TestService_ResetPassword_Failures(t *testing.T) {
	code := "123456"
	expired := time.Now().Add(-time.Minute)
	valid := time.Now().Add(10 * time.Minute)

	tests := []struct {
		name    string
		email   string
		code    string
		setup   func(*mockRepository, uint)
		wantErr error
	}{
		{
			name:    "unknown account",
			email:   "nobody@example.com",
			code:    code,
			wantErr: ErrInvalidResetCode,
		},
		{
			name:    "no code issued",
			email:   "test@example.com",
			code:    code,
			wantErr: ErrInvalidResetCode,
		},
		{
			name:  "code mismatch",
			email: "test@example.com",
			code:  "654321",
			setup: func(repo *mockRepository, id uint) {
				repo.setResetState(id, &code, &valid)
			},
			wantErr: ErrInvalidResetCode,
		},
		{
			name:  "expired code with matching string",
			email: "test@example.com",
			code:  code,
			setup: func(repo *mockRepository, id uint) {
				repo.setResetState(id, &code, &expired)
			},
			wantErr: ErrResetCodeExpired,
		},
		{
			name:  "matching code without expiry",
			email: "test@example.com",
			code:  code,
			setup: func(repo *mockRepository, id uint) {
				repo.setResetState(id, &code, nil)
			},
			wantErr: ErrResetCodeExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newTestService(t)
			account := registerAccount(t, svc, repo, "testuser", "test@example.com", "oldpass123")
			if tt.setup != nil {
				tt.setup(repo, account.ID)
			}

			err := svc.ResetPassword(tt.email, tt.code, "newpass456")
			assert.ErrorIs(t, err, tt.wantErr)

			// The old password still works after a failed reset.
			stored, getErr := repo.GetByID(account.ID)
			require.NoError(t, getErr)
			assert.True(t, svc.CheckPasswordHash("oldpass123", stored.PasswordHash))
		})
	}
}

func TestService_GetProfile(t *testing.T) {
	svc, repo, _ := newTestService(t)
	account := registerAccount(t, svc, repo, "testuser", "test@example.com", "testpass123")

	profile, err := svc.GetProfile(account.ID)
	require.NoError(t, err)
	assert.Equal(t, "testuser", profile.Username)

	_, err = svc.GetProfile(account.ID + 100)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}
