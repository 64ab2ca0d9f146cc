package auth

import (
	"go.uber.org/zap"
)

// CodeSender delivers a password-reset code to the account owner out of
// band. The HTTP response never carries the code.
type CodeSender interface {
	SendResetCode(email, code string) error
}

// LogCodeSender writes codes to the application log. Development only.
type LogCodeSender struct {
	log *zap.Logger
}

func NewLogCodeSender(log *zap.Logger) *LogCodeSender {
	return &LogCodeSender{log: log}
}

func (s *LogCodeSender) SendResetCode(email, code string) error {
	s.log.Info("password reset code issued",
		zap.String("email", email),
		zap.String("code", code))
	return nil
}
