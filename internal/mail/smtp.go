package mail

import (
	"fmt"
	"net/smtp"

	"go.uber.org/zap"

	"github.com/wired-social/auth-service/internal/config"
)

// SMTPSender delivers password-reset codes by email.
type SMTPSender struct {
	config *config.MailConfig
	log    *zap.Logger
}

func NewSMTPSender(config *config.MailConfig, log *zap.Logger) *SMTPSender {
	return &SMTPSender{
		config: config,
		log:    log,
	}
}

func (s *SMTPSender) SendResetCode(email, code string) error {
	addr := fmt.Sprintf("%s:%d", s.config.SMTPHost, s.config.SMTPPort)

	var auth smtp.Auth
	if s.config.Username != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.SMTPHost)
	}

	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: Password reset code\r\n\r\nYour verification code is %s.\r\n",
		s.config.From, email, code,
	)

	if err := smtp.SendMail(addr, auth, s.config.From, []string{email}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send reset code: %w", err)
	}

	s.log.Info("reset code delivered", zap.String("email", email))
	return nil
}
