package auth

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/wired-social/auth-service/internal/config"
	"github.com/wired-social/auth-service/internal/mail"
)

// NewModule returns the auth module options
func NewModule() fx.Option {
	return fx.Options(
		fx.Provide(
			// Provide repository
			fx.Annotate(
				func(db *gorm.DB) Repository {
					return NewRepository(db)
				},
			),
			// Provide reset-code delivery
			fx.Annotate(
				func(config *config.AppConfig, log *zap.Logger) CodeSender {
					if config.Mail.Enabled {
						return mail.NewSMTPSender(&config.Mail, log)
					}
					return NewLogCodeSender(log)
				},
			),
			// Provide service
			fx.Annotate(
				func(config *config.AppConfig, log *zap.Logger, repo Repository, sender CodeSender) *Service {
					return NewService(&config.Auth, log, repo, sender)
				},
			),
			// Provide handler
			fx.Annotate(
				func(svc *Service, log *zap.Logger) *Handler {
					return NewHandler(svc, log)
				},
			),
			// Provide middleware
			fx.Annotate(
				func(config *config.AppConfig) *Middleware {
					return NewMiddleware(&config.Auth)
				},
			),
		),
	)
}
