package bootstrap

import (
	appconfig "github.com/GonzaloEspina/barbatero-landing/internal/config"
	"github.com/GonzaloEspina/barbatero-landing/internal/notify"
	"github.com/GonzaloEspina/barbatero-landing/pkg/logging"
)

// BuildEmailSender picks the confirmation email transport from
// EMAIL_PROVIDER. ses is only used when the caller supplies a client.
// Anything unusable falls back to the logging stub.
func BuildEmailSender(cfg *appconfig.Config, ses notify.SESAPI, logger *logging.Logger) notify.EmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	switch cfg.EmailProvider {
	case "sendgrid":
		if s := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.EmailFrom,
			FromName:  cfg.EmailFromName,
		}, logger); s != nil {
			logger.Info("confirmation emails via sendgrid")
			return s
		}
	case "ses":
		if s := notify.NewSESSender(ses, notify.SESConfig{
			FromEmail: cfg.EmailFrom,
			FromName:  cfg.EmailFromName,
		}, logger); s != nil {
			logger.Info("confirmation emails via ses", "region", cfg.AWSRegion)
			return s
		}
	case "", "stub", "log":
		return notify.NewStubEmailSender(logger)
	}
	logger.Warn("email provider unusable, confirmation emails are only logged", "provider", cfg.EmailProvider)
	return notify.NewStubEmailSender(logger)
}
