package factory

import (
	"github.com/mikey/catalog-auditor/internal/adapters/notify"
	"github.com/mikey/catalog-auditor/internal/config"
	"github.com/mikey/catalog-auditor/internal/core"
	"go.uber.org/zap"
)

// NotifierFactory creates the digest notifier
type NotifierFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewNotifierFactory creates a new notifier factory
func NewNotifierFactory(cfg *config.Config, logger *zap.Logger) *NotifierFactory {
	return &NotifierFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateNotifier returns an SMTP notifier, or a log notifier when mail is disabled
func (f *NotifierFactory) CreateNotifier() (core.Notifier, error) {
	mc := f.cfg.GetMail()
	if !mc.Enabled {
		f.logger.Info("Mail disabled, digests will be logged")
		return notify.NewLogNotifier(f.logger.Named("notify")), nil
	}

	var opts []notify.Option
	if mc.StartTLS {
		opts = append(opts, notify.WithStartTLS(nil))
	}

	f.logger.Info("Mail enabled",
		zap.String("host", mc.Host),
		zap.Int("port", mc.Port),
		zap.Bool("starttls", mc.StartTLS),
		zap.Strings("recipients", mc.Recipients))
	return notify.NewSMTPNotifier(mc.Host, mc.Port, mc.Username, mc.Password, mc.From, mc.Recipients, f.logger.Named("smtp"), opts...)
}
