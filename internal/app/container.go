package app

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/gemstone-market/identity/domain"
	"github.com/gemstone-market/identity/internal/config"
	"github.com/gemstone-market/identity/internal/infrastructure/auth"
	"github.com/gemstone-market/identity/internal/infrastructure/database"
	"github.com/gemstone-market/identity/internal/infrastructure/notifications"
	"github.com/gemstone-market/identity/internal/infrastructure/repositories"
	"github.com/gemstone-market/identity/internal/metrics"
	"github.com/gemstone-market/identity/internal/services"
)

// Container holds all dependencies
type Container struct {
	// Config
	Config *config.Config
	Log    zerolog.Logger

	// Infrastructure
	DB      *gorm.DB
	Redis   *database.RedisClient
	Bus     *notifications.Bus
	Metrics *metrics.Metrics

	// Repositories
	Store   domain.Store
	Pending domain.PendingStateStore

	// Primitives
	PasswordSvc domain.PasswordService
	TokenSvc    domain.TokenCodec
	TOTP        domain.TOTPProvider
	Sealer      domain.SecretSealer

	// Notifications
	Dispatcher *notifications.DispatcherImpl
	Audit      *notifications.AuditLoggerImpl

	// Services
	VerificationSvc domain.VerificationService
	RBAC            domain.RBACResolver
	RoleAdminSvc    domain.RoleAdminService
	AuthSvc         domain.AuthService
	MFASvc          domain.MFAService
}

// NewContainer creates and initializes all dependencies
func NewContainer(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Container, error) {
	c := &Container{Config: cfg, Log: log, Metrics: metrics.New()}

	if err := c.initDatabase(ctx); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.initRedis(ctx); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.initNotifications(); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.initServices(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// NewStoreContainer opens only the relational store. The maintenance commands
// need nothing else.
func NewStoreContainer(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	c := &Container{Config: cfg, Log: log, Metrics: metrics.New()}
	db, err := openDatabase(cfg)
	if err != nil {
		return nil, err
	}
	c.DB = db
	c.Store = repositories.NewStore(db)
	c.VerificationSvc = services.NewVerificationService(c.Store, nil)
	return c, nil
}

func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Open(database.Options{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.DSN,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		LogQueries:   cfg.Database.LogQueries,
	})
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	return db, nil
}

func (c *Container) initDatabase(ctx context.Context) error {
	db, err := openDatabase(c.Config)
	if err != nil {
		return err
	}
	c.DB = db

	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	c.Store = repositories.NewStore(db)
	if err := services.SeedDefaultRoles(ctx, c.Store); err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}
	return nil
}

func (c *Container) initRedis(ctx context.Context) error {
	c.Redis = database.NewRedis(c.Config.Redis.Addr, c.Config.Redis.Password, c.Config.Redis.DB)

	pingCtx, cancel := context.WithTimeout(ctx, database.DefaultTimeout)
	defer cancel()
	if err := c.Redis.Ping(pingCtx); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	c.Pending = repositories.NewPendingStateRepository(c.Redis.Client, nil)
	return nil
}

func (c *Container) initNotifications() error {
	n := c.Config.Notifications

	// Audit events ride the same stream as outgoing mail whenever NATS is configured.
	if n.NATS.URL != "" {
		bus, err := notifications.NewBus(n.NATS.URL,
			[]string{n.NATS.EmailSubject, n.NATS.AuditPrefix + ".>"},
			nats.Name("identityd"),
			nats.MaxReconnects(-1),
			nats.ReconnectWait(2*time.Second),
		)
		if err != nil {
			return err
		}
		c.Bus = bus
	}

	var email domain.EmailSender
	switch n.Mode {
	case "smtp":
		email = notifications.NewSMTPMailer(notifications.SMTPConfig{
			Host:     n.SMTP.Host,
			Port:     n.SMTP.Port,
			User:     n.SMTP.User,
			Password: n.SMTP.Password,
			From:     n.SMTP.From,
		})
	case "nats":
		email = notifications.NewNATSMailer(c.Bus, n.NATS.EmailSubject)
	default:
		email = notifications.NewLogMailer(c.Log)
	}
	sms := notifications.NewTwilioService(n.Twilio.AccountSID, n.Twilio.AuthToken, n.Twilio.FromNumber, c.Log)

	c.Dispatcher = notifications.NewDispatcher(email, sms, c.Config.App.BaseURL, n.DispatchTimeout.Std(), c.Log, c.Metrics)

	var publisher domain.EventPublisher
	if c.Bus != nil {
		publisher = c.Bus
	}
	c.Audit = notifications.NewAuditLogger(c.Log, publisher, n.NATS.AuditPrefix, n.DispatchTimeout.Std())
	return nil
}

func (c *Container) initServices() error {
	cfg := c.Config

	c.PasswordSvc = auth.NewPasswordService(cfg.Auth.HashCost, cfg.Auth.HashTimeout.Std())
	c.TokenSvc = auth.NewJWTService(auth.JWTOptions{
		AccessSecret:  cfg.JWT.AccessSecret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		Issuer:        cfg.JWT.Issuer,
		AccessTTL:     cfg.JWT.AccessTTL,
		RefreshTTL:    cfg.JWT.RefreshTTL,
	}, c.Log)
	c.TOTP = auth.NewTOTPService(cfg.MFA.Issuer)
	sealer, err := auth.NewSecretSealer(cfg.MFA.EncryptionKey)
	if err != nil {
		return fmt.Errorf("mfa sealer: %w", err)
	}
	c.Sealer = sealer

	c.VerificationSvc = services.NewVerificationService(c.Store, nil)
	c.RBAC = services.NewRBACService(c.Store)
	c.RoleAdminSvc = services.NewRoleAdminService(c.Store, c.Audit, c.Log)

	c.AuthSvc = services.NewAuthService(services.AuthDependencies{
		Store:        c.Store,
		Pending:      c.Pending,
		Passwords:    c.PasswordSvc,
		Tokens:       c.TokenSvc,
		Verification: c.VerificationSvc,
		RBAC:         c.RBAC,
		Dispatcher:   c.Dispatcher,
		Audit:        c.Audit,
		Metrics:      c.Metrics,
		Log:          c.Log,
	}, services.AuthSettings{
		DefaultRole:     cfg.Auth.DefaultRole,
		VerificationTTL: cfg.Auth.VerificationTTL.Std(),
		ResetTTL:        cfg.Auth.ResetTTL.Std(),
		ResendWindow:    cfg.Auth.ResendWindow.Std(),
		ResendMax:       cfg.Auth.ResendMax,
		ResetWindow:     cfg.Auth.ResetWindow.Std(),
		ResetMax:        cfg.Auth.ResetMax,
		ChallengeTTL:    cfg.MFA.ChallengeTTL.Std(),
	})

	c.MFASvc = services.NewMFAService(services.MFADependencies{
		Store:        c.Store,
		Pending:      c.Pending,
		TOTP:         c.TOTP,
		Sealer:       c.Sealer,
		Verification: c.VerificationSvc,
		Auth:         c.AuthSvc,
		Dispatcher:   c.Dispatcher,
		Audit:        c.Audit,
		Metrics:      c.Metrics,
		Log:          c.Log,
	}, services.MFASettings{
		EnrollmentTTL: cfg.MFA.EnrollmentTTL.Std(),
		MaxAttempts:   cfg.MFA.MaxAttempts,
	})
	return nil
}

// Close waits for in-flight notifications, then closes all connections
func (c *Container) Close() {
	if c.Dispatcher != nil {
		c.Dispatcher.Wait()
	}
	if c.Audit != nil {
		c.Audit.Wait()
	}
	c.Bus.Close()
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.Log.Warn().Err(err).Msg("redis close failed")
		}
	}
	if c.DB != nil {
		if err := database.Close(c.DB); err != nil {
			c.Log.Warn().Err(err).Msg("database close failed")
		}
	}
}
