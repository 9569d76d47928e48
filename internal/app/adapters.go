package app

import (
	"strings"

	"github.com/ud28188-create/codonyx.org/internal/cache"
	"github.com/ud28188-create/codonyx.org/internal/database"
	"github.com/ud28188-create/codonyx.org/internal/storage"
	"github.com/ud28188-create/codonyx.org/pkg/mail"
)

// DatabaseSettings converts DatabaseConfig to the database package representation.
func (c DatabaseConfig) DatabaseSettings() database.Config {
	return database.Config{
		Driver:          c.Driver,
		Path:            c.Path,
		DSN:             c.DSN,
		Host:            c.Host,
		Port:            c.Port,
		User:            c.User,
		Password:        c.Password,
		Name:            c.Name,
		Options:         c.Options,
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxIdleConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
		LogLevel:        c.LogLevel,
	}
}

// RedisClientConfig converts the cache configuration into the cache package representation.
func (c CacheConfig) RedisClientConfig() cache.RedisConfig {
	return cache.RedisConfig{
		Address:  strings.TrimSpace(c.Redis.Address),
		Username: strings.TrimSpace(c.Redis.Username),
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
		TLS:      c.Redis.TLS,
		Timeout:  c.Redis.Timeout,
	}
}

// MailSettings converts EmailConfig to the mail package representation.
func (c EmailConfig) MailSettings() mail.Settings {
	return mail.Settings{
		Provider: c.Provider,
		From:     c.From,
		FromName: c.FromName,
		SMTP: mail.SMTPSettings{
			Host:     c.SMTP.Host,
			Port:     c.SMTP.Port,
			Username: c.SMTP.Username,
			Password: c.SMTP.Password,
			UseTLS:   c.SMTP.UseTLS,
			Timeout:  c.SMTP.Timeout,
		},
		SES: mail.SESSettings{
			Region:  c.SES.Region,
			Timeout: c.SES.Timeout,
		},
	}
}

// S3Settings converts the S3 section to the storage package representation.
func (c StorageConfig) S3Settings() storage.S3Settings {
	return storage.S3Settings{
		Bucket:    strings.TrimSpace(c.S3.Bucket),
		Region:    strings.TrimSpace(c.S3.Region),
		Endpoint:  strings.TrimSpace(c.S3.Endpoint),
		PublicURL: strings.TrimSpace(c.S3.PublicURL),
		PathStyle: c.S3.PathStyle,
	}
}

// UsesS3 reports whether uploads go to S3 instead of the local filesystem.
func (c StorageConfig) UsesS3() bool {
	return strings.EqualFold(strings.TrimSpace(c.Driver), "s3")
}
