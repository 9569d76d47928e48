package database

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func openPostgres(cfg Config, gormCfg *gorm.Config) (*gorm.DB, error) {
	dsn, err := buildPostgresDSN(cfg)
	if err != nil {
		return nil, err
	}
	return gorm.Open(postgres.Open(dsn), gormCfg)
}

func openMySQL(cfg Config, gormCfg *gorm.Config) (*gorm.DB, error) {
	dsn, err := buildMySQLDSN(cfg)
	if err != nil {
		return nil, err
	}
	return gorm.Open(mysql.Open(dsn), gormCfg)
}

// buildPostgresDSN renders a libpq keyword/value string. sslmode defaults to disable.
func buildPostgresDSN(cfg Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}
	if err := requireServerFields("postgres", cfg); err != nil {
		return "", err
	}

	options := mergeOptions(map[string]string{"sslmode": "disable"}, cfg.Options)
	options["host"] = withDefault(cfg.Host, "localhost")
	options["port"] = fmt.Sprint(withDefaultPort(cfg.Port, 5432))
	options["user"] = cfg.User
	options["dbname"] = cfg.Name
	if cfg.Password != "" {
		options["password"] = cfg.Password
	}

	leading := []string{"host", "port", "user", "dbname"}
	parts := make([]string, 0, len(options))
	for _, key := range leading {
		parts = append(parts, key+"="+options[key])
		delete(options, key)
	}
	for _, key := range sortedKeys(options) {
		parts = append(parts, key+"="+options[key])
	}
	return strings.Join(parts, " "), nil
}

// buildMySQLDSN renders a go-sql-driver DSN with parseTime enabled.
func buildMySQLDSN(cfg Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}
	if err := requireServerFields("mysql", cfg); err != nil {
		return "", err
	}

	credentials := cfg.User
	if cfg.Password != "" {
		credentials += ":" + cfg.Password
	}

	options := mergeOptions(map[string]string{
		"charset":   "utf8mb4",
		"parseTime": "True",
		"loc":       "UTC",
	}, cfg.Options)

	query := make([]string, 0, len(options))
	for _, key := range sortedKeys(options) {
		query = append(query, key+"="+options[key])
	}

	return fmt.Sprintf("%s@tcp(%s:%d)/%s?%s",
		credentials,
		withDefault(cfg.Host, "127.0.0.1"),
		withDefaultPort(cfg.Port, 3306),
		cfg.Name,
		strings.Join(query, "&"),
	), nil
}

func requireServerFields(driver string, cfg Config) error {
	if strings.TrimSpace(cfg.User) == "" || strings.TrimSpace(cfg.Name) == "" {
		return errors.New(driver + " configuration requires user and database name")
	}
	return nil
}

func mergeOptions(base, overrides map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(overrides))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func withDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func withDefaultPort(port, fallback int) int {
	if port <= 0 {
		return fallback
	}
	return port
}
