package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ud28188-create/codonyx.org/internal/api"
	"github.com/ud28188-create/codonyx.org/internal/database"
	"github.com/ud28188-create/codonyx.org/internal/services"
)

const defaultShutdownTimeout = 15 * time.Second

func runServe(ctx context.Context, configPath string) error {
	rc, err := loadRuntimeConfig(configPath)
	if err != nil {
		return err
	}
	cfg, log := rc.Config, rc.Log

	stack, err := bootstrapRuntime(ctx, rc)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      stack.Router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var errs error
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("server error: %w", err))
		}
	}

	timeout := cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		errs = multierr.Append(errs, fmt.Errorf("graceful shutdown: %w", err))
	}
	if err := stack.Shutdown(shutdownCtx); err != nil {
		errs = multierr.Append(errs, err)
	}

	if errs == nil {
		log.Info("server stopped gracefully")
	}
	return errs
}

func runMigrate(_ context.Context, configPath string, out io.Writer) error {
	rc, err := loadRuntimeConfig(configPath)
	if err != nil {
		return err
	}

	db, err := initialiseDatabase(rc.Config)
	if err != nil {
		return err
	}
	defer database.Close(db)

	_, err = fmt.Fprintln(out, "migrations applied")
	return err
}

// withServices opens the database and builds the domain services without the HTTP layer.
func withServices(configPath string, fn func(*api.Services) error) error {
	rc, err := loadRuntimeConfig(configPath)
	if err != nil {
		return err
	}

	db, err := initialiseDatabase(rc.Config)
	if err != nil {
		return err
	}

	svc, err := api.NewServices(db, rc.Config, nil, nil, nil)
	if err != nil {
		return multierr.Append(err, database.Close(db))
	}
	return multierr.Append(fn(svc), database.Close(db))
}

func runCreateAdmin(ctx context.Context, configPath, email, password string, out io.Writer) error {
	return withServices(configPath, func(svc *api.Services) error {
		user, err := svc.Setup.CreateAdmin(ctx, services.CreateAdminInput{
			Email:    email,
			Password: password,
		})
		if err != nil {
			return fmt.Errorf("create admin: %w", err)
		}
		_, err = fmt.Fprintf(out, "created admin %s (%s)\n", user.Email, user.ID)
		return err
	})
}

func runInviteCreate(ctx context.Context, configPath, label, expires string, out io.Writer) error {
	var expiresAt *time.Time
	if value := strings.TrimSpace(expires); value != "" {
		lifetime, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid --expires %q: %w", expires, err)
		}
		if lifetime <= 0 {
			return fmt.Errorf("--expires must be positive")
		}
		at := time.Now().Add(lifetime).UTC()
		expiresAt = &at
	}

	return withServices(configPath, func(svc *api.Services) error {
		issued, err := svc.Invites.Create(ctx, services.CreateInviteInput{
			Label:     label,
			ExpiresAt: expiresAt,
		}, "")
		if err != nil {
			return fmt.Errorf("create invite: %w", err)
		}
		_, err = fmt.Fprintf(out, "invite %s expires %s\n%s\n",
			issued.Invite.ID, issued.Invite.ExpiresAt.Format(time.RFC3339), issued.Link)
		return err
	})
}
