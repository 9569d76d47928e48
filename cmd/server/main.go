package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ud28188-create/codonyx.org/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd wires the command tree. Running the binary without a subcommand serves the API.
func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "codonyx",
		Short:         "Codonyx membership API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration directory or file")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP API server",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServe(cmd.Context(), configPath)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply database migrations and seed default roles",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runMigrate(cmd.Context(), configPath, cmd.OutOrStdout())
			},
		},
		newCreateAdminCmd(&configPath),
		newInviteCmd(&configPath),
	)
	return root
}

func newCreateAdminCmd(configPath *string) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		Long: `Create an administrator account directly in the database.

Unlike the first-run setup endpoint this works even when admins already exist.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreateAdmin(cmd.Context(), *configPath, email, password, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Administrator email address")
	cmd.Flags().StringVar(&password, "password", "", "Administrator password (min 6 characters)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newInviteCmd(configPath *string) *cobra.Command {
	invite := &cobra.Command{
		Use:   "invite",
		Short: "Manage registration invites",
	}

	var (
		label   string
		expires string
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Issue a single-use registration invite and print its link",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInviteCreate(cmd.Context(), *configPath, label, expires, cmd.OutOrStdout())
		},
	}
	create.Flags().StringVar(&label, "label", "", "Optional label shown in the admin invite list")
	create.Flags().StringVar(&expires, "expires", "", "Lifetime such as 72h; defaults to invites.ttl")

	invite.AddCommand(create)
	return invite
}
