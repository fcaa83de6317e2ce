package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/okravchenko/tidechat-server/internal/app"
	"github.com/okravchenko/tidechat-server/internal/auth"
	"github.com/okravchenko/tidechat-server/internal/config"
	"github.com/okravchenko/tidechat-server/internal/log"
	"github.com/okravchenko/tidechat-server/internal/store/sqlite"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "tidechat-server",
		Short:         "Tidechat realtime gateway",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")

	root.AddCommand(serveCmd(&configPath))
	root.AddCommand(addUserCmd(&configPath))
	root.AddCommand(tokenCmd(&configPath))
	return root
}

func loadConfig(configPath string) (config.Config, error) {
	bootstrapLogger := log.New("info")
	cfg, path, err := config.Load(bootstrapLogger, configPath)
	if err != nil {
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

func serveCmd(configPath *string) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the realtime gateway",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}

			logger := log.New(cfg.LogLevel)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.New(&cfg, logger)
			if err != nil {
				return err
			}

			logger.Info().Str("addr", cfg.Addr).Str("env", string(cfg.Environment)).Msg("starting tidechat gateway")
			if err := application.Run(ctx); err != nil {
				return fmt.Errorf("server exited: %w", err)
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address override")
	return cmd
}

func addUserCmd(configPath *string) *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:   "adduser <username> <password>",
		Short: "Provision a user in the gateway database",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			st, err := sqlite.New(cfg.DatabasePath)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			hash, err := auth.HashPassword(args[1])
			if err != nil {
				return err
			}

			user, err := st.CreateUser(cmd.Context(), args[0], args[0], hash, role)
			if err != nil {
				return fmt.Errorf("create user: %w", err)
			}
			fmt.Printf("created user %s (id %d, role %s)\n", user.Username, user.ID, user.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", "user", "user role (user or admin)")
	return cmd
}

func tokenCmd(configPath *string) *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token <username> <password>",
		Short: "Mint a JWT for an existing user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			st, err := sqlite.New(cfg.DatabasePath)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			user, err := st.GetUserByUsername(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("lookup user: %w", err)
			}
			if err := auth.ComparePassword(user.PasswordHash, args[1]); err != nil {
				return fmt.Errorf("invalid credentials")
			}

			jwtConfig := &auth.JWTConfig{
				Secret:   []byte(cfg.JWTSecret),
				Issuer:   cfg.JWTIssuer,
				Audience: cfg.JWTAudience,
				TTL:      ttl,
			}
			token, err := auth.GenerateToken(jwtConfig, user.ID, user.Username, user.Role)
			if err != nil {
				return fmt.Errorf("generate token: %w", err)
			}
			fmt.Println(token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
