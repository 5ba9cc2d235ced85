package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"pem-system/pkg/config"
	"pem-system/pkg/database/postgresql"
	applogger "pem-system/pkg/logger"
	"pem-system/pkg/utils"
	"pem-system/seeders"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	dsn         string
	timeout     time.Duration
	skipMigrate bool
)

var rootCmd = &cobra.Command{
	Use:   "seed",
	Short: "Наполнение БД PEM демонстрационными данными",
	Long: `seed применяет миграции и создаёт демонстрационных пользователей,
оборудование и отправки. Повторный запуск не создаёт дубликатов.`,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Применить миграции",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		skipMigrate = false
		return withPool(cmd.Context(), func(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
			logger.Info("migrate: схема БД актуальна")
			return nil
		})
	},
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Создать пользователей admin, operador и viewer",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPool(cmd.Context(), func(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
			count, err := seeders.NewSeeder(pool, logger).SeedUsers(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Пользователей: %d\n", count)
			return nil
		})
	},
}

var allCmd = &cobra.Command{
	Use:     "all",
	Aliases: []string{"demo"},
	Short:   "Создать пользователей, оборудование и отправки",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPool(cmd.Context(), func(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
			result, err := seeders.NewSeeder(pool, logger).SeedAll(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Пользователей: %d, оборудования: %d, отправок: %d\n",
				result.Users, result.Equipments, result.Shipments)
			return nil
		})
	},
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password <password>",
	Short: "Вывести bcrypt-хеш пароля",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := utils.HashPassword(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dsn, "dsn", "", "строка подключения к PostgreSQL (по умолчанию DATABASE_URL)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "общий таймаут операции")
	rootCmd.PersistentFlags().BoolVar(&skipMigrate, "skip-migrate", false, "не применять миграции перед наполнением")

	rootCmd.AddCommand(migrateCmd, usersCmd, allCmd, hashPasswordCmd)
}

// withPool подключается к БД, при необходимости мигрирует и вызывает fn.
func withPool(parent context.Context, fn func(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error) error {
	cfg := config.New()
	logger := applogger.NewLogger(cfg.Log)
	defer logger.Sync()

	if dsn == "" {
		dsn = cfg.Postgres.DSN
	}

	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	pool, err := postgresql.ConnectDB(ctx, dsn, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	if !skipMigrate {
		if err := postgresql.Migrate(ctx, pool, logger); err != nil {
			return err
		}
	}
	return fn(ctx, pool, logger)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка: %v\n", err)
		os.Exit(1)
	}
}
