package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"crm-usertool/internal/config"
	"crm-usertool/internal/repository"
	"crm-usertool/internal/repository/postgres"
	"crm-usertool/internal/repository/sqlite"
)

type app struct {
	v          *viper.Viper
	configFile string
	cfg        config.Config
	logger     *logrus.Logger
}

// NewRootCommand builds the crm-usertool command tree. Messages meant for the
// operator go to the command's output stream, logs go to stderr.
func NewRootCommand(stderr io.Writer) *cobra.Command {
	a := &app{v: config.New()}

	root := &cobra.Command{
		Use:           "crm-usertool",
		Short:         "Administrative tasks for CRM users",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(stderr)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default ./config.{yaml,toml,json} if present)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("db-driver", config.DriverSQLite, "database driver (sqlite or postgres)")
	flags.String("db-path", "", "sqlite database file")
	flags.String("db-dsn", "", "postgres connection string")

	_ = a.v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = a.v.BindPFlag("database.driver", flags.Lookup("db-driver"))
	_ = a.v.BindPFlag("database.path", flags.Lookup("db-path"))
	_ = a.v.BindPFlag("database.dsn", flags.Lookup("db-dsn"))

	root.AddCommand(newCreateUserCommand(a))
	return root
}

func (a *app) setup(stderr io.Writer) error {
	cfg, err := config.Load(a.v, a.configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg

	logger := logrus.New()
	logger.SetOutput(stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	logger.SetLevel(level)
	a.logger = logger
	return nil
}

// openUsers opens the configured backend and initialises the users table.
func (a *app) openUsers(ctx context.Context) (repository.UserRepository, func(), error) {
	log := a.logger.WithField("driver", a.cfg.Database.Driver)

	var (
		users   repository.UserRepository
		closeFn func()
	)
	switch a.cfg.Database.Driver {
	case config.DriverPostgres:
		db, err := postgres.Open(ctx, a.cfg.Database.DSN)
		if err != nil {
			return nil, nil, err
		}
		users = postgres.NewUserRepository(db)
		closeFn = func() {
			if err := postgres.Close(db); err != nil {
				log.Warnf("close database: %v", err)
			}
		}
	default:
		db, err := sqlite.Open(ctx, a.cfg.Database.Path)
		if err != nil {
			return nil, nil, err
		}
		log = log.WithField("path", a.cfg.Database.Path)
		users = sqlite.NewUserRepository(db)
		closeFn = func() {
			if err := db.Close(); err != nil {
				log.Warnf("close database: %v", err)
			}
		}
	}

	if err := users.Init(ctx); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("init user repository: %w", err)
	}
	log.Debug("database ready")
	return users, closeFn, nil
}
