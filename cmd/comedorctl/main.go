// Package main содержит терминальный клиент университетских столовых.
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mmeshcher/comedor-utm/internal/api"
	"github.com/mmeshcher/comedor-utm/internal/config"
	"github.com/mmeshcher/comedor-utm/internal/repository"
	"github.com/mmeshcher/comedor-utm/internal/session"
	"github.com/mmeshcher/comedor-utm/internal/view"
)

// sessionID — единственная сессия пользователя терминала.
const sessionID = "default"

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type app struct {
	out io.Writer

	apiURL  string
	home    string
	timeout time.Duration
	verbose bool

	logger *zap.Logger
	env    *view.Env
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	root := &cobra.Command{
		Use:           "comedorctl",
		Short:         "comedorctl — terminal client for the university cafeterias",
		Long:          "comedorctl signs in to the cafeteria backend, browses faculties, menus and reservations, and tops up balances.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.boot(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.apiURL, "api", "", "cafeteria backend base URL (env API_URL)")
	flags.StringVar(&a.home, "home", "", "directory for the saved session (env COMEDOR_HOME)")
	flags.DurationVar(&a.timeout, "timeout", 0, "backend request timeout (env REQUEST_TIMEOUT)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "log to stderr")

	// Сессия
	root.AddCommand(a.loginCmd())
	root.AddCommand(a.logoutCmd())
	root.AddCommand(a.registerCmd())
	root.AddCommand(a.homeCmd())

	// Студент
	root.AddCommand(a.dashboardCmd())
	root.AddCommand(a.cafeteriasCmd())
	root.AddCommand(a.menuCmd())
	root.AddCommand(a.reserveCmd())

	// Администратор столовой
	root.AddCommand(a.usersCmd())
	root.AddCommand(a.topUpCmd())

	return root
}

// boot собирает окружение представлений: конфигурацию, файловую сессию и клиент API.
func (a *app) boot(cmd *cobra.Command) error {
	cfg, err := config.ParseClient()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("api") {
		cfg.APIURL = a.apiURL
	}
	if flags.Changed("home") {
		cfg.Home = a.home
	}
	if flags.Changed("timeout") {
		cfg.RequestTimeout = a.timeout
	}

	a.logger = zap.NewNop()
	if a.verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("create logger: %w", err)
		}
		a.logger = logger
	}

	repo, err := repository.NewFileRepository(cfg.Home)
	if err != nil {
		return err
	}

	store := session.NewStore(repo, sessionID, a.logger)
	client := api.NewClient(cfg.APIURL, cfg.RequestTimeout)
	a.env = view.NewEnv(client, store, nil, a.logger)

	a.logger.Debug("comedorctl started",
		zap.String("api", cfg.APIURL),
		zap.String("home", cfg.Home),
		zap.Duration("timeout", cfg.RequestTimeout),
	)
	return nil
}
