package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"rostercal/internal/config"
	appLog "rostercal/internal/log"
	"rostercal/internal/store"
	"rostercal/internal/workset"
)

var version = "0.1.0-dev"

var (
	configPath string
	logLevel   string
	envFiles   []string
)

var rootCmd = &cobra.Command{
	Use:   "rostercal",
	Short: "Normalize personnel spreadsheets into one schedule",
	Long: `rostercal ingests schedule, evaluation and recall roster exports with
arbitrary column names, normalizes every row into a canonical record and serves
timeline, category and org-chart views over HTTP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if _, err := config.LoadEnvFiles(envFiles...); err != nil {
			return errors.Wrap(err, "load env files")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		appLog.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./config.yaml", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level (debug, info, error)")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{".env", ".env.local"}, "Env files to load if present")

	rootCmd.AddCommand(serveCmd, normalizeCmd, diagramCmd, exportCmd, versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println("rostercal " + version)
	},
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		appLog.Error("command failed", err)
		appLog.Sync()
		os.Exit(1)
	}
}

// loadConfig loads the config file and configures logging from it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, errors.Wrapf(err, "load config %s", configPath)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	appLog.Configure(appLog.ParseLevel(cfg.LogLevel), cfg.LogFormat)
	return cfg, nil
}

// openState restores the persisted sources into a State that saves back to
// the same file after every change.
func openState(cfg *config.Config) (*workset.State, error) {
	fileStore := store.NewFile(cfg.StatePath)
	snap, err := fileStore.Load()
	if err != nil {
		return nil, err
	}
	st := workset.NewState(
		workset.WithLocation(cfg.Location()),
		workset.WithPersister(fileStore),
	)
	st.Restore(snap)
	return st, nil
}

func newReadOnlyState(loc *time.Location) *workset.State {
	return workset.NewState(workset.WithLocation(loc))
}
