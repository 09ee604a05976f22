package main

import (
	"fmt"
	"os"

	"storefront/internal/config"
	"storefront/internal/logging"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	// Flags
	envFile  string
	logLevel string
	devLogs  bool

	v      *viper.Viper
	cfg    config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "storefront",
	Short: "Storefront API server and seller tools",
	Long: `storefront runs the shop API and, on the seller side, registers products
and pulls server state (current sales, cart, purchases, profile).

Settings come from the environment, optionally seeded from a .env file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(envFile); err != nil {
			return err
		}
		var err error
		cfg, err = config.Load(v)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		logger, err = logging.New(cfg.LogLevel, devLogs)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	v = config.New()

	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Load environment variables from this file when it exists")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error); overrides LOG_LEVEL")
	rootCmd.PersistentFlags().BoolVar(&devLogs, "dev", false, "Human-readable development logs")
	rootCmd.PersistentFlags().String("server", "", "API base URL; overrides SERVER_URL")
	rootCmd.PersistentFlags().String("token", "", "Bearer token; overrides ACCESS_TOKEN")
	_ = v.BindPFlag("SERVER_URL", rootCmd.PersistentFlags().Lookup("server"))
	_ = v.BindPFlag("ACCESS_TOKEN", rootCmd.PersistentFlags().Lookup("token"))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(signupCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(fetchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
