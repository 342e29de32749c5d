package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ccmeter/ccmeter/internal/util"
)

var (
	cfgFile string
	dataDir string
	debug   bool
	logFile string

	rootCmd = &cobra.Command{
		Use:   "ccmeter",
		Short: "Claude Code usage metering",
		Long: `ccmeter aggregates token usage and cost from Claude Code JSONL
conversation logs.

It scans the per-project log directories, folds every usage record into
exact per-model and per-project totals, and serves the result as a one-shot
report (ccmeter stats) or a live HTTP API (ccmeter serve).`,
		SilenceUsage: true,
	}
)

const defaultDataDir = "~/.claude/projects"

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"Config file (default ~/.ccmeter/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "dir", defaultDataDir,
		"Claude project directory path")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"Enable debug logging to stderr")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "",
		"Log file path (empty = stderr only)")

	viper.BindPFlag("dir", rootCmd.PersistentFlags().Lookup("dir"))
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("log_file", rootCmd.PersistentFlags().Lookup("log-file"))
}

// initConfig layers config sources: flags override env, env overrides the
// config file.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".ccmeter"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	viper.SetEnvPrefix("CCMETER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "using config file:", viper.ConfigFileUsed())
	}
}

// newLogger builds the process logger from the resolved configuration.
func newLogger() (zerolog.Logger, error) {
	file := viper.GetString("log_file")
	if file != "" {
		file = expandPath(file)
	}
	return util.NewLogger(viper.GetBool("debug"), file)
}

func resolvedDataDir() string {
	return expandPath(viper.GetString("dir"))
}

func Execute() error {
	return rootCmd.Execute()
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}
