// Package cli implements the pyext command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	pyext "github.com/contriboss/python-extension-go"
)

// Version is the CLI version (set via -ldflags).
var Version = "dev"

var (
	cfgFile     string
	repoDir     string
	projectFile string
	outDir      string
	compression string
	verbose     bool

	settings *viper.Viper
	logger   *log.Logger
	project  *pyext.Project
	dist     *pyext.Distribution
)

// newProducer builds the install tree producer for binary builds. Tests
// replace it with a double.
var newProducer = func(p *pyext.Project, logger *log.Logger) pyext.InstallTreeProducer {
	return &pyext.Orchestrator{Prefix: p.Name, Logger: logger}
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "pyext",
	Short: "Package a CMake-built native library for Python",
	Long: `pyext - package a CMake-built native library for Python

Binary builds run CMake's configure and install stages into a temporary
prefix and package that tree. Source distributions package the repository
as-is and never invoke CMake.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute executes the root command
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Assigned here rather than in the literal to avoid an initialization
	// cycle (loadDistribution -> initConfig -> rootCmd).
	rootCmd.PersistentPreRunE = loadDistribution

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/pyext/config.yaml)")
	flags.StringVar(&repoDir, "repo", ".", "repository root of the native library")
	flags.StringVar(&projectFile, "project", "", "project description file (default: built-in nanobind project)")
	flags.StringVarP(&outDir, "out", "o", "dist", "directory for produced archives")
	flags.StringVar(&compression, "compression", "gz", "archive compression (gz, xz)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(sdistCmd)
	rootCmd.AddCommand(manifestCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadDistribution reads configuration, the project description and the
// version header. It runs before every subcommand, so a broken version
// header stops the process before any build step.
func loadDistribution(cmd *cobra.Command, args []string) error {
	var err error

	settings, err = initConfig()
	if err != nil {
		return err
	}

	logger = log.NewWithOptions(cmd.ErrOrStderr(), log.Options{Prefix: "pyext"})
	if settings.GetBool("verbose") {
		logger.SetLevel(log.DebugLevel)
	}

	project = pyext.DefaultProject()
	if path := settings.GetString("project"); path != "" {
		if project, err = pyext.LoadProject(path); err != nil {
			return err
		}
	}
	bindToggles(settings, project.Toggles)

	dist, err = pyext.LoadDistribution(repoRoot(), project)
	if err != nil {
		return err
	}

	logger.Debug("loaded distribution", "name", dist.Metadata.Name, "version", dist.Metadata.Version)
	return nil
}

func initConfig() (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("PYEXT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	// An empty toggle variable is forwarded as-is, not replaced by the default
	v.AllowEmptyEnv(true)

	flags := rootCmd.PersistentFlags()
	for key, flag := range map[string]string{
		"repo":        "repo",
		"project":     "project",
		"out_dir":     "out",
		"compression": "compression",
		"verbose":     "verbose",
	} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return nil, fmt.Errorf("binding flag %s: %w", flag, err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "pyext"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	return v, nil
}

// bindToggles maps each toggle's environment variable onto
// toggles.<env> so it can also be set from the config file.
func bindToggles(v *viper.Viper, specs []pyext.ToggleSpec) {
	for _, spec := range specs {
		env := spec.Env
		if env == "" {
			env = spec.Name
		}
		_ = v.BindEnv(toggleKey(env), env)
	}
}

// toggleLookup resolves toggles from settings. Unset toggles fall back to
// the project default.
func toggleLookup(v *viper.Viper) pyext.LookupFunc {
	return func(env string) (string, bool) {
		key := toggleKey(env)
		if !v.IsSet(key) {
			return "", false
		}
		return v.GetString(key), true
	}
}

func toggleKey(env string) string {
	return "toggles." + strings.ToLower(env)
}

func repoRoot() string {
	if dir := settings.GetString("repo"); dir != "" {
		return dir
	}
	return "."
}
