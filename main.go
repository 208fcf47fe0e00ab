// Package main provides the entry point for the herald CLI application.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/herald/internal/text"
	"github.com/dgnsrekt/herald/internal/watch"
	"github.com/dgnsrekt/herald/ui"
	"github.com/joho/godotenv"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	watchDirs  []string
	mouse      bool

	rootCmd = &cobra.Command{
		Use:   "herald",
		Short: "Speak notifications without getting in the way",
		Long: paragraph(
			fmt.Sprintf("\nTurn events into %s without ever blocking the thing producing them.", keyword("speech")),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: runTUI,
	}
)

func validateOptions(cmd *cobra.Command) error {
	if configFile != "" && cmd.Flags().Changed("config") {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("unable to read config file: %w", err)
		}
	}

	if viper.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}

	name := viper.GetString("backend")
	if err := validateBackendName(name); err != nil {
		return err
	}

	if r := viper.GetFloat64("watch.rate"); r <= 0 {
		return fmt.Errorf("watch.rate must be positive, got %v", r)
	}
	if mb := viper.GetInt64("cache.max_size"); mb < 1 || mb > 10000 {
		return fmt.Errorf("cache.max_size must be between 1 and 10000 MB, got %d", mb)
	}
	if model := viper.GetString("piper.model"); model != "" {
		if _, err := os.Stat(expandPath(model)); err != nil {
			return fmt.Errorf("piper model file does not exist: %s", model)
		}
	}
	return nil
}

func runTUI(*cobra.Command, []string) error {
	// Read environment to get debugging stuff
	cfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}
	cfg.Text = text.DefaultOptions()
	if mouse {
		cfg.EnableMouse = true
	}

	h := startSpeech(log.Default())
	defer drainSpeech(h, closeTimeout)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var events chan string
	if len(watchDirs) > 0 {
		events = make(chan string, 16)
		w, err := watch.New(watchConfig(watchDirs), log.Default())
		if err != nil {
			return err
		}
		go func() {
			defer close(events)
			_ = w.Run(ctx, func(e watch.Event) {
				select {
				case events <- e.Message():
				default:
					log.Debug("TUI busy, dropping change", "file", e.Path)
				}
			})
		}()
	}

	var sp ui.Speaker
	if h != nil {
		sp = h
	}
	if _, err := ui.NewProgram(cfg, sp, events).Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}
	return nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	// A .env in the working directory may set HERALD_* variables.
	_ = godotenv.Load()

	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	pf.StringP("backend", "b", "auto", "speech backend (auto, piper, spd, espeak, log)")
	pf.String("greeting", "", "text spoken when speech starts")
	pf.String("model", "", "piper voice model (.onnx)")
	pf.Bool("debug", false, "write debug output to the log file")

	rootCmd.Flags().StringSliceVarP(&watchDirs, "watch", "w", nil, "announce changes to files in these directories")
	rootCmd.Flags().BoolVarP(&mouse, "mouse", "m", false, "enable mouse wheel")
	_ = rootCmd.Flags().MarkHidden("mouse")

	// Config bindings
	_ = viper.BindPFlag("backend", pf.Lookup("backend"))
	_ = viper.BindPFlag("greeting", pf.Lookup("greeting"))
	_ = viper.BindPFlag("piper.model", pf.Lookup("model"))
	_ = viper.BindPFlag("debug", pf.Lookup("debug"))

	viper.SetDefault("backend", "auto")
	viper.SetDefault("greeting", "")
	viper.SetDefault("timeout", "2m")
	viper.SetDefault("piper.binary", "piper")
	viper.SetDefault("piper.model", "")
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.dir", "")
	viper.SetDefault("cache.max_size", 64)
	viper.SetDefault("watch.patterns", []string{"*"})
	viper.SetDefault("watch.rate", 0.5)
	viper.SetDefault("watch.all", false)
	viper.SetDefault("serve.addr", "127.0.0.1:7788")

	rootCmd.AddCommand(sayCmd, watchCmd, serveCmd, backendsCmd, configCmd, manCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "herald")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "herald")}, dirs...)
	}

	if c := os.Getenv("HERALD_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("herald")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("herald")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	configFile = filepath.Join(dirs[0], "herald.yml")
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
