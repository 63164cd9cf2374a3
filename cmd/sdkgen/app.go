package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/usestring/powhttp-sdkgen/internal/config"
	"github.com/usestring/powhttp-sdkgen/internal/logging"
)

// errFailures reports that the run finished but some unit failed. The
// summary already said which.
var errFailures = errors.New("one or more endpoints or targets failed")

type app struct {
	stdin          io.Reader
	stdout, stderr io.Writer

	cfgFile   string
	logLevel  string
	logFormat string

	v          *viper.Viper
	cfg        *config.Config
	logCleanup func() error
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{stdin: stdin, stdout: stdout, stderr: stderr, v: viper.New()}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "sdkgen",
		Short: "Generate API clients and docs from captured HTTP traffic",
		Long: `sdkgen reads captured HTTP exchanges (HAR files, proxy JSON logs or
powhttp sessions), detects the endpoints they exercise, infers request and
response schemas, and emits typed client libraries for Go, Python and
TypeScript together with OpenAPI and Markdown documentation.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return a.init() },
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default is ./.sdkgen.yaml if present)")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&a.logFormat, "log-format", "", "log format: text or json")

	root.AddCommand(
		a.analyzeCmd(),
		a.generateCmd(),
		a.docsCmd(),
		a.captureCmd(),
		a.serveCmd(),
		a.languagesCmd(),
	)
	return root
}

// init loads .env, the config file and the environment, then sets up
// logging. Flags override everything else.
func (a *app) init() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(a.stderr, "warning: failed to load .env file: %v\n", err)
	}

	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else {
		a.v.AddConfigPath(".")
		a.v.SetConfigName(".sdkgen")
		a.v.SetConfigType("yaml")
	}
	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if a.cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}

	a.cfg = config.Load()
	config.ApplyViper(a.cfg, a.v)
	if a.logLevel != "" {
		a.cfg.LogLevel = a.logLevel
	}
	if a.logFormat != "" {
		a.cfg.LogFormat = a.logFormat
	}

	lc := logging.FromConfig(a.cfg)
	lc.Stderr = a.stderr
	cleanup, err := logging.Setup(lc)
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	a.logCleanup = cleanup

	if used := a.v.ConfigFileUsed(); used != "" {
		slog.Debug("config file loaded", slog.String("path", used))
	}
	return nil
}

func (a *app) close() {
	if a.logCleanup != nil {
		_ = a.logCleanup()
	}
}

// output opens path for writing, or returns stdout for "" and "-".
func (a *app) output(path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return a.stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output: %w", err)
	}
	return f, f.Close, nil
}
