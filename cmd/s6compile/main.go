package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"strings"

	"github.com/CZERTAINLY/s6compile/internal/compile"
	"github.com/CZERTAINLY/s6compile/internal/emit"
	"github.com/CZERTAINLY/s6compile/internal/expand"
	"github.com/CZERTAINLY/s6compile/internal/load"
	"github.com/CZERTAINLY/s6compile/internal/log"
	"github.com/CZERTAINLY/s6compile/internal/logterm"
	"github.com/CZERTAINLY/s6compile/internal/model"
	"github.com/CZERTAINLY/s6compile/internal/resolve"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "S6COMPILE"

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		slog.Error("s6compile failed", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:   "s6compile [INPUT_DIR]",
		Short: "Compiles service declarations into an s6-rc source directory",
		Long: `Compiles service declarations into an s6-rc source directory.

Every file in INPUT_DIR declares one service (TOML, YAML or JSON). Only the
services listed in --services-enabled and their transitive dependencies are
compiled; all of them when the flag is not given.

Every flag can be set via a S6COMPILE_ prefixed environment variable,
e.g. S6COMPILE_OUTPUT_DIR, and INPUT_DIR via S6COMPILE_INPUT_DIR.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				v.Set("input-dir", args[0])
			}
			return doCompile(cmd, v)
		},
	}

	flags := rootCmd.Flags()
	flags.StringP("output-dir", "o", "", "output directory (s6-rc source directory)")
	flags.String("output-logterm-config", "", "write logterm configuration to the given file")
	flags.StringSlice("services-enabled", nil, "compile only these services and their transitive dependencies (comma separated)")
	flags.Int("parallelism", 0, "number of files decoded and services expanded in parallel (default number of CPUs)")
	flags.Bool("verbose", false, "verbose logging")
	if err := v.BindPFlags(flags); err != nil {
		panic(err)
	}
	// INPUT_DIR is positional, so it has no flag to bind the variable through.
	if err := v.BindEnv("input-dir"); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "version provide version of a s6compile",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			info, ok := debug.ReadBuildInfo()
			if !ok {
				_, _ = fmt.Fprintln(out, "s6compile: version info not available")
				return
			}

			_, _ = fmt.Fprintf(out, "s6compile: %s\n", info.Main.Version)
			_, _ = fmt.Fprintf(out, "go:        %s\n", info.GoVersion)
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					_, _ = fmt.Fprintf(out, "commit:    %s\n", s.Value)
				case "vcs.time":
					_, _ = fmt.Fprintf(out, "date:      %s\n", s.Value)
				case "vcs.modified":
					_, _ = fmt.Fprintf(out, "dirty:     %s\n", s.Value)
				}
			}
		},
	}
}

func doCompile(cmd *cobra.Command, v *viper.Viper) error {
	cfg, err := model.ParseConfig(v)
	if err != nil {
		return fmt.Errorf("parsing configuration: %w", err)
	}

	slog.SetDefault(log.New(cmd.ErrOrStderr(), cfg.Verbose))
	attrs := slog.Group("s6compile",
		slog.String("run", uuid.NewString()),
		slog.Int("pid", os.Getpid()),
	)
	ctx := log.ContextAttrs(cmd.Context(), attrs)
	slog.DebugContext(ctx, "s6compile run", "config", cfg)

	services, err := load.Dir(ctx, cfg.InputDir, cfg.Parallelism)
	if err != nil {
		logDetails(ctx, err)
		return err
	}

	// unknown services are reported before the output is touched
	if _, err := resolve.Enabled(services, cfg.ServicesEnabled); err != nil {
		return err
	}

	w, err := emit.Open(cfg.OutputDir)
	if err != nil {
		return err
	}
	defer func() {
		_ = w.Close()
	}()

	stdout := cmd.OutOrStdout()
	res, err := compile.Run(ctx, services, w, compile.Options{
		Requested:   cfg.ServicesEnabled,
		Expander:    expand.New(w.Path()),
		Parallelism: cfg.Parallelism,
		Stdout:      stdout,
	})
	if err != nil {
		return err
	}

	if cfg.LogtermConfig != "" {
		_, _ = fmt.Fprintf(stdout, "writing logterm config to %s\n", cfg.LogtermConfig)
		if err := logterm.WriteFile(cfg.LogtermConfig, res.LogDirs); err != nil {
			return fmt.Errorf("writing logterm config: %w", err)
		}
	}

	slog.InfoContext(ctx, "services compiled",
		"output", w.Path(),
		"enabled", len(res.Enabled),
		"emitted", len(res.Emitted),
		"generations", res.Generations,
	)
	return nil
}

// logDetails logs the schema violations of all the invalid declarations.
func logDetails(ctx context.Context, err error) {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			logDetails(ctx, e)
		}
		return
	}
	for _, d := range model.CueErrDetails(err) {
		slog.ErrorContext(ctx, "invalid service declaration", d.Attr("detail"))
	}
}
