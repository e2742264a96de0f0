package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/scottjrodgers/what-not-how/dsl"
	"github.com/scottjrodgers/what-not-how/graph"
	"github.com/scottjrodgers/what-not-how/model"
)

// app carries the state shared by every subcommand of one invocation.
type app struct {
	v      *viper.Viper
	out    io.Writer
	errOut io.Writer
	logger *slog.Logger
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{
		v:      viper.New(),
		out:    out,
		errOut: errOut,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	root := &cobra.Command{
		Use:   "whatnot",
		Short: "Compile \"what, not how\" models into data flow diagrams",
		Long: "whatnot reads models written in the \"what, not how\" language, reports\n" +
			"problems line by line, and draws the data flow with Mermaid or D2.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.initConfig(cmd)
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.String("config", "", "Config file (default: ./whatnot.yaml if present)")
	flags.BoolP("verbose", "v", false, "Verbose output")
	flags.Bool("debug", false, "Debug output")
	flags.String("log-format", "text", "Log format: text or json")
	flags.StringSlice("data-keywords", nil, "Keywords that declare data objects (e.g. data,file,concept)")
	flags.String("collision-policy", "upgrade", "Data name collisions: upgrade placeholders or rename always")

	_ = a.v.BindPFlag("verbose", flags.Lookup("verbose"))
	_ = a.v.BindPFlag("debug", flags.Lookup("debug"))
	_ = a.v.BindPFlag("log_format", flags.Lookup("log-format"))
	_ = a.v.BindPFlag("data_keywords", flags.Lookup("data-keywords"))
	_ = a.v.BindPFlag("collision_policy", flags.Lookup("collision-policy"))

	a.v.SetDefault("log_level", "warn")
	a.v.SetDefault("render_timeout", graph.DefaultRenderTimeout)

	root.AddCommand(
		newRenderCmd(a),
		newCheckCmd(a),
		newExportCmd(a),
		newWatchCmd(a),
	)
	return root
}

// initConfig loads the config file, environment overrides and logger.
func (a *app) initConfig(cmd *cobra.Command) error {
	a.v.SetEnvPrefix("WHATNOT")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	cfgFile, _ := cmd.Flags().GetString("config")
	if cfgFile != "" {
		a.v.SetConfigFile(cfgFile)
	} else {
		a.v.SetConfigName("whatnot")
		a.v.SetConfigType("yaml")
		a.v.AddConfigPath(".")
	}
	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}

	level := a.v.GetString("log_level")
	switch {
	case a.v.GetBool("debug"):
		level = "debug"
	case a.v.GetBool("verbose"):
		level = "info"
	}
	a.logger = newLogger(level, a.v.GetString("log_format"), a.errOut)
	if used := a.v.ConfigFileUsed(); used != "" {
		a.logger.Debug("loaded config", "path", used)
	}
	return nil
}

// bindFlags binds the named flags of the running command to viper keys.
// Commands that share flag names bind at run time so each sees its own.
func (a *app) bindFlags(fs *pflag.FlagSet, keys map[string]string) {
	for flag, key := range keys {
		if f := fs.Lookup(flag); f != nil {
			_ = a.v.BindPFlag(key, f)
		}
	}
}

// parserOptions turns configuration into dsl parser options.
func (a *app) parserOptions() ([]dsl.Option, error) {
	opts := []dsl.Option{dsl.WithLogger(a.logger)}
	if words := splitList(a.v.GetStringSlice("data_keywords")); len(words) > 0 {
		opts = append(opts, dsl.WithDataKeywords(words...))
	}
	policy, ok := dsl.ParseCollisionPolicy(a.v.GetString("collision_policy"))
	if !ok {
		return nil, fmt.Errorf("unknown collision policy %q (want upgrade or rename)", a.v.GetString("collision_policy"))
	}
	return append(opts, dsl.WithCollisionPolicy(policy)), nil
}

// splitList flattens comma or space separated entries.
func splitList(items []string) []string {
	var out []string
	for _, item := range items {
		out = append(out, strings.FieldsFunc(item, func(r rune) bool {
			return r == ',' || r == ' '
		})...)
	}
	return out
}

// printDiagnostics writes diagnostics as "<path>:<line>: [text] -> message".
func printDiagnostics(w io.Writer, path string, diags []model.Diagnostic) {
	for _, d := range diags {
		if d.Severity == model.Warning {
			fmt.Fprintf(w, "%s:%s (warning)\n", path, d)
			continue
		}
		fmt.Fprintf(w, "%s:%s\n", path, d)
	}
}
