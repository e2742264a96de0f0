package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/scottjrodgers/what-not-how/dsl"
	"github.com/scottjrodgers/what-not-how/graph"
	"github.com/scottjrodgers/what-not-how/model"
)

// renderFlagKeys maps the flags shared by render and watch to viper keys.
var renderFlagKeys = map[string]string{
	"out-dir":   "out_dir",
	"tool":      "tool",
	"no-render": "no_render",
	"timeout":   "render_timeout",
	"strict":    "strict",
}

func newRenderCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <file.what>...",
		Short: "Write diagram definitions and render them to SVG",
		Long: "Parse each model, print its diagnostics, write one Mermaid or D2 definition\n" +
			"per diagram, and run mmdc or d2 to produce the SVG.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.bindFlags(cmd.Flags(), renderFlagKeys)
			return a.renderFiles(cmd.Context(), args)
		},
	}
	addRenderFlags(cmd)
	cmd.Flags().Bool("strict", false, "Exit non-zero when a model has errors")
	return cmd
}

func addRenderFlags(cmd *cobra.Command) {
	cmd.Flags().String("out-dir", "", "Output directory (default: next to each input)")
	cmd.Flags().String("tool", "", "Override the diagram tool: mermaid or d2")
	cmd.Flags().Bool("no-render", false, "Write definitions only, do not run the renderer")
	cmd.Flags().Duration("timeout", graph.DefaultRenderTimeout, "Timeout for one renderer run")
}

// renderConfig is the resolved configuration of one render run.
type renderConfig struct {
	outDir    string
	tool      string
	noRender  bool
	strict    bool
	renderer  *graph.Renderer
	parseOpts []dsl.Option
}

func (a *app) renderConfig() (*renderConfig, error) {
	cfg := &renderConfig{
		outDir:   a.v.GetString("out_dir"),
		tool:     a.v.GetString("tool"),
		noRender: a.v.GetBool("no_render"),
		strict:   a.v.GetBool("strict"),
		renderer: &graph.Renderer{
			MermaidPath: a.v.GetString("mmdc_path"),
			D2Path:      a.v.GetString("d2_path"),
			Timeout:     a.v.GetDuration("render_timeout"),
		},
	}
	if cfg.tool != "" {
		if _, err := model.ParseTool(cfg.tool); err != nil {
			return nil, fmt.Errorf("--tool: %w", err)
		}
	}
	opts, err := a.parserOptions()
	if err != nil {
		return nil, err
	}
	cfg.parseOpts = opts
	return cfg, nil
}

// fileReport is what compiling one input produced.
type fileReport struct {
	path    string
	diags   []model.Diagnostic
	outputs []string
}

func (a *app) renderFiles(ctx context.Context, paths []string) error {
	cfg, err := a.renderConfig()
	if err != nil {
		return err
	}
	log := a.logger.With("run", uuid.NewString())
	log.Info("render started", "files", len(paths))

	reports := make([]*fileReport, len(paths))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		i, path := i, path
		eg.Go(func() error {
			rep, err := a.compileFile(ctx, path, cfg, log.With("file", path))
			reports[i] = rep
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			return nil
		})
	}
	err = eg.Wait()

	errs := 0
	for _, rep := range reports {
		if rep == nil {
			continue
		}
		a.printReport(rep)
		errs += model.ErrorCount(rep.diags)
	}
	if err != nil {
		return err
	}
	if cfg.strict && errs > 0 {
		return &ExitError{Code: 1, Message: fmt.Sprintf("%d error(s) found", errs)}
	}
	log.Info("render finished", "errors", errs)
	return nil
}

func (a *app) printReport(rep *fileReport) {
	printDiagnostics(a.errOut, rep.path, rep.diags)
	for _, out := range rep.outputs {
		fmt.Fprintln(a.out, out)
	}
}

// compileFile parses one input in its own session and writes every
// diagram it plans. The report is returned even when a later step fails.
func (a *app) compileFile(ctx context.Context, path string, cfg *renderConfig, log *slog.Logger) (*fileReport, error) {
	res, err := dsl.ParseFile(path, cfg.parseOpts...)
	if err != nil {
		return nil, err
	}
	rep := &fileReport{path: path, diags: res.Diagnostics}
	log.Debug("parsed", "diagnostics", len(res.Diagnostics))

	dir := cfg.outDir
	if dir == "" {
		dir = filepath.Dir(path)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return rep, fmt.Errorf("creating output directory: %w", err)
	}

	for _, v := range graph.Plan(res.Model, stem(path)) {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		if cfg.tool != "" {
			v.Options.Tool = cfg.tool
		}

		def := filepath.Join(dir, v.Options.DefinitionFile())
		if err := writeDefinition(def, v); err != nil {
			return rep, err
		}
		rep.outputs = append(rep.outputs, def)
		log.Info("wrote definition", "path", def, "tool", v.Options.Tool)

		if cfg.noRender {
			continue
		}
		svg := filepath.Join(dir, v.Options.SVGName)
		if _, err := cfg.renderer.Render(ctx, v.Options.Tool, def, svg); err != nil {
			return rep, err
		}
		rep.outputs = append(rep.outputs, svg)
		log.Info("rendered", "path", svg)
	}
	return rep, nil
}

func writeDefinition(path string, v *graph.View) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating definition: %w", err)
	}
	if err := graph.Write(f, v); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// stem is the file name without directory or extension.
func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
