package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/scottjrodgers/what-not-how/dsl"
	"github.com/scottjrodgers/what-not-how/model"
)

// exportDocument is the serialised form of a parsed model.
type exportDocument struct {
	Source      string             `yaml:"source" json:"source"`
	Root        *model.Group       `yaml:"root" json:"root"`
	Diagnostics []model.Diagnostic `yaml:"diagnostics,omitempty" json:"diagnostics,omitempty"`
}

func newExportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <file.what>",
		Short: "Write the resolved model as YAML or JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			output, _ := cmd.Flags().GetString("output")
			return a.export(args[0], format, output)
		},
	}
	cmd.Flags().StringP("format", "f", "yaml", "Output format: yaml or json")
	cmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")
	return cmd
}

func (a *app) export(path, format, output string) error {
	if format != "yaml" && format != "json" {
		return fmt.Errorf("unknown export format %q (want yaml or json)", format)
	}
	opts, err := a.parserOptions()
	if err != nil {
		return err
	}
	res, err := dsl.ParseFile(path, opts...)
	if err != nil {
		return err
	}
	printDiagnostics(a.errOut, path, res.Diagnostics)

	doc := exportDocument{Source: path, Root: res.Model.Root(), Diagnostics: res.Diagnostics}

	w := a.out
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating export file: %w", err)
		}
		defer f.Close()
		w = f
	}
	return encodeDocument(w, format, doc)
}

func encodeDocument(w io.Writer, format string, doc exportDocument) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}
