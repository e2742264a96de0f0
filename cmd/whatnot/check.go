package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scottjrodgers/what-not-how/dsl"
	"github.com/scottjrodgers/what-not-how/graph"
	"github.com/scottjrodgers/what-not-how/model"
)

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check <file.what>",
		Short: "Parse a model and report problems",
		Long:  "Parse a model, print every diagnostic and a summary. Exits 1 when the model has errors.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.check(args[0])
		},
	}
}

func (a *app) check(path string) error {
	opts, err := a.parserOptions()
	if err != nil {
		return err
	}
	res, err := dsl.ParseFile(path, opts...)
	if err != nil {
		return err
	}

	printDiagnostics(a.errOut, path, res.Diagnostics)
	a.printSummary(path, res.Model)

	if res.HasErrors() {
		n := model.ErrorCount(res.Diagnostics)
		return &ExitError{Code: 1, Message: fmt.Sprintf("%s: %d error(s)", path, n)}
	}
	return nil
}

// printSummary writes entity counts and the diagrams the model would produce.
func (a *app) printSummary(path string, m *model.Model) {
	var groups, processes, data, undefined int
	m.Walk(m.Root(), func(g *model.Group) bool {
		if !g.IsRoot() {
			groups++
		}
		processes += len(g.Processes)
		data += len(g.DataObjects)
		for _, d := range g.DataObjects {
			if d.Undefined() {
				undefined++
			}
		}
		return true
	})

	fmt.Fprintf(a.out, "%s: %d groups, %d processes, %d data objects (%d undefined)\n",
		path, groups, processes, data, undefined)
	for _, v := range graph.Plan(m, stem(path)) {
		fmt.Fprintf(a.out, "  diagram %s (%s, %d processes)\n",
			v.Options.DefinitionFile(), v.Options.Tool, len(v.Processes))
	}
}
