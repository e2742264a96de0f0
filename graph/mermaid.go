package graph

import (
	"io"
	"strings"

	"github.com/scottjrodgers/what-not-how/model"
)

// Mermaid emits flowchart definitions for mermaid-cli.
type Mermaid struct{}

func (Mermaid) Emit(w io.Writer, v *View) error {
	p := newPrinter(w)
	if v.Options.Title != "" {
		p.line("---")
		p.line("title: %s", mermaidText(v.Options.Title))
		p.line("---")
	}
	p.line("graph TB")
	p.indent++
	p.line("classDef undefined stroke-dasharray:5 5")
	p.line("classDef implemented stroke-width:4px")
	p.line("classDef stackable stroke-width:2px,fill:#f4f4f4")
	p.line("classDef primaryInput fill:#e3f2fd")
	p.line("classDef primaryOutput fill:#e8f5e9")

	mermaidGroup(p, v, v.Root)

	for _, e := range v.Edges() {
		arrow := "-->"
		if e.Ref.Optional {
			arrow = "-.->"
		}
		if label := edgeLabel(e); label != "" {
			arrow += "|" + mermaidLabel(label) + "|"
		}
		from, to := dataKey(e.Data), processKey(e.Process)
		if !e.Input {
			from, to = to, from
		}
		p.line("%s %s %s", from, arrow, to)
	}

	classes := map[string][]string{}
	var order []string
	class := func(name, key string) {
		if _, ok := classes[name]; !ok {
			order = append(order, name)
		}
		classes[name] = append(classes[name], key)
	}
	stackable := stackableData(v)
	for _, d := range v.Data {
		if d.Undefined() {
			class("undefined", dataKey(d))
		}
		if stackable[d.ID] {
			class("stackable", dataKey(d))
		}
	}
	for _, d := range PrimaryInputs(v) {
		class("primaryInput", dataKey(d))
	}
	for _, d := range PrimaryOutputs(v) {
		class("primaryOutput", dataKey(d))
	}
	for _, proc := range v.Processes {
		if v.ImplementedOutside(proc) {
			class("implemented", processKey(proc))
		}
		if proc.Stackable {
			class("stackable", processKey(proc))
		}
	}
	for _, name := range order {
		p.line("class %s %s", strings.Join(classes[name], ","), name)
	}
	return p.flush()
}

func mermaidGroup(p *printer, v *View, g *model.Group) {
	for _, d := range v.DataOf(g) {
		p.line("%s[%s]", dataKey(d), mermaidLabel(d.Name))
	}
	for _, proc := range v.ProcessesOf(g) {
		p.line("%s{{%s}}", processKey(proc), mermaidLabel(proc.Name))
	}
	for _, child := range v.Children(g) {
		p.line("subgraph %s [%s]", groupKey(child), mermaidLabel(child.Name))
		p.indent++
		mermaidGroup(p, v, child)
		p.indent--
		p.line("end")
	}
}

// mermaidLabel quotes a node or edge label.
func mermaidLabel(s string) string {
	return `"` + mermaidText(s) + `"`
}

func mermaidText(s string) string {
	return strings.ReplaceAll(s, `"`, "#quot;")
}
