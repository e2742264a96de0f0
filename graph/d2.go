package graph

import (
	"io"
	"strconv"
	"strings"

	"github.com/scottjrodgers/what-not-how/model"
)

// D2 emits definitions for the d2 diagram tool.
type D2 struct{}

func (D2) Emit(w io.Writer, v *View) error {
	p := newPrinter(w)
	p.line("direction: down")
	if v.Options.Title != "" {
		p.line("title: %s {", strconv.Quote(v.Options.Title))
		p.indent++
		p.line("shape: text")
		p.line("near: top-center")
		p.line("style.font-size: 24")
		p.indent--
		p.line("}")
	}

	inputs := idSet(PrimaryInputs(v))
	outputs := idSet(PrimaryOutputs(v))
	d2Group(p, v, v.Root, inputs, outputs, stackableData(v))

	paths := d2Paths(v)
	for _, e := range v.Edges() {
		from, to := paths[dataKey(e.Data)], paths[processKey(e.Process)]
		if !e.Input {
			from, to = to, from
		}
		edge := from + " -> " + to
		if label := edgeLabel(e); label != "" {
			edge += ": " + strconv.Quote(label)
		}
		if e.Ref.Optional {
			p.line("%s {style.stroke-dash: 3}", edge)
		} else {
			p.line("%s", edge)
		}
	}
	return p.flush()
}

func d2Group(p *printer, v *View, g *model.Group, inputs, outputs, stackable map[model.ID]bool) {
	for _, d := range v.DataOf(g) {
		var styles []string
		if d.Undefined() {
			styles = append(styles, "style.stroke-dash: 3")
		}
		switch {
		case inputs[d.ID]:
			styles = append(styles, `style.fill: "#e3f2fd"`)
		case outputs[d.ID]:
			styles = append(styles, `style.fill: "#e8f5e9"`)
		}
		if stackable[d.ID] {
			styles = append(styles, "style.multiple: true")
		}
		d2Node(p, dataKey(d), d.Name, "rectangle", styles)
	}
	for _, proc := range v.ProcessesOf(g) {
		var styles []string
		if proc.Stackable {
			styles = append(styles, "style.multiple: true")
		}
		if v.ImplementedOutside(proc) {
			styles = append(styles, "style.double-border: true")
		}
		d2Node(p, processKey(proc), proc.Name, "hexagon", styles)
	}
	for _, child := range v.Children(g) {
		p.line("%s: %s {", groupKey(child), strconv.Quote(child.Name))
		p.indent++
		d2Group(p, v, child, inputs, outputs, stackable)
		p.indent--
		p.line("}")
	}
}

func d2Node(p *printer, key, label, shape string, styles []string) {
	p.line("%s: %s {", key, strconv.Quote(label))
	p.indent++
	p.line("shape: %s", shape)
	for _, s := range styles {
		p.line("%s", s)
	}
	p.indent--
	p.line("}")
}

// d2Paths maps every node key to its dotted path through the containers
// that enclose it.
func d2Paths(v *View) map[string]string {
	paths := make(map[string]string)
	var walk func(g *model.Group, prefix []string)
	walk = func(g *model.Group, prefix []string) {
		join := func(key string) string {
			return strings.Join(append(append([]string{}, prefix...), key), ".")
		}
		for _, d := range v.DataOf(g) {
			paths[dataKey(d)] = join(dataKey(d))
		}
		for _, proc := range v.ProcessesOf(g) {
			paths[processKey(proc)] = join(processKey(proc))
		}
		for _, child := range v.Children(g) {
			walk(child, append(append([]string{}, prefix...), groupKey(child)))
		}
	}
	walk(v.Root, nil)
	return paths
}
