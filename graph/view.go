package graph

import (
	"sort"

	"github.com/scottjrodgers/what-not-how/model"
)

// View is the part of a model drawn in one diagram.
type View struct {
	// Root is the group the diagram is drawn for.
	Root *model.Group
	// Options are the resolved drawing options. Options.Base names the
	// output files.
	Options model.Effective
	// Groups lists Root and every descendant within the flatten depth,
	// depth-first in declaration order.
	Groups []*model.Group
	// Processes of all Groups, ordered by rank then declaration.
	Processes []*model.Process
	// Data lists every data object owned by Groups or referenced by
	// Processes, in the order the process flow first touches them.
	Data []*model.DataObject

	m        *model.Model
	included map[model.ID]bool
	rank     map[model.ID]int
	frontier []*model.Group
}

// Edge is one input or output reference drawn between a data object and a
// process.
type Edge struct {
	Data    *model.DataObject
	Process *model.Process
	Input   bool
	Ref     model.DataIdentifier
}

// Select builds the view of g drawn with opts. Groups more than
// opts.Flatten levels below g are left out.
func Select(m *model.Model, g *model.Group, opts model.Effective) *View {
	v := &View{
		Root:     g,
		Options:  opts,
		m:        m,
		included: make(map[model.ID]bool),
	}

	var declared []*model.DataObject
	m.Walk(g, func(h *model.Group) bool {
		if m.Depth(g, h) > opts.Flatten {
			v.frontier = append(v.frontier, h)
			return false
		}
		v.included[h.ID] = true
		v.Groups = append(v.Groups, h)
		v.Processes = append(v.Processes, h.Processes...)
		declared = append(declared, h.DataObjects...)
		return true
	})

	v.rank = Rank(v)
	sort.SliceStable(v.Processes, func(i, j int) bool {
		return v.rank[v.Processes[i].ID] < v.rank[v.Processes[j].ID]
	})

	seen := make(map[model.ID]bool)
	add := func(d *model.DataObject) {
		if d != nil && !seen[d.ID] {
			seen[d.ID] = true
			v.Data = append(v.Data, d)
		}
	}
	for _, p := range v.Processes {
		for _, ref := range p.Inputs {
			add(m.DataObject(ref.Ref))
		}
		for _, ref := range p.Outputs {
			add(m.DataObject(ref.Ref))
		}
	}
	for _, d := range declared {
		add(d)
	}
	return v
}

// Plan returns the views needed to draw m: the root view and, wherever the
// effective options set recurse, one view per child group that the flatten
// depth left out. Child views are named <parent base>_<group name> unless
// the child's own options block sets a filename.
func Plan(m *model.Model, inputBase string) []*View {
	var views []*View
	plan(m, m.Root(), m.EffectiveOptions(m.Root(), inputBase), &views)
	return views
}

func plan(m *model.Model, g *model.Group, opts model.Effective, views *[]*View) {
	v := Select(m, g, opts)
	*views = append(*views, v)
	if !opts.Recurse {
		return
	}
	for _, child := range v.frontier {
		own := child.Options
		if own == nil {
			own = &model.Options{}
		}
		eff := m.EffectiveOptions(child, "")
		if own.Filename == "" {
			eff.Base = opts.Base + "_" + child.Name
		}
		if own.SVGName == "" {
			eff.SVGName = eff.Base + ".svg"
		}
		if own.Title == "" {
			eff.Title = child.Name
		}
		plan(m, child, eff, views)
	}
}

// Contains reports whether group g is drawn in this view.
func (v *View) Contains(g *model.Group) bool { return v.included[g.ID] }

// Frontier returns the child groups just beyond the flatten depth.
func (v *View) Frontier() []*model.Group { return v.frontier }

// ProcessRank returns the layer of p in the data flow, 0 for processes
// that consume nothing another process of the view produces.
func (v *View) ProcessRank(p *model.Process) int { return v.rank[p.ID] }

// Children returns the child groups of g that the view draws.
func (v *View) Children(g *model.Group) []*model.Group {
	var out []*model.Group
	for _, c := range g.Groups {
		if v.Contains(c) {
			out = append(out, c)
		}
	}
	return out
}

// ProcessesOf returns the processes declared directly in g, in view order.
func (v *View) ProcessesOf(g *model.Group) []*model.Process {
	var out []*model.Process
	for _, p := range v.Processes {
		if p.Parent == g.ID {
			out = append(out, p)
		}
	}
	return out
}

// DataOf returns the data objects drawn inside g. Objects owned by a group
// outside the view are drawn at the top level, inside Root.
func (v *View) DataOf(g *model.Group) []*model.DataObject {
	var out []*model.DataObject
	for _, d := range v.Data {
		if v.Owner(d) == g.ID {
			out = append(out, d)
		}
	}
	return out
}

// Owner returns the id of the group a data object is drawn in.
func (v *View) Owner(d *model.DataObject) model.ID {
	if g := v.m.Group(d.Parent); g != nil && v.Contains(g) {
		return d.Parent
	}
	return v.Root.ID
}

// Edges returns every input and output reference of the view's processes,
// inputs before outputs for each process.
func (v *View) Edges() []Edge {
	var edges []Edge
	for _, p := range v.Processes {
		for _, ref := range p.Inputs {
			if d := v.m.DataObject(ref.Ref); d != nil {
				edges = append(edges, Edge{Data: d, Process: p, Input: true, Ref: ref})
			}
		}
		for _, ref := range p.Outputs {
			if d := v.m.DataObject(ref.Ref); d != nil {
				edges = append(edges, Edge{Data: d, Process: p, Ref: ref})
			}
		}
	}
	return edges
}

// ImplementedOutside reports whether p is detailed by a group the view
// does not draw.
func (v *View) ImplementedOutside(p *model.Process) bool {
	return p.ImplementedBy != 0 && !v.included[p.ImplementedBy]
}
