package graph

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/scottjrodgers/what-not-how/model"
)

// Emitter writes the diagram definition of a view in one tool's language.
type Emitter interface {
	Emit(w io.Writer, v *View) error
}

// UnknownToolError is returned for a tool name with no emitter.
type UnknownToolError struct {
	Tool string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown diagram tool %q", e.Tool)
}

// NewEmitter returns the emitter for a tool name: "mermaid" or "d2".
func NewEmitter(tool string) (Emitter, error) {
	switch tool {
	case model.ToolMermaid, "":
		return Mermaid{}, nil
	case model.ToolD2:
		return D2{}, nil
	}
	return nil, &UnknownToolError{Tool: tool}
}

// Write emits v with the emitter its options ask for.
func Write(w io.Writer, v *View) error {
	e, err := NewEmitter(v.Options.Tool)
	if err != nil {
		return err
	}
	return e.Emit(w, v)
}

// printer writes indented lines and keeps the first write error.
type printer struct {
	w      *bufio.Writer
	indent int
	err    error
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: bufio.NewWriter(w)}
}

func (p *printer) line(format string, args ...any) {
	if p.err != nil {
		return
	}
	if _, err := p.w.WriteString(strings.Repeat("    ", p.indent)); err != nil {
		p.err = err
		return
	}
	if _, err := fmt.Fprintf(p.w, format, args...); err != nil {
		p.err = err
		return
	}
	p.err = p.w.WriteByte('\n')
}

func (p *printer) flush() error {
	if p.err != nil {
		return p.err
	}
	return p.w.Flush()
}

func dataKey(d *model.DataObject) string { return fmt.Sprintf("D%d", d.ID) }

func processKey(p *model.Process) string { return fmt.Sprintf("P%d", p.ID) }

func groupKey(g *model.Group) string { return fmt.Sprintf("G%d", g.ID) }

// edgeLabel is the text drawn on an edge: the reference label when it
// differs from the data name, and '*' for stackable references.
func edgeLabel(e Edge) string {
	var label string
	if e.Ref.Desc != "" && e.Ref.Desc != e.Ref.Name {
		label = e.Ref.Desc
	}
	if e.Ref.Stackable {
		if label == "" {
			return "*"
		}
		return label + " *"
	}
	return label
}

// stackableData returns the data objects some edge of v references as
// stackable; they are drawn as multiple instances.
func stackableData(v *View) map[model.ID]bool {
	set := make(map[model.ID]bool)
	for _, e := range v.Edges() {
		if e.Ref.Stackable {
			set[e.Data.ID] = true
		}
	}
	return set
}

func idSet(ds []*model.DataObject) map[model.ID]bool {
	set := make(map[model.ID]bool, len(ds))
	for _, d := range ds {
		set[d.ID] = true
	}
	return set
}
