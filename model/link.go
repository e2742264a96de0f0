package model

import "strings"

// LineSource returns the text of a 1-based source line.
type LineSource func(line int) string

// Link connects every group that declares "implements" to the process of
// that name in its enclosing group. The first group to claim a process
// wins; later claims and unknown process names are reported to diags
// against the line of the implements setting. src supplies that line's
// text; with a nil src the setting is reconstructed.
func Link(m *Model, diags *Diagnostics, src LineSource) {
	linkGroup(m, m.Root(), diags, src)
}

func linkGroup(m *Model, g *Group, diags *Diagnostics, src LineSource) {
	for _, child := range g.Groups {
		if child.Implements != "" {
			proc := g.Process(child.Implements)
			switch {
			case proc == nil:
				diags.Add(implementsWarning(child, src,
					"Implemented process '"+child.Implements+"' is not defined."))
			case proc.ImplementedBy != 0:
				diags.Add(implementsWarning(child, src,
					"Process '"+proc.Name+"' is already implemented by group '"+m.Group(proc.ImplementedBy).Name+"'."))
			default:
				proc.ImplementedBy = child.ID
			}
		}
		linkGroup(m, child, diags, src)
	}
}

func implementsWarning(g *Group, src LineSource, msg string) Diagnostic {
	line := g.ImplementsLine
	if line == 0 {
		line = g.Line
	}
	text := "implements: " + g.Implements
	if src != nil && g.ImplementsLine > 0 {
		text = src(g.ImplementsLine)
	}
	return Diagnostic{Message: msg, Text: strings.TrimSpace(text), Line: line, Severity: Warning}
}
