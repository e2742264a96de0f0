package dsl

import (
	"errors"
	"strings"

	"github.com/scottjrodgers/what-not-how/model"
)

// uniqueName appends apostrophes to name until taken reports it free.
func uniqueName(name string, taken func(string) bool) string {
	for taken(name) {
		name += "'"
	}
	return name
}

// groupAction handles "group <name>:" and parses the group body.
func (s *state) groupAction(ln line, sc scope) int {
	tokens := ln.tokens
	if len(tokens) < 4 || tokens[3] != ":" {
		s.shapeErrorf(ln.idx, "A line starting with '%s' should be followed by an identifier and colon", tokens[1])
		return ln.idx + 1
	}

	parent := sc.group
	name := tokens[2]
	if parent.Group(name) != nil {
		s.errorf(ln.idx, "Group '%s' is already defined in the current namespace.", name)
		name = uniqueName(name, func(n string) bool { return parent.Group(n) != nil })
	}

	g := s.m.AddGroup(parent, name, ln.idx+1)
	return s.parseBlock(scope{group: g, context: g}, ln.idx+1, ln.indent, groupRules)
}

// dataAction handles "<data keyword> <name>[:]" and parses the data body.
// A placeholder created by an earlier reference is upgraded in place.
func (s *state) dataAction(ln line, sc scope) int {
	tokens := ln.tokens
	if len(tokens) < 3 {
		s.shapeErrorf(ln.idx, "A line starting with '%s' should be followed by an identifier", tokens[1])
		return ln.idx + 1
	}

	g := sc.group
	name := tokens[2]
	kind := strings.ToUpper(tokens[1])
	existing := g.DataObject(name)
	if existing != nil && (s.policy == RenameAlways || !existing.Undefined()) {
		s.errorf(ln.idx, "Data object '%s' is already defined in the current namespace.", name)
		name = uniqueName(name, func(n string) bool { return g.DataObject(n) != nil })
		existing = nil
	}

	d := existing
	if d == nil {
		d = s.m.AddDataObject(g, name, kind, ln.idx+1)
	} else {
		d.Kind = kind
		d.Parent = g.ID
		d.Line = ln.idx + 1
	}
	if len(tokens) > 4 && tokens[3] == ":" {
		d.Desc = tokens[4]
	}
	return s.parseBlock(scope{data: d, context: sc.context}, ln.idx+1, ln.indent, dataRules)
}

// processAction handles "process <name>: [description]" and parses the
// process body.
func (s *state) processAction(ln line, sc scope) int {
	tokens := ln.tokens
	if len(tokens) < 4 || tokens[3] != ":" {
		s.shapeErrorf(ln.idx, "A line starting with '%s' should be followed by an identifier and colon", tokens[1])
		return ln.idx + 1
	}

	g := sc.group
	name := tokens[2]
	if g.Process(name) != nil {
		s.errorf(ln.idx, "Process '%s' is already defined in the current namespace.", name)
		name = uniqueName(name, func(n string) bool { return g.Process(n) != nil })
	}

	p := s.m.AddProcess(g, name, ln.idx+1)
	if len(tokens) > 4 {
		p.Desc = tokens[4]
	}
	return s.parseBlock(scope{process: p, context: sc.context}, ln.idx+1, ln.indent, processRules)
}

// optionsAction attaches a fresh options block to the current group and
// parses its settings.
func (s *state) optionsAction(ln line, sc scope) int {
	tokens := ln.tokens
	if len(tokens) < 3 || tokens[2] != ":" {
		s.shapeErrorf(ln.idx, "A line starting with '%s' should be followed by a colon", tokens[1])
		return ln.idx + 1
	}

	opts := model.DefaultOptions()
	sc.group.Options = &opts
	return s.parseBlock(scope{options: &opts, context: sc.context}, ln.idx+1, ln.indent, optionsRules)
}

// identifierListAction handles "input: a, b" and "output: ...". Further
// identifiers may follow on indented lines.
func (s *state) identifierListAction(ln line, sc scope) int {
	tokens := ln.tokens
	if len(tokens) < 3 || tokens[2] != ":" {
		s.shapeErrorf(ln.idx, "A line starting with '%s' should be followed by a colon", tokens[1])
		return ln.idx + 1
	}

	var target *[]model.DataIdentifier
	switch {
	case sc.process == nil:
	case s.keywords.Input.Has(tokens[1]):
		target = &sc.process.Inputs
	case s.keywords.Output.Has(tokens[1]):
		target = &sc.process.Outputs
	}
	if target == nil {
		s.errorf(ln.idx, "'%s' lists are not allowed here", tokens[1])
		target = new([]model.DataIdentifier)
	}

	s.appendIdentifiers(ln.idx, tokens[3:], target, sc.context)
	return s.parseBlock(scope{ids: target, context: sc.context}, ln.idx+1, ln.indent, identifierListRules)
}

// identifiersAction handles a continuation line of an identifier list.
func (s *state) identifiersAction(ln line, sc scope) int {
	entries, balanced := splitIdentifiers(strings.TrimSpace(s.lines[ln.idx]))
	if !balanced {
		s.errorf(ln.idx, unbalancedLabel)
	}
	s.appendIdentifiers(ln.idx, entries, sc.ids, sc.context)
	return ln.idx + 1
}

// appendIdentifiers decodes comma-separated entries, resolves each against
// ctx, and appends references to target.
func (s *state) appendIdentifiers(idx int, entries []string, target *[]model.DataIdentifier, ctx *model.Group) {
	for i := 0; i < len(entries); i++ {
		if entries[i] == "," {
			s.errorf(idx, "Expected an identifier before ','")
			continue
		}

		id := DecodeIdentifier(entries[i])
		if id.Name == "" {
			s.errorf(idx, "Expected an identifier, found '%s'", entries[i])
		} else {
			d := s.resolve(ctx, id, idx+1)
			*target = append(*target, model.DataIdentifier{
				Name:      id.Name,
				Ref:       d.ID,
				Desc:      id.Desc,
				Optional:  id.Optional,
				Stackable: id.Stackable,
			})
		}

		if i+1 < len(entries) {
			if entries[i+1] != "," {
				s.errorf(idx, "If there are multiple identifiers on a line, they must be separated by commas")
				return
			}
			i++
		}
	}
}

// resolve finds the data object named by id in ctx or an enclosing group,
// creating an UNDEFINED placeholder in ctx when there is none.
func (s *state) resolve(ctx *model.Group, id Identifier, lineNo int) *model.DataObject {
	if d, ok := s.m.Lookup(ctx, id.Name); ok {
		return d
	}
	d := s.m.AddDataObject(ctx, id.Name, model.KindUndefined, lineNo)
	d.Desc = id.Desc
	return d
}

// stringListAction handles "notes:", "assumptions:" and the condition
// lists. Text after the colon is the first entry; indented lines add more.
func (s *state) stringListAction(ln line, sc scope) int {
	tokens := ln.tokens
	if len(tokens) < 3 || tokens[2] != ":" {
		s.shapeErrorf(ln.idx, "A line starting with '%s' should be followed by a colon", tokens[1])
		return ln.idx + 1
	}

	target := s.stringList(sc, tokens[1])
	if target == nil {
		s.errorf(ln.idx, "'%s' lists are not allowed here", tokens[1])
		target = new([]string)
	}
	if len(tokens) > 3 {
		*target = append(*target, tokens[3])
	}
	return s.parseBlock(scope{strs: target, context: sc.context}, ln.idx+1, ln.indent, stringListRules)
}

func (s *state) stringList(sc scope, keyword string) *[]string {
	kw := s.keywords
	switch {
	case sc.process != nil:
		switch {
		case kw.Notes.Has(keyword):
			return &sc.process.Notes
		case kw.Assumptions.Has(keyword):
			return &sc.process.Assumptions
		case kw.Preconditions.Has(keyword):
			return &sc.process.Preconditions
		case kw.Postconditions.Has(keyword):
			return &sc.process.Postconditions
		}
	case sc.data != nil:
		switch {
		case kw.Notes.Has(keyword):
			return &sc.data.Notes
		case kw.Assumptions.Has(keyword):
			return &sc.data.Assumptions
		}
	}
	return nil
}

// textAction handles a continuation line of a string list. The whole line
// after its indentation is one entry.
func (s *state) textAction(ln line, sc scope) int {
	if len(ln.tokens) > 2 {
		s.errorf(ln.idx, "This line should have a single, unquoted string")
	}
	*sc.strs = append(*sc.strs, strings.TrimSpace(s.lines[ln.idx]))
	return ln.idx + 1
}

// settingAction handles "<name>: <value>" in groups, processes, data objects
// and options blocks. Names the scope does not know are ignored.
func (s *state) settingAction(ln line, sc scope) int {
	tokens := ln.tokens
	if len(tokens) != 4 || tokens[2] != ":" {
		s.shapeErrorf(ln.idx, "This line should have <variable name> : <value>")
		return ln.idx + 1
	}
	name, value := tokens[1], tokens[3]

	var err error
	switch {
	case sc.options != nil:
		err = sc.options.Set(name, value)
	case sc.process != nil:
		err = setProcess(sc.process, name, value)
	case sc.data != nil:
		err = setData(sc.data, name, value)
	case sc.group != nil:
		err = setGroup(sc.group, name, value, ln.idx+1)
	default:
		err = model.ErrUnknownSetting
	}

	var se *model.SettingError
	if errors.As(err, &se) {
		s.errorf(ln.idx, "%s", se.Message)
	}
	return ln.idx + 1
}

func setGroup(g *model.Group, name, value string, lineNo int) error {
	switch name {
	case "implements":
		g.Implements = value
		g.ImplementsLine = lineNo
		return nil
	}
	return model.ErrUnknownSetting
}

func setProcess(p *model.Process, name, value string) error {
	switch name {
	case "stackable":
		b, err := model.ParseBool(name, value)
		if err != nil {
			return err
		}
		p.Stackable = b
		return nil
	case "desc":
		p.Desc = value
		return nil
	}
	return model.ErrUnknownSetting
}

func setData(d *model.DataObject, name, value string) error {
	switch name {
	case "desc":
		d.Desc = value
		return nil
	}
	return model.ErrUnknownSetting
}
