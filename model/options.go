package model

import (
	"errors"
	"fmt"
	"strconv"
)

// Diagram tools understood by the emitter.
const (
	ToolMermaid = "mermaid"
	ToolD2      = "d2"
)

// Flatten depths with names in the DSL.
const (
	FlattenNone = 0
	FlattenAll  = 999
)

// ErrUnknownSetting is returned by Options.Set for names it does not own.
var ErrUnknownSetting = errors.New("unknown setting")

// SettingError is a value that does not fit the setting it was given to.
type SettingError struct {
	Name    string
	Value   string
	Message string
}

func (e *SettingError) Error() string { return e.Message }

// Options is the configuration attached to a group by an options block.
type Options struct {
	Tool     string `yaml:"tool" json:"tool"`
	Title    string `yaml:"title,omitempty" json:"title,omitempty"`
	Filename string `yaml:"filename,omitempty" json:"filename,omitempty"`
	SVGName  string `yaml:"svg_name,omitempty" json:"svg_name,omitempty"`
	Recurse  bool   `yaml:"recurse" json:"recurse"`
	Flatten  int    `yaml:"flatten" json:"flatten"`
}

// DefaultOptions returns the values an empty options block starts with.
func DefaultOptions() Options {
	return Options{Tool: ToolMermaid, Flatten: FlattenNone}
}

// Set assigns one named option from its DSL text. On a bad value the
// option keeps its previous value and a *SettingError is returned.
func (o *Options) Set(name, value string) error {
	switch name {
	case "tool":
		tool, err := ParseTool(value)
		if err != nil {
			return err
		}
		o.Tool = tool
	case "title":
		o.Title = value
	case "filename":
		o.Filename = value
	case "svg-name":
		o.SVGName = value
	case "recurse":
		b, err := ParseBool("recurse", value)
		if err != nil {
			return err
		}
		o.Recurse = b
	case "flatten":
		n, err := ParseFlatten(value)
		if err != nil {
			return err
		}
		o.Flatten = n
	default:
		return ErrUnknownSetting
	}
	return nil
}

// ParseTool validates a diagram tool name.
func ParseTool(value string) (string, error) {
	switch value {
	case ToolMermaid, ToolD2:
		return value, nil
	}
	return "", &SettingError{Name: "tool", Value: value, Message: "Tool needs to be either 'mermaid', or 'd2'"}
}

// ParseBool accepts exactly "true" or "false".
func ParseBool(name, value string) (bool, error) {
	switch value {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, &SettingError{Name: name, Value: value, Message: "Value can be either 'true' or 'false'."}
}

// ParseFlatten accepts a non-negative integer, "none" (0) or "all" (FlattenAll).
func ParseFlatten(value string) (int, error) {
	switch value {
	case "none":
		return FlattenNone, nil
	case "all":
		return FlattenAll, nil
	}
	bad := &SettingError{Name: "flatten", Value: value, Message: "Value can be a non-negative integer, 'none', or 'all'"}
	for _, r := range value {
		if r < '0' || r > '9' {
			return 0, bad
		}
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, bad
	}
	return n, nil
}

// Effective is the fully resolved option set used to draw one group.
type Effective struct {
	Tool    string
	Title   string
	Base    string // output file name without extension
	SVGName string
	Recurse bool
	Flatten int
}

// DefinitionFile returns the graph-definition file name for the tool.
func (e Effective) DefinitionFile() string {
	if e.Tool == ToolD2 {
		return e.Base + ".d2"
	}
	return e.Base + ".mmd"
}

// EffectiveOptions resolves the options for drawing g. The nearest options
// block on g or an ancestor wins; inputBase (typically the input file stem)
// names the output when the block sets no filename.
func (m *Model) EffectiveOptions(g *Group, inputBase string) Effective {
	opts := DefaultOptions()
	for cur := g; cur != nil; cur = m.Parent(cur) {
		if cur.Options != nil {
			opts = *cur.Options
			break
		}
	}
	if opts.Tool == "" {
		opts.Tool = ToolMermaid
	}

	eff := Effective{
		Tool:    opts.Tool,
		Title:   opts.Title,
		Base:    opts.Filename,
		SVGName: opts.SVGName,
		Recurse: opts.Recurse,
		Flatten: opts.Flatten,
	}
	if eff.Base == "" {
		eff.Base = inputBase
	}
	if eff.Base == "" {
		eff.Base = "output"
	}
	if eff.Title == "" {
		eff.Title = g.Name
	}
	if eff.SVGName == "" {
		eff.SVGName = eff.Base + ".svg"
	}
	return eff
}

func (o Options) String() string {
	return fmt.Sprintf("tool=%s title=%q filename=%q svg-name=%q recurse=%t flatten=%d",
		o.Tool, o.Title, o.Filename, o.SVGName, o.Recurse, o.Flatten)
}
