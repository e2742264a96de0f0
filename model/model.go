package model

import "strings"

// ID identifies an entity within one Model. The zero ID means "none".
type ID int

// KindUndefined marks a data object that was referenced but never declared.
const KindUndefined = "UNDEFINED"

// Counter hands out monotonically increasing ids, starting at 1.
type Counter struct {
	next ID
}

// NewCounter returns a Counter whose first id is 1.
func NewCounter() *Counter {
	return &Counter{next: 1}
}

// Next returns the next unused id.
func (c *Counter) Next() ID {
	if c.next < 1 {
		c.next = 1
	}
	id := c.next
	c.next++
	return id
}

// Peek returns the id Next would hand out, without consuming it.
func (c *Counter) Peek() ID {
	if c.next < 1 {
		return 1
	}
	return c.next
}

// Group is a named namespace. The root group has an empty name and no parent.
type Group struct {
	ID             ID            `yaml:"id" json:"id"`
	Name           string        `yaml:"name" json:"name"`
	Implements     string        `yaml:"implements,omitempty" json:"implements,omitempty"`
	// ImplementsLine is the 1-based line of the implements setting.
	ImplementsLine int           `yaml:"implements_line,omitempty" json:"implements_line,omitempty"`
	Options        *Options      `yaml:"options,omitempty" json:"options,omitempty"`
	Parent         ID            `yaml:"parent,omitempty" json:"parent,omitempty"`
	Line           int           `yaml:"line,omitempty" json:"line,omitempty"`
	Groups         []*Group      `yaml:"groups,omitempty" json:"groups,omitempty"`
	Processes      []*Process    `yaml:"processes,omitempty" json:"processes,omitempty"`
	DataObjects    []*DataObject `yaml:"data,omitempty" json:"data,omitempty"`

	groupsByName    map[string]*Group
	processesByName map[string]*Process
	dataByName      map[string]*DataObject
}

// Group returns the child group with the given name, or nil.
func (g *Group) Group(name string) *Group { return g.groupsByName[name] }

// Process returns the process declared in this group with the given name, or nil.
func (g *Group) Process(name string) *Process { return g.processesByName[name] }

// DataObject returns the data object owned by this group with the given name, or nil.
func (g *Group) DataObject(name string) *DataObject { return g.dataByName[name] }

// IsRoot reports whether g is the top-level group.
func (g *Group) IsRoot() bool { return g.Parent == 0 }

// Process is a named unit of work with declared inputs and outputs.
type Process struct {
	ID             ID               `yaml:"id" json:"id"`
	Name           string           `yaml:"name" json:"name"`
	Desc           string           `yaml:"desc,omitempty" json:"desc,omitempty"`
	Stackable      bool             `yaml:"stackable,omitempty" json:"stackable,omitempty"`
	Inputs         []DataIdentifier `yaml:"inputs,omitempty" json:"inputs,omitempty"`
	Outputs        []DataIdentifier `yaml:"outputs,omitempty" json:"outputs,omitempty"`
	Notes          []string         `yaml:"notes,omitempty" json:"notes,omitempty"`
	Assumptions    []string         `yaml:"assumptions,omitempty" json:"assumptions,omitempty"`
	Preconditions  []string         `yaml:"preconditions,omitempty" json:"preconditions,omitempty"`
	Postconditions []string         `yaml:"postconditions,omitempty" json:"postconditions,omitempty"`
	ImplementedBy  ID               `yaml:"implemented_by,omitempty" json:"implemented_by,omitempty"`
	Parent         ID               `yaml:"parent" json:"parent"`
	Line           int              `yaml:"line,omitempty" json:"line,omitempty"`
}

// DataObject is a named piece of information: data, a file, a concept.
type DataObject struct {
	ID          ID       `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Kind        string   `yaml:"kind" json:"kind"`
	Desc        string   `yaml:"desc,omitempty" json:"desc,omitempty"`
	Notes       []string `yaml:"notes,omitempty" json:"notes,omitempty"`
	Assumptions []string `yaml:"assumptions,omitempty" json:"assumptions,omitempty"`
	Parent      ID       `yaml:"parent" json:"parent"`
	Line        int      `yaml:"line,omitempty" json:"line,omitempty"`
}

// Undefined reports whether the object is an auto-created placeholder.
func (d *DataObject) Undefined() bool { return d.Kind == KindUndefined }

// DataIdentifier is a reference from a process input or output to a data object.
type DataIdentifier struct {
	Name      string `yaml:"name" json:"name"`
	Ref       ID     `yaml:"ref" json:"ref"`
	Desc      string `yaml:"desc,omitempty" json:"desc,omitempty"`
	Optional  bool   `yaml:"optional,omitempty" json:"optional,omitempty"`
	Stackable bool   `yaml:"stackable,omitempty" json:"stackable,omitempty"`
}

// Model is the arena that owns every group, process and data object of one
// parse session.
type Model struct {
	ids       *Counter
	root      *Group
	groups    map[ID]*Group
	processes map[ID]*Process
	data      map[ID]*DataObject
}

// New creates a Model with a fresh id counter and an empty root group.
func New() *Model {
	return NewWithCounter(NewCounter())
}

// NewWithCounter creates a Model that draws ids from c. Sharing a counter
// between models keeps ids unique across them.
func NewWithCounter(c *Counter) *Model {
	if c == nil {
		c = NewCounter()
	}
	m := &Model{
		ids:       c,
		groups:    make(map[ID]*Group),
		processes: make(map[ID]*Process),
		data:      make(map[ID]*DataObject),
	}
	m.root = m.newGroup("", 0, 0)
	return m
}

// Root returns the top-level group.
func (m *Model) Root() *Group { return m.root }

// Group returns the group with the given id, or nil.
func (m *Model) Group(id ID) *Group { return m.groups[id] }

// Process returns the process with the given id, or nil.
func (m *Model) Process(id ID) *Process { return m.processes[id] }

// DataObject returns the data object with the given id, or nil.
func (m *Model) DataObject(id ID) *DataObject { return m.data[id] }

// Parent returns the enclosing group of g, or nil for the root.
func (m *Model) Parent(g *Group) *Group {
	if g == nil || g.Parent == 0 {
		return nil
	}
	return m.groups[g.Parent]
}

func (m *Model) newGroup(name string, parent ID, line int) *Group {
	g := &Group{
		ID:              m.ids.Next(),
		Name:            name,
		Parent:          parent,
		Line:            line,
		groupsByName:    make(map[string]*Group),
		processesByName: make(map[string]*Process),
		dataByName:      make(map[string]*DataObject),
	}
	m.groups[g.ID] = g
	return g
}

// AddGroup registers a new child group under parent. The caller guarantees
// name is not already taken in parent.
func (m *Model) AddGroup(parent *Group, name string, line int) *Group {
	g := m.newGroup(name, parent.ID, line)
	parent.Groups = append(parent.Groups, g)
	parent.groupsByName[name] = g
	return g
}

// AddProcess registers a new process in g. Desc defaults to the name.
func (m *Model) AddProcess(g *Group, name string, line int) *Process {
	p := &Process{
		ID:     m.ids.Next(),
		Name:   name,
		Desc:   name,
		Parent: g.ID,
		Line:   line,
	}
	m.processes[p.ID] = p
	g.Processes = append(g.Processes, p)
	g.processesByName[name] = p
	return p
}

// AddDataObject registers a new data object of the given kind in g.
func (m *Model) AddDataObject(g *Group, name, kind string, line int) *DataObject {
	d := &DataObject{
		ID:     m.ids.Next(),
		Name:   name,
		Kind:   kind,
		Desc:   name,
		Parent: g.ID,
		Line:   line,
	}
	m.data[d.ID] = d
	g.DataObjects = append(g.DataObjects, d)
	g.dataByName[name] = d
	return d
}

// Lookup finds a data object by name in g or the nearest enclosing group
// that owns one, ending at the root.
func (m *Model) Lookup(g *Group, name string) (*DataObject, bool) {
	for cur := g; cur != nil; cur = m.Parent(cur) {
		if d := cur.DataObject(name); d != nil {
			return d, true
		}
	}
	return nil, false
}

// Walk visits g and all of its descendants depth-first in declaration order.
// Returning false from fn skips the children of that group.
func (m *Model) Walk(g *Group, fn func(*Group) bool) {
	if !fn(g) {
		return
	}
	for _, child := range g.Groups {
		m.Walk(child, fn)
	}
}

// Path returns the names from the root down to g, excluding the root.
func (m *Model) Path(g *Group) []string {
	var names []string
	for cur := g; cur != nil && !cur.IsRoot(); cur = m.Parent(cur) {
		names = append([]string{cur.Name}, names...)
	}
	return names
}

// QualifiedName joins the group path with dots; the root is "".
func (m *Model) QualifiedName(g *Group) string {
	return strings.Join(m.Path(g), ".")
}

// Depth returns how many levels g sits below ancestor, or -1 when ancestor
// does not enclose g.
func (m *Model) Depth(ancestor, g *Group) int {
	depth := 0
	for cur := g; cur != nil; cur = m.Parent(cur) {
		if cur.ID == ancestor.ID {
			return depth
		}
		depth++
	}
	return -1
}
