package dsl

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/scottjrodgers/what-not-how/model"
)

// CollisionPolicy decides what a data declaration does when its name is
// already taken in the current group.
type CollisionPolicy int

const (
	// UpgradePlaceholders turns an UNDEFINED placeholder of the same name
	// into the declared object and only renames when a declared object
	// already exists.
	UpgradePlaceholders CollisionPolicy = iota
	// RenameAlways renames the new declaration whenever the name exists,
	// placeholder or not.
	RenameAlways
)

// ParseCollisionPolicy maps "upgrade" and "rename" to a policy.
func ParseCollisionPolicy(s string) (CollisionPolicy, bool) {
	switch strings.ToLower(s) {
	case "", "upgrade":
		return UpgradePlaceholders, true
	case "rename":
		return RenameAlways, true
	}
	return UpgradePlaceholders, false
}

// Source names the model text to parse: a file on disk or lines already in
// memory. Exactly one must be set.
type Source struct {
	Filename string
	Lines    []string
}

// Result is a parsed model together with everything found wrong with it.
type Result struct {
	Model       *model.Model
	Diagnostics []model.Diagnostic
}

// HasErrors reports whether any error-severity diagnostic was recorded.
func (r *Result) HasErrors() bool {
	return model.ErrorCount(r.Diagnostics) > 0
}

// Option configures a Parser.
type Option func(*Parser)

// WithKeywords replaces the vocabulary. A nil kw means DefaultKeywords.
func WithKeywords(kw *Keywords) Option {
	return func(p *Parser) { p.keywords = kw }
}

// WithDataKeywords sets the data-object openers, e.g. "data", "file", "concept".
func WithDataKeywords(words ...string) Option {
	return func(p *Parser) { p.keywords = p.keywords.WithData(words...) }
}

// WithCollisionPolicy chooses how duplicate data declarations are handled.
func WithCollisionPolicy(policy CollisionPolicy) Option {
	return func(p *Parser) { p.policy = policy }
}

// WithLogger sends every diagnostic to logger at debug level as it is found.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) { p.logger = logger }
}

// WithAccumulate makes successive Load calls share one id counter and one
// diagnostics list instead of starting fresh each time.
func WithAccumulate(on bool) Option {
	return func(p *Parser) { p.accumulate = on }
}

// Parser turns model text into a model.Model. A Parser is not safe for
// concurrent use; create one per goroutine.
type Parser struct {
	keywords   *Keywords
	policy     CollisionPolicy
	logger     *slog.Logger
	accumulate bool

	ids   *model.Counter
	diags *model.Diagnostics
}

// NewParser creates a Parser with the default vocabulary.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		keywords: DefaultKeywords(),
		policy:   UpgradePlaceholders,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.keywords == nil {
		p.keywords = DefaultKeywords()
	}
	if p.logger == nil {
		p.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return p
}

// Load parses src, links implementing groups to their processes, and
// returns the model. Problems in the text are reported in the Result; the
// error is non-nil only for an invalid Source or an unreadable file.
func (p *Parser) Load(src Source) (*Result, error) {
	lines, err := src.read()
	if err != nil {
		return nil, err
	}

	if !p.accumulate || p.ids == nil {
		p.ids = model.NewCounter()
		p.diags = &model.Diagnostics{}
	}

	m := model.NewWithCounter(p.ids)
	s := &state{
		Parser: p,
		m:      m,
		lines:  lines,
		tokens: make([][]string, len(lines)),
		lexErr: make([]bool, len(lines)),
		tok:    NewTokenizer(p.keywords, p.diags),
	}
	root := m.Root()
	s.parseBlock(scope{group: root, context: root}, 0, -1, groupRules)

	before := p.diags.Len()
	model.Link(m, p.diags, func(n int) string {
		if n < 1 || n > len(lines) {
			return ""
		}
		return lines[n-1]
	})
	for _, d := range p.diags.All()[before:] {
		p.logger.Debug("link diagnostic", "line", d.Line, "text", d.Text, "message", d.Message)
	}

	return &Result{Model: m, Diagnostics: p.diags.All()}, nil
}

func (src Source) read() ([]string, error) {
	hasFile := src.Filename != ""
	hasLines := len(src.Lines) > 0
	if hasFile == hasLines {
		return nil, ErrInvalidSource
	}

	raw := src.Lines
	if hasFile {
		data, err := os.ReadFile(src.Filename)
		if err != nil {
			return nil, &SourceError{Path: src.Filename, Cause: err}
		}
		raw = strings.Split(string(data), "\n")
	}

	lines := make([]string, len(raw))
	for i, l := range raw {
		lines[i] = eol.Replace(l)
	}
	return lines, nil
}

var eol = strings.NewReplacer("\r", "", "\n", "")

// Parse parses lines with a fresh Parser.
func Parse(lines []string, opts ...Option) (*Result, error) {
	return NewParser(opts...).Load(Source{Lines: lines})
}

// ParseString parses newline-separated model text.
func ParseString(src string, opts ...Option) (*Result, error) {
	return Parse(strings.Split(src, "\n"), opts...)
}

// ParseFile reads and parses the file at path.
func ParseFile(path string, opts ...Option) (*Result, error) {
	return NewParser(opts...).Load(Source{Filename: path})
}

// state is one in-flight parse.
type state struct {
	*Parser
	m      *model.Model
	lines  []string
	tokens [][]string // memoised per line so re-reading a line after an out-dent reports nothing twice
	lexErr []bool     // the tokenizer already rejected the line's shape
	tok    *Tokenizer
}

func (s *state) tokensAt(i int) []string {
	if s.tokens[i] == nil {
		s.tokens[i], s.lexErr[i] = s.tok.tokenize(s.lines[i], i+1)
	}
	return s.tokens[i]
}

// errorf records an error diagnostic against the 0-based line index i.
func (s *state) errorf(i int, format string, args ...any) {
	d := s.diags.Errorf(i+1, s.lines[i], format, args...)
	s.logger.Debug("parse diagnostic", "line", d.Line, "text", d.Text, "message", d.Message)
}

// shapeErrorf records a malformed-line diagnostic unless the tokenizer
// already reported one for the same line.
func (s *state) shapeErrorf(i int, format string, args ...any) {
	if s.lexErr[i] {
		return
	}
	s.errorf(i, format, args...)
}

// scope is the node a block populates. Exactly one of the node fields is
// set. context is the group identifiers resolve against, which for list
// bodies differs from the node being filled.
type scope struct {
	group   *model.Group
	process *model.Process
	data    *model.DataObject
	options *model.Options
	ids     *[]model.DataIdentifier
	strs    *[]string
	context *model.Group
}

// line is the unit handed to an action.
type line struct {
	idx    int      // 0-based index into the source lines
	tokens []string // tokens of that line
	indent int      // indentation established by the block the line is in
}

// lineKind is what a rule decided a line is.
type lineKind int

const (
	lineGroup lineKind = iota
	lineData
	lineProcess
	lineOptions
	lineIdentifierList
	lineStringList
	lineSetting
	lineIdentifiers
	lineText
)

type rule struct {
	match func(kw *Keywords, word string) bool
	kind  lineKind
}

// ruleSet is the ordered rules for one kind of block. The first match wins.
type ruleSet struct {
	name  string
	rules []rule
}

func (rs ruleSet) match(kw *Keywords, word string) (lineKind, bool) {
	for _, r := range rs.rules {
		if r.match(kw, word) {
			return r.kind, true
		}
	}
	return 0, false
}

func always(*Keywords, string) bool { return true }

var (
	groupRules = ruleSet{name: "group", rules: []rule{
		{func(k *Keywords, w string) bool { return k.Group.Has(w) }, lineGroup},
		{func(k *Keywords, w string) bool { return k.Data.Has(w) }, lineData},
		{func(k *Keywords, w string) bool { return k.Process.Has(w) }, lineProcess},
		{func(k *Keywords, w string) bool { return k.Options.Has(w) }, lineOptions},
		{func(k *Keywords, w string) bool { return k.GroupSettings.Has(w) }, lineSetting},
	}}

	processRules = ruleSet{name: "process", rules: []rule{
		{func(k *Keywords, w string) bool { return k.IsIdentifierList(w) }, lineIdentifierList},
		{func(k *Keywords, w string) bool { return k.IsStringList(w) }, lineStringList},
		{func(k *Keywords, w string) bool { return k.ProcessSettings.Has(w) }, lineSetting},
	}}

	dataRules = ruleSet{name: "data", rules: []rule{
		{func(k *Keywords, w string) bool { return k.IsStringList(w) }, lineStringList},
		{func(k *Keywords, w string) bool { return k.DataSettings.Has(w) }, lineSetting},
	}}

	optionsRules = ruleSet{name: "options", rules: []rule{
		{func(k *Keywords, w string) bool { return k.OptionSettings.Has(w) }, lineSetting},
	}}

	identifierListRules = ruleSet{name: "identifier list", rules: []rule{{always, lineIdentifiers}}}

	stringListRules = ruleSet{name: "string list", rules: []rule{{always, lineText}}}
)

// parseBlock consumes the lines of one block starting at index start and
// returns the index of the first line that belongs to an enclosing block.
// parentIndent is the indentation of the line that opened the block; any
// line at or left of it ends the block.
func (s *state) parseBlock(sc scope, start, parentIndent int, rs ruleSet) int {
	blockIndent := -1
	i := start
	for i < len(s.lines) {
		tokens := s.tokensAt(i)
		if len(tokens) <= 1 {
			i++
			continue
		}

		indent := len(tokens[0])
		if indent <= parentIndent {
			return i
		}
		if blockIndent < 0 {
			blockIndent = indent
		} else if indent != blockIndent {
			s.errorf(i, "Detected an unexpected change in indentation")
		}

		kind, ok := rs.match(s.keywords, tokens[1])
		if !ok {
			s.errorf(i, "Unexpected line in %s: no rule matches '%s'", rs.name, tokens[1])
			i++
			continue
		}
		i = s.dispatch(kind, line{idx: i, tokens: tokens, indent: blockIndent}, sc)
	}
	return i
}

func (s *state) dispatch(kind lineKind, ln line, sc scope) int {
	switch kind {
	case lineGroup:
		return s.groupAction(ln, sc)
	case lineData:
		return s.dataAction(ln, sc)
	case lineProcess:
		return s.processAction(ln, sc)
	case lineOptions:
		return s.optionsAction(ln, sc)
	case lineIdentifierList:
		return s.identifierListAction(ln, sc)
	case lineStringList:
		return s.stringListAction(ln, sc)
	case lineSetting:
		return s.settingAction(ln, sc)
	case lineIdentifiers:
		return s.identifiersAction(ln, sc)
	case lineText:
		return s.textAction(ln, sc)
	}
	return ln.idx + 1
}
