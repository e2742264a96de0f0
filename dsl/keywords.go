package dsl

// Set is a set of lower-case keywords.
type Set map[string]struct{}

// NewSet builds a Set from words.
func NewSet(words ...string) Set {
	s := make(Set, len(words))
	for _, w := range words {
		s[w] = struct{}{}
	}
	return s
}

// Has reports whether w is in the set.
func (s Set) Has(w string) bool {
	_, ok := s[w]
	return ok
}

// Keywords is the vocabulary of the language, grouped by syntactic role.
// Both the tokenizer and the block parser read it.
type Keywords struct {
	Group          Set // opens a nested group
	Process        Set // opens a process
	Data           Set // opens a data object; empty by default
	Options        Set // opens an options block
	Input          Set
	Output         Set
	Notes          Set
	Assumptions    Set
	Preconditions  Set
	Postconditions Set

	GroupSettings   Set // "name: value" lines allowed in a group
	ProcessSettings Set
	DataSettings    Set
	OptionSettings  Set
}

// DefaultKeywords returns the standard vocabulary.
func DefaultKeywords() *Keywords {
	return &Keywords{
		Group:          NewSet("group", "detail", "details"),
		Process:        NewSet("process", "function", "procedure"),
		Data:           NewSet(),
		Options:        NewSet("options"),
		Input:          NewSet("in", "input", "inputs"),
		Output:         NewSet("out", "output", "outputs"),
		Notes:          NewSet("note", "notes"),
		Assumptions:    NewSet("assumptions"),
		Preconditions:  NewSet("pre-condition", "pre-conditions"),
		Postconditions: NewSet("post-condition", "post-conditions"),

		GroupSettings:   NewSet("implements"),
		ProcessSettings: NewSet("stackable", "desc"),
		DataSettings:    NewSet("desc"),
		OptionSettings:  NewSet("tool", "title", "filename", "svg-name", "recurse", "flatten"),
	}
}

// HistoricalDataKeywords are the data openers older models used.
var HistoricalDataKeywords = []string{"data", "file", "concept"}

// WithData returns a copy of k whose data openers are words.
func (k *Keywords) WithData(words ...string) *Keywords {
	if k == nil {
		k = DefaultKeywords()
	}
	c := *k
	c.Data = NewSet(words...)
	return &c
}

// OpensScope reports whether w starts a group, process or data object.
func (k *Keywords) OpensScope(w string) bool {
	return k.Group.Has(w) || k.Process.Has(w) || k.Data.Has(w)
}

// IsIdentifierList reports whether w starts an input or output list.
func (k *Keywords) IsIdentifierList(w string) bool {
	return k.Input.Has(w) || k.Output.Has(w)
}

// IsStringList reports whether w starts a notes-like list.
func (k *Keywords) IsStringList(w string) bool {
	return k.Notes.Has(w) || k.Assumptions.Has(w) || k.Preconditions.Has(w) || k.Postconditions.Has(w)
}

// IsSetting reports whether w is a scalar setting name in any scope.
func (k *Keywords) IsSetting(w string) bool {
	return k.OptionSettings.Has(w) || k.GroupSettings.Has(w) || k.ProcessSettings.Has(w) || k.DataSettings.Has(w)
}
