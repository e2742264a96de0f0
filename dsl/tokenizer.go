package dsl

import (
	"strings"

	"github.com/scottjrodgers/what-not-how/model"
)

// Tokenizer splits lines into tokens according to a keyword vocabulary and
// records lexical problems.
type Tokenizer struct {
	kw    *Keywords
	diags *model.Diagnostics
}

// NewTokenizer creates a Tokenizer. A nil kw means DefaultKeywords; a nil
// diags discards diagnostics.
func NewTokenizer(kw *Keywords, diags *model.Diagnostics) *Tokenizer {
	if kw == nil {
		kw = DefaultKeywords()
	}
	if diags == nil {
		diags = &model.Diagnostics{}
	}
	return &Tokenizer{kw: kw, diags: diags}
}

// Tokenize splits line with the default vocabulary, discarding diagnostics.
func Tokenize(line string) []string {
	return NewTokenizer(nil, nil).Tokenize(line, 0)
}

// Tokenize splits one source line. lineNo is the 1-based line number used
// in diagnostics.
//
// Token 0 is the leading indentation as a string of spaces. Blank and
// comment lines return a single empty token. What follows token 0 depends
// on the first word of the line:
//
//	group|process|data <id> [:] [description...]
//	input|output : id [, id ...]
//	notes|assumptions|... [:] [text...]
//	options [:]
//	<setting> : value...
//	anything else        -> the whole line as one token
func (t *Tokenizer) Tokenize(line string, lineNo int) []string {
	tokens, _ := t.tokenize(line, lineNo)
	return tokens
}

// tokenize is Tokenize that also reports whether the line was rejected as
// malformed for its keyword, so the parser does not diagnose it twice.
func (t *Tokenizer) tokenize(line string, lineNo int) (tokens []string, malformed bool) {
	report := func(format string, args ...any) {
		t.diags.Errorf(lineNo, line, format, args...)
		malformed = true
	}
	indent := 0
	for indent < len(line) && line[indent] == ' ' {
		indent++
	}
	content := strings.TrimSpace(line[indent:])
	if content == "" || content[0] == '#' {
		return []string{""}, false
	}
	if strings.ContainsRune(line[:len(line)-len(strings.TrimLeft(line, " \t"))], '\t') {
		t.diags.Errorf(lineNo, line, "Don't use tab characters. Use plain spaces.")
	}

	tokens = []string{strings.Repeat(" ", indent)}
	sc := &lineScanner{s: content}
	first := strings.ToLower(sc.word())

	switch {
	case t.kw.OpensScope(first):
		tokens = append(tokens, first)
		if sc.atEnd() {
			report("An identifier is expected after '%s'", first)
			break
		}
		tokens = append(tokens, sc.word())
		if !sc.atEnd() {
			tokens = append(tokens, sc.word())
			if rest := sc.rest(); rest != "" {
				tokens = append(tokens, rest)
			}
		}

	case t.kw.IsIdentifierList(first):
		tokens = append(tokens, first)
		if sc.atEnd() {
			report("A colon is expected after '%s'", first)
			break
		}
		tokens = append(tokens, sc.word())
		ids, balanced := splitIdentifiers(sc.rest())
		if !balanced {
			t.diags.Errorf(lineNo, line, unbalancedLabel)
		}
		tokens = append(tokens, ids...)

	case t.kw.IsStringList(first):
		tokens = append(tokens, first)
		if sc.atEnd() {
			report("A colon is expected after '%s'", first)
			break
		}
		if sc.word() == ":" {
			tokens = append(tokens, ":")
			if rest := sc.rest(); rest != "" {
				tokens = append(tokens, rest)
			}
		}

	case t.kw.Options.Has(first):
		tokens = append(tokens, first)
		if sc.atEnd() {
			report("A colon is expected after '%s'", first)
			break
		}
		if sc.word() == ":" {
			tokens = append(tokens, ":")
		}

	case t.kw.IsSetting(first):
		tokens = append(tokens, first)
		if sc.atEnd() || sc.word() != ":" {
			report("A colon is expected after '%s'", first)
			break
		}
		tokens = append(tokens, ":")
		rest := sc.rest()
		if rest == "" {
			report("Expecting a value after the colon.")
			break
		}
		tokens = append(tokens, rest)

	default:
		tokens = append(tokens, content)
	}
	return tokens, malformed
}

// lineScanner walks a trimmed line. A word is either a run of one
// punctuation character (':' or ',') or a run of characters up to the next
// space, ':' or ','.
type lineScanner struct {
	s   string
	pos int
}

func (sc *lineScanner) skipSpaces() {
	for sc.pos < len(sc.s) && (sc.s[sc.pos] == ' ' || sc.s[sc.pos] == '\t') {
		sc.pos++
	}
}

func (sc *lineScanner) atEnd() bool {
	sc.skipSpaces()
	return sc.pos >= len(sc.s)
}

func (sc *lineScanner) word() string {
	sc.skipSpaces()
	start := sc.pos
	if start >= len(sc.s) {
		return ""
	}
	if c := sc.s[start]; c == ':' || c == ',' {
		for sc.pos < len(sc.s) && sc.s[sc.pos] == c {
			sc.pos++
		}
		return sc.s[start:sc.pos]
	}
	for sc.pos < len(sc.s) {
		c := sc.s[sc.pos]
		if c == ' ' || c == '\t' || c == ':' || c == ',' {
			break
		}
		sc.pos++
	}
	return sc.s[start:sc.pos]
}

// rest consumes and returns the remainder of the line, trimmed.
func (sc *lineScanner) rest() string {
	r := strings.TrimSpace(sc.s[sc.pos:])
	sc.pos = len(sc.s)
	return r
}

// unbalancedLabel is reported for a "(" label that is never closed.
const unbalancedLabel = "Missing ')' after an identifier label"

// splitIdentifiers splits the body of an identifier list into identifier
// tokens and "," separators. Parentheses group a label, so "A (the a), B"
// yields ["A (the a)", ",", "B"]. A label left open is not a label: the
// word ends at the next space or comma and balanced is false.
func splitIdentifiers(s string) (tokens []string, balanced bool) {
	balanced = true
	attach := false
	i := 0
	for i < len(s) {
		switch s[i] {
		case ' ', '\t':
			i++
			continue
		case ',':
			tokens = append(tokens, ",")
			attach = false
			i++
			continue
		}

		start := i
		depth := 0
	scan:
		for i < len(s) {
			switch c := s[i]; {
			case c == '(':
				depth++
			case c == ')' && depth > 0:
				depth--
			case depth == 0 && (c == ' ' || c == '\t' || c == ','):
				break scan
			}
			i++
		}

		open := depth > 0
		if open {
			balanced = false
			i = start
			for i < len(s) && s[i] != ' ' && s[i] != '\t' && s[i] != ',' {
				i++
			}
		}
		word := s[start:i]
		if attach && !open && word[0] == '(' {
			tokens[len(tokens)-1] += " " + word
		} else {
			tokens = append(tokens, word)
		}
		attach = true
	}
	return tokens, balanced
}
