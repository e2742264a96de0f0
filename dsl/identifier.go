package dsl

import "strings"

// Identifier is a decoded entry of an input or output list.
type Identifier struct {
	Name      string
	Desc      string
	Optional  bool
	Stackable bool
}

// DecodeIdentifier splits a raw list entry into its name, label and
// modifiers. A "(label)" after the name becomes Desc; a trailing '?' marks
// it optional, '+' stackable, '*' both. Without a label Desc is the name.
//
//	DecodeIdentifier("Orders*(all open orders)")
//	// Identifier{Name: "Orders", Desc: "all open orders", Optional: true, Stackable: true}
func DecodeIdentifier(raw string) Identifier {
	var id Identifier
	rest := strings.TrimSpace(raw)
	open := strings.Index(rest, "(")
	closing := strings.LastIndex(rest, ")")
	hasLabel := open > 0 && closing > open
	if hasLabel {
		id.Desc = rest[open+1 : closing]
		rest = strings.TrimSpace(rest[:open])
	}

	if n := len(rest); n > 0 {
		switch rest[n-1] {
		case '+':
			id.Stackable = true
			rest = rest[:n-1]
		case '*':
			id.Optional, id.Stackable = true, true
			rest = rest[:n-1]
		case '?':
			id.Optional = true
			rest = rest[:n-1]
		}
	}
	id.Name = rest
	if !hasLabel {
		id.Desc = id.Name
	}
	return id
}
