// Package model holds the in-memory description of a "what, not how" system:
// a tree of groups that own processes and data objects, the references from
// process inputs and outputs to data objects, and the options that steer
// diagram generation.
//
// A Model is an arena. Every entity gets an id from the Model's Counter and
// is reachable by id; parent links are stored as ids rather than pointers so
// the tree has a single owner per node.
//
// Usage:
//
//	m := model.New()
//	billing := m.AddGroup(m.Root(), "billing", 3)
//	p := m.AddProcess(billing, "Invoice", 4)
//	fmt.Println(p.ID, m.Parent(billing).Name == "")
//
// Parse diagnostics are collected in a Diagnostics list that callers own;
// nothing in this package aborts on bad input.
package model
