// Package graph turns a parsed model.Model into diagram definitions for
// Mermaid or D2, and runs the external tool that renders them to SVG.
//
// A model is drawn as one or more Views. A View starts at a group and pulls
// in its descendants up to the group's flatten depth; those descendants
// appear as nested subgraphs (Mermaid) or containers (D2). When the group's
// options set recurse, Plan also produces one View for every child group
// the flatten depth left out, and so on down the tree.
//
// Usage:
//
//	for _, v := range graph.Plan(res.Model, "system") {
//		f, _ := os.Create(v.Options.DefinitionFile())
//		if err := graph.Write(f, v); err != nil {
//			return err
//		}
//		f.Close()
//	}
package graph
