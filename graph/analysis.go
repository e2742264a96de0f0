package graph

import (
	"sort"

	"github.com/scottjrodgers/what-not-how/model"
)

// PrimaryInputs returns the data objects of v that some process consumes
// and no process of the view produces.
func PrimaryInputs(v *View) []*model.DataObject {
	consumed, produced := flows(v)
	var out []*model.DataObject
	for _, d := range v.Data {
		if consumed[d.ID] && !produced[d.ID] {
			out = append(out, d)
		}
	}
	return out
}

// PrimaryOutputs returns the data objects of v that some process produces
// and no process of the view consumes.
func PrimaryOutputs(v *View) []*model.DataObject {
	consumed, produced := flows(v)
	var out []*model.DataObject
	for _, d := range v.Data {
		if produced[d.ID] && !consumed[d.ID] {
			out = append(out, d)
		}
	}
	return out
}

func flows(v *View) (consumed, produced map[model.ID]bool) {
	consumed = make(map[model.ID]bool)
	produced = make(map[model.ID]bool)
	for _, p := range v.Processes {
		for _, ref := range p.Inputs {
			consumed[ref.Ref] = true
		}
		for _, ref := range p.Outputs {
			produced[ref.Ref] = true
		}
	}
	return consumed, produced
}

// Rank layers the processes of v by the longest chain of producers in front
// of them: a process that consumes only primary inputs has rank 0, one that
// consumes the output of a rank-n process has at least rank n+1. A
// dependency that closes a cycle is ignored. Processes are visited in
// declaration order, so cyclic flows rank the same however v.Processes is
// ordered.
func Rank(v *View) map[model.ID]int {
	procs := make([]*model.Process, len(v.Processes))
	copy(procs, v.Processes)
	sort.Slice(procs, func(i, j int) bool { return procs[i].ID < procs[j].ID })

	producers := make(map[model.ID][]*model.Process)
	for _, p := range procs {
		for _, ref := range p.Outputs {
			producers[ref.Ref] = append(producers[ref.Ref], p)
		}
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[model.ID]int)
	rank := make(map[model.ID]int)

	var visit func(p *model.Process) int
	visit = func(p *model.Process) int {
		switch state[p.ID] {
		case visiting:
			return -1
		case done:
			return rank[p.ID]
		}
		state[p.ID] = visiting
		r := 0
		for _, ref := range p.Inputs {
			for _, q := range producers[ref.Ref] {
				if q.ID == p.ID {
					continue
				}
				if qr := visit(q); qr >= 0 && qr+1 > r {
					r = qr + 1
				}
			}
		}
		state[p.ID] = done
		rank[p.ID] = r
		return r
	}

	for _, p := range procs {
		visit(p)
	}
	return rank
}
