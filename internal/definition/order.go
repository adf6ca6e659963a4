package definition

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// buildOrder returns model indices in build order: every model comes after
// the models it extends, imports or uses as an attribute type. A model may
// refer to itself.
//
// The result is deterministic: when several models are ready, the one
// declared first wins. Models caught in a cycle are reported by name.
func buildOrder(f *File) ([]int, error) {
	n := len(f.Models)
	if n == 0 {
		return nil, nil
	}

	byName := make(map[string]int, n)
	for i := range f.Models {
		if _, dup := byName[f.Models[i].Name]; !dup {
			byName[f.Models[i].Name] = i
		}
	}

	indeg := make([]int, n)
	out := make([][]int, n)

	for i := range f.Models {
		for _, dep := range dependencies(&f.Models[i]) {
			d, ok := byName[dep]
			if !ok || d == i {
				continue
			}

			indeg[i]++
			out[d] = append(out[d], i)
		}
	}

	for i := range out {
		sort.Ints(out[i])
	}

	var ready []int

	for i := range n {
		if indeg[i] == 0 {
			ready = append(ready, i)
		}
	}

	order := make([]int, 0, n)

	for len(ready) > 0 {
		i := ready[0]
		ready = ready[1:]

		order = append(order, i)

		for _, j := range out[i] {
			indeg[j]--
			if indeg[j] == 0 {
				k := sort.SearchInts(ready, j)
				ready = slices.Insert(ready, k, j)
			}
		}
	}

	if len(order) != n {
		var cyclic []string

		for i := range n {
			if indeg[i] > 0 {
				cyclic = append(cyclic, f.Models[i].Name)
			}
		}

		return nil, fmt.Errorf("cycle detected between models %s", strings.Join(cyclic, ", "))
	}

	return order, nil
}

// dependencies lists the model names md needs before it can be built.
// Names that are not models (value types, typos) are filtered by the caller.
func dependencies(md *ModelDef) []string {
	var deps []string
	if md.Extends != "" {
		deps = append(deps, md.Extends)
	}

	deps = append(deps, md.Import...)

	for _, a := range md.Attributes {
		deps = append(deps, a.Type)
	}

	if md.Instances != nil {
		deps = append(deps, md.Instances.Type)
	}

	return deps
}
