package redundancy

import (
	"sort"

	"factorlab/domain/core"
)

// KeepCriteria selects the representative of a redundant factor group.
type KeepCriteria string

const (
	// KeepByName keeps the lexicographically first factor name. It is a
	// deterministic tie-break, not a quality judgment; an IC-aware criterion
	// would be a new value here, not a change to this default.
	KeepByName KeepCriteria = "name"
)

// Valid reports whether the criteria is one of the supported values.
func (k KeepCriteria) Valid() bool { return k == KeepByName }

// Suggestion flags one redundant group: keep one factor, remove the rest.
type Suggestion struct {
	Keep   string
	Remove []string
}

// GenerateRemovalSuggestions partitions the factors into connected groups
// whose members are pairwise linked by |correlation| >= threshold and picks
// one representative per group. Groups of one produce no suggestion.
func (a *Analyzer) GenerateRemovalSuggestions(threshold float64, keep KeepCriteria) ([]Suggestion, error) {
	if !keep.Valid() {
		return nil, core.NewValidationError("keep_criteria", string(keep))
	}

	pairs, err := a.FindHighCorrelationPairs(threshold)
	if err != nil {
		return nil, err
	}

	// Union-find over the high-correlation graph.
	parent := make(map[string]string, len(a.factors))
	for _, f := range a.factors {
		parent[f.Name] = f.Name
	}
	var find func(string) string
	find = func(x string) string {
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}
	for _, p := range pairs {
		ra, rb := find(p.A), find(p.B)
		if ra != rb {
			parent[rb] = ra
		}
	}

	groups := make(map[string][]string)
	for _, f := range a.factors {
		root := find(f.Name)
		groups[root] = append(groups[root], f.Name)
	}

	suggestions := make([]Suggestion, 0, len(groups))
	for _, members := range groups {
		if len(members) < 2 {
			continue
		}
		sort.Strings(members)
		suggestions = append(suggestions, Suggestion{
			Keep:   members[0],
			Remove: members[1:],
		})
	}
	sort.Slice(suggestions, func(i, j int) bool {
		return suggestions[i].Keep < suggestions[j].Keep
	})
	return suggestions, nil
}
