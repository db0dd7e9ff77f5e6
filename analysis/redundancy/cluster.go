package redundancy

import (
	"sort"

	"factorlab/domain/core"
	dstats "factorlab/domain/stats"
)

// defaultCutDistance is the tree-cut threshold used when no cluster count is
// requested: factors with |correlation| >= 0.7 end up merged.
const defaultCutDistance = 0.3

// Grouping is a partition of the factor names. Clusters are ordered by the
// collection position of their first member; members keep collection order.
type Grouping struct {
	Clusters   [][]string
	Assignment map[string]int // factor name -> cluster index
}

// HierarchicalClustering groups factors by agglomerative clustering on the
// distance 1 - |correlation| (range [0, 2]). With nClusters == 0 the tree is
// cut at the default distance threshold; otherwise merging stops at exactly
// nClusters groups.
func (a *Analyzer) HierarchicalClustering(linkage dstats.Linkage, nClusters int) (Grouping, error) {
	if !linkage.Valid() {
		return Grouping{}, core.NewUnknownMethodError("linkage", string(linkage))
	}
	if nClusters < 0 || nClusters > len(a.factors) {
		return Grouping{}, core.NewValidationError("n_clusters", "must be between 0 and the number of factors")
	}

	m, err := a.ensureMatrix()
	if err != nil {
		return Grouping{}, err
	}

	k := m.Size()
	dist := make([][]float64, k)
	for i := 0; i < k; i++ {
		dist[i] = make([]float64, k)
		for j := 0; j < k; j++ {
			d := m.At(i, j)
			if d < 0 {
				d = -d
			}
			dist[i][j] = 1 - d
		}
	}

	// Naive agglomerative merge. K is the number of candidate factors, small
	// enough that the cubic loop is irrelevant.
	clusters := make([][]int, k)
	for i := range clusters {
		clusters[i] = []int{i}
	}

	stopAt := nClusters
	if stopAt == 0 {
		stopAt = 1
	}
	for len(clusters) > stopAt {
		bi, bj, best := -1, -1, 0.0
		for i := 0; i < len(clusters); i++ {
			for j := i + 1; j < len(clusters); j++ {
				d := clusterDistance(linkage, dist, clusters[i], clusters[j])
				if bi == -1 || d < best {
					bi, bj, best = i, j, d
				}
			}
		}
		if nClusters == 0 && best > defaultCutDistance {
			break
		}
		merged := append(append([]int{}, clusters[bi]...), clusters[bj]...)
		clusters = append(clusters[:bj], clusters[bj+1:]...)
		clusters[bi] = merged
	}

	return a.buildGrouping(clusters), nil
}

// clusterDistance applies the linkage rule across all member pairs.
func clusterDistance(linkage dstats.Linkage, dist [][]float64, a, b []int) float64 {
	switch linkage {
	case dstats.LinkageSingle:
		best := dist[a[0]][b[0]]
		for _, i := range a {
			for _, j := range b {
				if dist[i][j] < best {
					best = dist[i][j]
				}
			}
		}
		return best
	case dstats.LinkageComplete:
		worst := dist[a[0]][b[0]]
		for _, i := range a {
			for _, j := range b {
				if dist[i][j] > worst {
					worst = dist[i][j]
				}
			}
		}
		return worst
	default: // average
		sum := 0.0
		for _, i := range a {
			for _, j := range b {
				sum += dist[i][j]
			}
		}
		return sum / float64(len(a)*len(b))
	}
}

func (a *Analyzer) buildGrouping(clusters [][]int) Grouping {
	// Order clusters by first member, members by collection position.
	for _, c := range clusters {
		sort.Ints(c)
	}
	sort.Slice(clusters, func(i, j int) bool {
		return clusters[i][0] < clusters[j][0]
	})

	g := Grouping{
		Clusters:   make([][]string, len(clusters)),
		Assignment: make(map[string]int, len(a.factors)),
	}
	for ci, c := range clusters {
		names := make([]string, len(c))
		for i, idx := range c {
			names[i] = a.factors[idx].Name
			g.Assignment[a.factors[idx].Name] = ci
		}
		g.Clusters[ci] = names
	}
	return g
}
