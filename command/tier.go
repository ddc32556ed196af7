// Package command turns a player's natural-language order into installed
// behavior: it classifies the selection into a control tier, consults the LLM
// for a structured plan, validates it, and installs plans, triggers and
// matrix tuning, falling back to a locally-synthesized safe plan whenever
// the LLM is slow, unavailable or wrong.
package command

import (
	"fmt"
	"sort"

	"fieldmind/model"
)

// TierConfig holds the spatial/compositional thresholds for classification.
type TierConfig struct {
	LargeGroupThreshold int     // more units than this is always squad tier
	ClusterDistance     float64 // single-linkage join distance
	GroupSeparation     float64 // centroid distance that splits a command into squad tier
}

func DefaultTierConfig() TierConfig {
	return TierConfig{LargeGroupThreshold: 5, ClusterDistance: 15, GroupSeparation: 25}
}

// DetermineControlTier classifies a command's unit selection as squad
// (strategic, multi-group) or individual (tactical, single-cluster) control.
// Pure function over snapshots; the result is identical for any permutation
// of the same unit set.
func DetermineControlTier(units []model.UnitSnapshot, cfg TierConfig) model.ControlTierDecision {
	// Canonical ordering first: everything downstream is order-independent.
	sorted := make([]model.UnitSnapshot, len(units))
	copy(sorted, units)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	clusters := clusterByDistance(sorted, cfg.ClusterDistance)

	if len(sorted) <= 1 {
		return decision(model.TierIndividual, clusters, "single unit")
	}
	if len(sorted) > cfg.LargeGroupThreshold {
		return decision(model.TierSquad, clusters,
			fmt.Sprintf("%d units exceeds group threshold %d", len(sorted), cfg.LargeGroupThreshold))
	}

	if len(clusters) > 1 {
		if sep := maxCentroidSeparation(sorted, clusters); sep > cfg.GroupSeparation {
			return decision(model.TierSquad, clusters,
				fmt.Sprintf("%d clusters separated by %.1f", len(clusters), sep))
		}
	}

	distinct := make(map[model.Archetype]bool)
	for _, u := range sorted {
		distinct[u.Archetype] = true
	}
	if len(distinct) >= 3 {
		return decision(model.TierSquad, clusters,
			fmt.Sprintf("%d distinct archetypes", len(distinct)))
	}

	return decision(model.TierIndividual, clusters, "single coherent cluster")
}

func decision(t model.Tier, clusters [][]string, why string) model.ControlTierDecision {
	return model.ControlTierDecision{Tier: t, Clusters: clusters, Reasoning: why}
}

// clusterByDistance performs single-linkage clustering: two units join a
// cluster when within maxDist of each other, iterated to a fixed point via
// union-find. Input must already be sorted by ID.
func clusterByDistance(units []model.UnitSnapshot, maxDist float64) [][]string {
	n := len(units)
	if n == 0 {
		return nil
	}
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if units[i].Pos.Dist(units[j].Pos) <= maxDist {
				parent[find(j)] = find(i)
			}
		}
	}

	groups := make(map[int][]string)
	var roots []int
	for i := range units {
		r := find(i)
		if _, seen := groups[r]; !seen {
			roots = append(roots, r)
		}
		groups[r] = append(groups[r], units[i].ID)
	}
	// Roots appear in first-member order, which is ID order, so the result is deterministic.
	out := make([][]string, 0, len(roots))
	for _, r := range roots {
		out = append(out, groups[r])
	}
	return out
}

// maxCentroidSeparation returns the largest pairwise distance between
// cluster centroids.
func maxCentroidSeparation(units []model.UnitSnapshot, clusters [][]string) float64 {
	pos := make(map[string]model.Vec2, len(units))
	for _, u := range units {
		pos[u.ID] = u.Pos
	}
	centroids := make([]model.Vec2, len(clusters))
	for i, c := range clusters {
		var sum model.Vec2
		for _, id := range c {
			sum.X += pos[id].X
			sum.Y += pos[id].Y
		}
		centroids[i] = model.Vec2{X: sum.X / float64(len(c)), Y: sum.Y / float64(len(c))}
	}
	var max float64
	for i := 0; i < len(centroids); i++ {
		for j := i + 1; j < len(centroids); j++ {
			if d := centroids[i].Dist(centroids[j]); d > max {
				max = d
			}
		}
	}
	return max
}
