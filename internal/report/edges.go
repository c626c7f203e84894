package report

import (
	"fmt"
	"sort"
	"time"
)

// #region edge-types
// Edge links two prototypes by a named overlap metric.
type Edge struct {
	SourceID string
	TargetID string
	Metric   string
	Weight   float64
}

// #endregion edge-types

// #region upsert
// UpsertEdge inserts an overlap edge or updates its weight if the pair
// was already recorded for that metric. Pairs are stored with the lower
// prototype ID first so A-B and B-A collapse to one row.
func (s *Store) UpsertEdge(e Edge) error {
	src, dst := e.SourceID, e.TargetID
	if dst < src {
		src, dst = dst, src
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.Exec(
		`INSERT INTO overlap_edges (source_id, target_id, metric, weight, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(source_id, target_id, metric)
		 DO UPDATE SET weight = excluded.weight, updated_at = excluded.updated_at`,
		src, dst, e.Metric, e.Weight, now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert edge: %w", err)
	}
	return nil
}

// #endregion upsert

// #region neighbors
// Neighbors returns the prototypes connected to id by the given metric
// with weight at or above minWeight, strongest first.
func (s *Store) Neighbors(id, metric string, minWeight float64) ([]Edge, error) {
	rows, err := s.db.Query(
		`SELECT source_id, target_id, metric, weight FROM overlap_edges
		 WHERE (source_id = ? OR target_id = ?) AND metric = ? AND weight >= ?
		 ORDER BY weight DESC`,
		id, id, metric, minWeight,
	)
	if err != nil {
		return nil, fmt.Errorf("neighbors: %w", err)
	}
	defer rows.Close()

	var edges []Edge
	for rows.Next() {
		var e Edge
		if err := rows.Scan(&e.SourceID, &e.TargetID, &e.Metric, &e.Weight); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		// orient the edge away from the queried node
		if e.TargetID == id {
			e.SourceID, e.TargetID = e.TargetID, e.SourceID
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// #endregion neighbors

// #region clusters
// Clusters groups prototypes into connected components over edges of the
// given metric with weight at or above minWeight. Each cluster with two
// or more members is returned sorted, largest cluster first.
func (s *Store) Clusters(metric string, minWeight float64) ([][]string, error) {
	rows, err := s.db.Query(
		`SELECT source_id, target_id FROM overlap_edges
		 WHERE metric = ? AND weight >= ?`,
		metric, minWeight,
	)
	if err != nil {
		return nil, fmt.Errorf("cluster edges: %w", err)
	}
	defer rows.Close()

	adj := make(map[string][]string)
	for rows.Next() {
		var src, dst string
		if err := rows.Scan(&src, &dst); err != nil {
			return nil, fmt.Errorf("scan cluster edge: %w", err)
		}
		adj[src] = append(adj[src], dst)
		adj[dst] = append(adj[dst], src)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// BFS over each unvisited node
	visited := make(map[string]bool)
	var clusters [][]string
	ids := make([]string, 0, len(adj))
	for id := range adj {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, start := range ids {
		if visited[start] {
			continue
		}
		var members []string
		queue := []string{start}
		visited[start] = true
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			members = append(members, cur)
			for _, next := range adj[cur] {
				if !visited[next] {
					visited[next] = true
					queue = append(queue, next)
				}
			}
		}
		if len(members) >= 2 {
			sort.Strings(members)
			clusters = append(clusters, members)
		}
	}

	sort.Slice(clusters, func(i, j int) bool {
		if len(clusters[i]) != len(clusters[j]) {
			return len(clusters[i]) > len(clusters[j])
		}
		return clusters[i][0] < clusters[j][0]
	})
	return clusters, nil
}

// #endregion clusters
