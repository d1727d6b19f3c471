package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/VladimirKondr/netsimplex/internal/domain"
)

// GraphHash computes a deterministic hash of a graph for use as a cache key.
func GraphHash(graph *domain.Graph) string {
	if graph == nil {
		return ""
	}

	data := graphToCanonical(graph)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:16])
}

// graphToCanonical produces a deterministic byte representation of a
// graph: node IDs and edge endpoints are already returned sorted by
// domain.Graph's accessors, so the canonical form only needs to walk
// them in that order.
func graphToCanonical(graph *domain.Graph) []byte {
	var result []byte

	for _, id := range graph.NodeIDs() {
		node, _ := graph.Node(id)
		result = append(result, []byte(fmt.Sprintf("n:%s:%.6f;", id, node.Balance))...)
	}

	for _, key := range graph.EdgeKeys() {
		edge, _ := graph.Edge(key.From, key.To)
		result = append(result, []byte(fmt.Sprintf("e:%s:%s:%.6f:%.6f;",
			edge.From, edge.To, edge.Cost, edge.Capacity))...)
	}

	return result
}

// BuildSolveKey builds a cache key for a solve result.
func BuildSolveKey(graphHash string) string {
	return fmt.Sprintf("solve:%s", graphHash)
}

// BuildSolveKeyWithOptions builds a cache key incorporating a hash of the
// solver options (e.g. strategy overrides, iteration cap) alongside the
// graph hash.
func BuildSolveKeyWithOptions(graphHash, optionsHash string) string {
	if optionsHash == "" {
		return BuildSolveKey(graphHash)
	}
	return fmt.Sprintf("solve:%s:%s", graphHash, optionsHash)
}

// QuickHash computes a full SHA-256 hex digest of arbitrary data.
func QuickHash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// ShortHash computes a truncated (16-character) SHA-256 hex digest.
func ShortHash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:8])
}
