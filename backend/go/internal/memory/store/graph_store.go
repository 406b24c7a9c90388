package store

import (
	"Recall_1.0/backend/go/internal/database/neo4j"
	"Recall_1.0/backend/go/internal/models"
	"context"
	"fmt"
	"sort"
	"sync"

	driver "github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// GraphStore records who a user's relations are.
type GraphStore interface {
	LinkRelation(ctx context.Context, owner, relation, category string) error
	Relations(ctx context.Context, owner string) ([]models.RelationEdge, error)
}

// Neo4jStore is a GraphStore backed by Neo4j.
type Neo4jStore struct {
	client *neo4j.Neo4jClient
}

// NewNeo4jStore creates a Neo4jStore.
func NewNeo4jStore(client *neo4j.Neo4jClient) *Neo4jStore {
	return &Neo4jStore{client: client}
}

const linkRelationCypher = `
MERGE (u:User {id: $owner})
MERGE (p:Person {owner: $owner, name: $relation})
MERGE (u)-[r:HAS_RELATION]->(p)
SET r.category = $category`

const relationsCypher = `
MATCH (:User {id: $owner})-[r:HAS_RELATION]->(p:Person)
RETURN p.name AS relation, coalesce(r.category, '') AS category
ORDER BY relation`

// LinkRelation merges the owner -> relation edge and sets its category.
func (s *Neo4jStore) LinkRelation(ctx context.Context, owner, relation, category string) error {
	_, err := s.client.ExecuteWrite(ctx, func(tx driver.ManagedTransaction) (interface{}, error) {
		_, err := tx.Run(ctx, linkRelationCypher, map[string]interface{}{
			"owner":    owner,
			"relation": relation,
			"category": category,
		})
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("failed to link relation in neo4j: %w", err)
	}
	return nil
}

// Relations lists the owner's relation edges ordered by relation name.
func (s *Neo4jStore) Relations(ctx context.Context, owner string) ([]models.RelationEdge, error) {
	out, err := s.client.ExecuteRead(ctx, func(tx driver.ManagedTransaction) (interface{}, error) {
		result, err := tx.Run(ctx, relationsCypher, map[string]interface{}{"owner": owner})
		if err != nil {
			return nil, err
		}
		records, err := result.Collect(ctx)
		if err != nil {
			return nil, err
		}
		edges := make([]models.RelationEdge, 0, len(records))
		for _, rec := range records {
			rel, _ := rec.Get("relation")
			cat, _ := rec.Get("category")
			relStr, _ := rel.(string)
			catStr, _ := cat.(string)
			edges = append(edges, models.RelationEdge{Owner: owner, Relation: relStr, Category: catStr})
		}
		return edges, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read relations from neo4j: %w", err)
	}
	return out.([]models.RelationEdge), nil
}

// MemoryGraph is an in-process GraphStore.
type MemoryGraph struct {
	mu    sync.RWMutex
	edges map[string]map[string]string
}

// NewMemoryGraph creates an empty MemoryGraph.
func NewMemoryGraph() *MemoryGraph {
	return &MemoryGraph{edges: make(map[string]map[string]string)}
}

func (g *MemoryGraph) LinkRelation(_ context.Context, owner, relation, category string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	rels, ok := g.edges[owner]
	if !ok {
		rels = make(map[string]string)
		g.edges[owner] = rels
	}
	rels[relation] = category
	return nil
}

func (g *MemoryGraph) Relations(_ context.Context, owner string) ([]models.RelationEdge, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]models.RelationEdge, 0, len(g.edges[owner]))
	for rel, cat := range g.edges[owner] {
		out = append(out, models.RelationEdge{Owner: owner, Relation: rel, Category: cat})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Relation < out[j].Relation })
	return out, nil
}
