package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
	"github.com/custodia-labs/reqtrace/internal/core/ports/driven"
)

// diagramStore implements driven.DiagramStore.
type diagramStore struct {
	store *Store
}

var _ driven.DiagramStore = (*diagramStore)(nil)

// ReplaceGraph swaps the nodes and edges stored for one document.
func (s *diagramStore) ReplaceGraph(
	ctx context.Context,
	documentRef string,
	nodes []domain.DiagramNode,
	edges []domain.DiagramEdge,
) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is no-op

	// Edges go with their nodes
	if _, err := tx.ExecContext(ctx, "DELETE FROM diagram_nodes WHERE document_ref = ?", documentRef); err != nil {
		return fmt.Errorf("clearing diagram: %w", err)
	}

	nodeStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO diagram_nodes (document_ref, page, id, position, label, shape, requirement_id, attributes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer nodeStmt.Close()

	for i, node := range nodes {
		attrs := node.Attributes
		if attrs == nil {
			attrs = map[string]string{}
		}
		attrsJSON, err := json.Marshal(attrs)
		if err != nil {
			return fmt.Errorf("marshalling attributes: %w", err)
		}
		if _, err := nodeStmt.ExecContext(ctx, documentRef, node.Page, node.ID, i, node.Label,
			node.Shape, node.RequirementID, string(attrsJSON)); err != nil {
			return fmt.Errorf("saving node %s: %w", node.ID, err)
		}
	}

	edgeStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO diagram_edges (document_ref, page, id, position, source_id, target_id, label)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer edgeStmt.Close()

	for i, edge := range edges {
		if _, err := edgeStmt.ExecContext(ctx, documentRef, edge.Page, edge.ID, i,
			edge.SourceID, edge.TargetID, edge.Label); err != nil {
			return fmt.Errorf("saving edge %s: %w", edge.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ListNodes returns the nodes of a document in diagram order.
func (s *diagramStore) ListNodes(ctx context.Context, documentRef string) ([]domain.DiagramNode, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT page, id, label, shape, requirement_id, attributes
		FROM diagram_nodes WHERE document_ref = ? ORDER BY position
	`, documentRef)
	if err != nil {
		return nil, fmt.Errorf("querying nodes: %w", err)
	}
	defer rows.Close()

	var nodes []domain.DiagramNode //nolint:prealloc // size unknown from query
	for rows.Next() {
		node := domain.DiagramNode{DocumentRef: documentRef}
		var attrs string
		if err := rows.Scan(&node.Page, &node.ID, &node.Label, &node.Shape,
			&node.RequirementID, &attrs); err != nil {
			return nil, fmt.Errorf("scanning node: %w", err)
		}
		if err := json.Unmarshal([]byte(attrs), &node.Attributes); err != nil {
			return nil, fmt.Errorf("unmarshaling attributes: %w", err)
		}
		if len(node.Attributes) == 0 {
			node.Attributes = nil
		}
		nodes = append(nodes, node)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating nodes: %w", err)
	}
	return nodes, nil
}

// ListEdges returns the edges of a document in diagram order.
func (s *diagramStore) ListEdges(ctx context.Context, documentRef string) ([]domain.DiagramEdge, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT page, id, source_id, target_id, label
		FROM diagram_edges WHERE document_ref = ? ORDER BY position
	`, documentRef)
	if err != nil {
		return nil, fmt.Errorf("querying edges: %w", err)
	}
	defer rows.Close()

	var edges []domain.DiagramEdge //nolint:prealloc // size unknown from query
	for rows.Next() {
		edge := domain.DiagramEdge{DocumentRef: documentRef}
		if err := rows.Scan(&edge.Page, &edge.ID, &edge.SourceID, &edge.TargetID, &edge.Label); err != nil {
			return nil, fmt.Errorf("scanning edge: %w", err)
		}
		edges = append(edges, edge)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating edges: %w", err)
	}
	return edges, nil
}
