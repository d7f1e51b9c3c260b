package memstore

import (
	"context"
	"fmt"

	"tracker-service/internal/domain"
	"tracker-service/internal/link"
)

type links struct{ s *Store }

func (r *links) Insert(ctx context.Context, parentID, studentID int64) (*link.Edge, bool, error) {
	defer r.s.lock(ctx)()

	if edge, ok := r.find(parentID, studentID); ok {
		return &edge, false, nil
	}

	edge := link.Edge{
		ID:        r.s.nextID("link_edges"),
		ParentID:  parentID,
		StudentID: studentID,
		CreatedAt: r.s.now(),
	}
	r.s.data.edges[edge.ID] = edge
	return &edge, true, nil
}

func (r *links) Get(ctx context.Context, parentID, studentID int64) (*link.Edge, error) {
	defer r.s.lock(ctx)()

	edge, ok := r.find(parentID, studentID)
	if !ok {
		return nil, fmt.Errorf("%w: parent %d is not linked to student %d", domain.ErrNotFound, parentID, studentID)
	}
	return &edge, nil
}

func (r *links) find(parentID, studentID int64) (link.Edge, bool) {
	for _, edge := range r.s.data.edges {
		if edge.ParentID == parentID && edge.StudentID == studentID {
			return edge, true
		}
	}
	return link.Edge{}, false
}

func (r *links) ListByParent(ctx context.Context, parentID int64) ([]link.Edge, error) {
	defer r.s.lock(ctx)()

	return ordered(r.s.data.edges, func(e link.Edge) bool { return e.ParentID == parentID }), nil
}

func (r *links) ListByStudent(ctx context.Context, studentID int64) ([]link.Edge, error) {
	defer r.s.lock(ctx)()

	return ordered(r.s.data.edges, func(e link.Edge) bool { return e.StudentID == studentID }), nil
}
