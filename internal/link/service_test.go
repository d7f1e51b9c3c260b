package link_test

import (
	"context"
	"testing"

	"tracker-service/internal/domain"
	"tracker-service/internal/link"
	"tracker-service/internal/memstore"
	"tracker-service/testing/testfixture"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkService(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	service := link.NewService(store.Links(), store.Users())

	parent := testfixture.User(t, store.Users(), "mom@example.com", domain.RoleParent)
	first := testfixture.User(t, store.Users(), "first@example.com", domain.RoleStudent)
	second := testfixture.User(t, store.Users(), "second@example.com", domain.RoleStudent)

	t.Run("AddEdgeIsIdempotent", func(t *testing.T) {
		edge, created, err := service.AddEdge(ctx, parent.UserID, second.UserID)
		require.NoError(t, err)
		assert.True(t, created)

		again, created, err := service.AddEdge(ctx, parent.UserID, second.UserID)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, edge.ID, again.ID)
	})

	t.Run("ListStudentsInLinkOrder", func(t *testing.T) {
		_, _, err := service.AddEdge(ctx, parent.UserID, first.UserID)
		require.NoError(t, err)

		students, err := service.ListStudents(ctx, parent.UserID)
		require.NoError(t, err)
		assert.Equal(t, []int64{second.UserID, first.UserID}, students)

		parents, err := service.ListParents(ctx, first.UserID)
		require.NoError(t, err)
		assert.Equal(t, []int64{parent.UserID}, parents)
	})

	t.Run("RoleMismatch", func(t *testing.T) {
		_, _, err := service.AddEdge(ctx, first.UserID, second.UserID)
		assert.ErrorIs(t, err, domain.ErrRoleMismatch)

		_, _, err = service.AddEdge(ctx, parent.UserID, parent.UserID)
		assert.ErrorIs(t, err, domain.ErrRoleMismatch)

		_, _, err = service.AddEdge(ctx, parent.UserID, 9999)
		assert.ErrorIs(t, err, domain.ErrRoleMismatch)
	})

	t.Run("IsLinked", func(t *testing.T) {
		linked, err := service.IsLinked(ctx, parent.UserID, first.UserID)
		require.NoError(t, err)
		assert.True(t, linked)

		linked, err = service.IsLinked(ctx, parent.UserID, 9999)
		require.NoError(t, err)
		assert.False(t, linked)
	})
}
