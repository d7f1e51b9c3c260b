package subject_test

import (
	"context"
	"net/http"
	"testing"

	"tracker-service/common/logger"
	"tracker-service/internal/domain"
	"tracker-service/internal/link"
	"tracker-service/internal/memstore"
	"tracker-service/internal/subject"
	"tracker-service/testing/testfixture"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubjectService(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	links := link.NewService(store.Links(), store.Users())
	service := subject.NewService(store.Subjects(), links)

	student := testfixture.User(t, store.Users(), "kid@example.com", domain.RoleStudent)
	other := testfixture.User(t, store.Users(), "other@example.com", domain.RoleStudent)
	parent := testfixture.User(t, store.Users(), "mom@example.com", domain.RoleParent)

	t.Run("SeedDefaults", func(t *testing.T) {
		require.NoError(t, service.SeedDefaults(ctx, student.UserID))

		list, err := service.List(ctx, student)
		require.NoError(t, err)
		require.Len(t, list, len(subject.Defaults))
		assert.Equal(t, "Mathematics", list[0].Name)
		assert.Equal(t, "#3B82F6", list[0].Color)
	})

	t.Run("CreateNormalizesColor", func(t *testing.T) {
		s, err := service.Create(ctx, student, " Latin ", "#abcdef")
		require.NoError(t, err)
		assert.Equal(t, "Latin", s.Name)
		assert.Equal(t, "#ABCDEF", s.Color)
	})

	t.Run("CreateRejectsBadColor", func(t *testing.T) {
		_, err := service.Create(ctx, student, "Latin", "blue")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("ParentCannotCreate", func(t *testing.T) {
		_, err := service.Create(ctx, parent, "Chores", "#000000")
		assert.ErrorIs(t, err, domain.ErrRoleMismatch)
	})

	t.Run("GetOwned", func(t *testing.T) {
		s, err := service.Create(ctx, other, "Chess", "#111111")
		require.NoError(t, err)

		_, err = service.GetOwned(ctx, student.UserID, s.ID)
		assert.ErrorIs(t, err, domain.ErrOwnershipViolation)

		got, err := service.GetOwned(ctx, other.UserID, s.ID)
		require.NoError(t, err)
		assert.Equal(t, "Chess", got.Name)
	})

	t.Run("ParentSeesLinkedSubjects", func(t *testing.T) {
		list, err := service.List(ctx, parent)
		require.NoError(t, err)
		assert.Empty(t, list)

		_, _, err = links.AddEdge(ctx, parent.UserID, student.UserID)
		require.NoError(t, err)

		list, err = service.List(ctx, parent)
		require.NoError(t, err)
		assert.Len(t, list, len(subject.Defaults)+1)
		for _, s := range list {
			assert.Equal(t, student.UserID, s.OwnerID)
		}
	})
}

func TestSubjectHandler(t *testing.T) {
	store := memstore.New()
	links := link.NewService(store.Links(), store.Users())
	service := subject.NewService(store.Subjects(), links)
	student := testfixture.User(t, store.Users(), "kid@example.com", domain.RoleStudent)

	router := chi.NewRouter()
	subject.NewHandler(service, logger.Discard()).RegisterRoutes(router)

	w := testfixture.Do(t, router, student, http.MethodPost, "/subjects", subject.CreateSubjectRequest{Name: "Drama", Color: "#123ABC"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = testfixture.Do(t, router, student, http.MethodPost, "/subjects", subject.CreateSubjectRequest{Name: "", Color: "#123ABC"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = testfixture.Do(t, router, student, http.MethodGet, "/subjects", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list []subject.Subject
	testfixture.Decode(t, w, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "Drama", list[0].Name)
}
