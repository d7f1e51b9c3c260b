package invite_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"tracker-service/common/logger"
	"tracker-service/internal/domain"
	"tracker-service/internal/invite"
	"tracker-service/internal/link"
	"tracker-service/internal/memstore"
	"tracker-service/internal/notification"
	"tracker-service/testing/testfixture"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedCodes hands out codes in order and repeats the last one.
type fixedCodes struct {
	mu    sync.Mutex
	codes []string
}

func (g *fixedCodes) Generate() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	code := g.codes[0]
	if len(g.codes) > 1 {
		g.codes = g.codes[1:]
	}
	return code, nil
}

type fixture struct {
	store     *memstore.Store
	links     link.Service
	publisher *testfixture.Publisher
	service   invite.Service
}

func newFixture(codes invite.CodeGenerator) *fixture {
	store := memstore.New()
	links := link.NewService(store.Links(), store.Users())
	publisher := &testfixture.Publisher{}
	if codes == nil {
		codes = invite.NewCodeGenerator(10)
	}

	return &fixture{
		store:     store,
		links:     links,
		publisher: publisher,
		service: invite.NewService(
			store.Invites(),
			links,
			store.Users(),
			store,
			codes,
			publisher,
			invite.Config{MaxAttempts: 3},
			logger.Discard(),
		),
	}
}

func TestInviteService_CreateAndAccept(t *testing.T) {
	ctx := context.Background()
	f := newFixture(nil)
	student := testfixture.User(t, f.store.Users(), "kid@example.com", domain.RoleStudent)
	parent := testfixture.User(t, f.store.Users(), "mom@example.com", domain.RoleParent)

	inv, err := f.service.Create(ctx, student, nil)
	require.NoError(t, err)
	assert.Len(t, inv.Code, 10)
	assert.False(t, inv.Consumed)

	edge, err := f.service.Accept(ctx, parent, inv.Code)
	require.NoError(t, err)
	assert.Equal(t, parent.UserID, edge.ParentID)
	assert.Equal(t, student.UserID, edge.StudentID)

	linked, err := f.links.IsLinked(ctx, parent.UserID, student.UserID)
	require.NoError(t, err)
	assert.True(t, linked)

	stored, err := f.store.Invites().GetByCode(ctx, inv.Code)
	require.NoError(t, err)
	assert.True(t, stored.Consumed)
	require.NotNil(t, stored.ConsumedBy)
	assert.Equal(t, parent.UserID, *stored.ConsumedBy)

	assert.Equal(t,
		[]notification.EventType{notification.EventInviteCreated, notification.EventInviteAccepted},
		f.publisher.Types(),
	)
	accepted := f.publisher.Events()[1]
	assert.Equal(t, student.UserID, accepted.StudentID)
	assert.Equal(t, parent.UserID, accepted.ParentID)
}

func TestInviteService_Accept(t *testing.T) {
	ctx := context.Background()

	t.Run("UnknownCode", func(t *testing.T) {
		f := newFixture(nil)
		parent := testfixture.User(t, f.store.Users(), "dad@example.com", domain.RoleParent)

		_, err := f.service.Accept(ctx, parent, "NOPE2345")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("EmptyCode", func(t *testing.T) {
		f := newFixture(nil)
		parent := testfixture.User(t, f.store.Users(), "dad@example.com", domain.RoleParent)

		_, err := f.service.Accept(ctx, parent, "   ")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("NormalizesCode", func(t *testing.T) {
		f := newFixture(&fixedCodes{codes: []string{"ABCD2345"}})
		student := testfixture.User(t, f.store.Users(), "kid@example.com", domain.RoleStudent)
		parent := testfixture.User(t, f.store.Users(), "dad@example.com", domain.RoleParent)

		_, err := f.service.Create(ctx, student, nil)
		require.NoError(t, err)

		_, err = f.service.Accept(ctx, parent, "  abcd2345 ")
		assert.NoError(t, err)
	})

	t.Run("SecondAcceptIsAlreadyConsumed", func(t *testing.T) {
		f := newFixture(nil)
		student := testfixture.User(t, f.store.Users(), "kid@example.com", domain.RoleStudent)
		parent := testfixture.User(t, f.store.Users(), "dad@example.com", domain.RoleParent)
		other := testfixture.User(t, f.store.Users(), "aunt@example.com", domain.RoleParent)

		inv, err := f.service.Create(ctx, student, nil)
		require.NoError(t, err)

		_, err = f.service.Accept(ctx, parent, inv.Code)
		require.NoError(t, err)

		_, err = f.service.Accept(ctx, parent, inv.Code)
		assert.ErrorIs(t, err, domain.ErrAlreadyConsumed)

		_, err = f.service.Accept(ctx, other, inv.Code)
		assert.ErrorIs(t, err, domain.ErrAlreadyConsumed)

		linked, err := f.links.IsLinked(ctx, other.UserID, student.UserID)
		require.NoError(t, err)
		assert.False(t, linked)
	})

	t.Run("StudentCannotAccept", func(t *testing.T) {
		f := newFixture(nil)
		student := testfixture.User(t, f.store.Users(), "kid@example.com", domain.RoleStudent)
		sibling := testfixture.User(t, f.store.Users(), "sis@example.com", domain.RoleStudent)

		inv, err := f.service.Create(ctx, student, nil)
		require.NoError(t, err)

		_, err = f.service.Accept(ctx, sibling, inv.Code)
		assert.ErrorIs(t, err, domain.ErrRoleMismatch)

		stored, err := f.store.Invites().GetByCode(ctx, inv.Code)
		require.NoError(t, err)
		assert.False(t, stored.Consumed)
	})

	t.Run("FailedLinkLeavesInviteUnconsumed", func(t *testing.T) {
		f := newFixture(nil)
		parent := testfixture.User(t, f.store.Users(), "dad@example.com", domain.RoleParent)
		notStudent := testfixture.User(t, f.store.Users(), "teacher@example.com", domain.RoleParent)

		_, err := f.store.Invites().Create(ctx, &invite.Invite{Code: "WXYZ2345", StudentID: notStudent.UserID})
		require.NoError(t, err)

		_, err = f.service.Accept(ctx, parent, "WXYZ2345")
		assert.ErrorIs(t, err, domain.ErrRoleMismatch)

		stored, err := f.store.Invites().GetByCode(ctx, "WXYZ2345")
		require.NoError(t, err)
		assert.False(t, stored.Consumed)
		assert.Nil(t, stored.ConsumedBy)
	})
}

func TestInviteService_ConcurrentAcceptHasOneWinner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(nil)
	student := testfixture.User(t, f.store.Users(), "kid@example.com", domain.RoleStudent)

	inv, err := f.service.Create(ctx, student, nil)
	require.NoError(t, err)

	const parents = 10
	callers := make([]domain.Identity, parents)
	for i := range callers {
		callers[i] = testfixture.User(t, f.store.Users(), "parent"+string(rune('a'+i))+"@example.com", domain.RoleParent)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		winners  int
		consumed int
	)
	for _, caller := range callers {
		wg.Add(1)
		go func(caller domain.Identity) {
			defer wg.Done()
			_, err := f.service.Accept(ctx, caller, inv.Code)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners++
			case errors.Is(err, domain.ErrAlreadyConsumed):
				consumed++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(caller)
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
	assert.Equal(t, parents-1, consumed)

	parentsOf, err := f.links.ListParents(ctx, student.UserID)
	require.NoError(t, err)
	assert.Len(t, parentsOf, 1)
}

func TestInviteService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("ParentCannotCreate", func(t *testing.T) {
		f := newFixture(nil)
		parent := testfixture.User(t, f.store.Users(), "dad@example.com", domain.RoleParent)

		_, err := f.service.Create(ctx, parent, nil)
		assert.ErrorIs(t, err, domain.ErrRoleMismatch)
	})

	t.Run("InvalidEmail", func(t *testing.T) {
		f := newFixture(nil)
		student := testfixture.User(t, f.store.Users(), "kid@example.com", domain.RoleStudent)
		email := "not-an-email"

		_, err := f.service.Create(ctx, student, &email)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("EmailIsNormalizedAndPublished", func(t *testing.T) {
		f := newFixture(nil)
		student := testfixture.User(t, f.store.Users(), "kid@example.com", domain.RoleStudent)
		email := "  Grandma@Example.com "

		inv, err := f.service.Create(ctx, student, &email)
		require.NoError(t, err)
		require.NotNil(t, inv.ParentEmail)
		assert.Equal(t, "grandma@example.com", *inv.ParentEmail)

		events := f.publisher.Events()
		require.Len(t, events, 1)
		assert.Equal(t, "grandma@example.com", events[0].ParentEmail)
		assert.Equal(t, inv.Code, events[0].Code)
	})

	t.Run("AlreadyLinkedParent", func(t *testing.T) {
		f := newFixture(nil)
		student := testfixture.User(t, f.store.Users(), "kid@example.com", domain.RoleStudent)
		parent := testfixture.User(t, f.store.Users(), "mom@example.com", domain.RoleParent)

		_, _, err := f.links.AddEdge(ctx, parent.UserID, student.UserID)
		require.NoError(t, err)

		email := "MOM@example.com"
		_, err = f.service.Create(ctx, student, &email)
		assert.ErrorIs(t, err, domain.ErrAlreadyLinked)
	})

	t.Run("RetriesDuplicateCodes", func(t *testing.T) {
		f := newFixture(&fixedCodes{codes: []string{"AAAA2222", "AAAA2222", "BBBB3333"}})
		student := testfixture.User(t, f.store.Users(), "kid@example.com", domain.RoleStudent)

		first, err := f.service.Create(ctx, student, nil)
		require.NoError(t, err)
		assert.Equal(t, "AAAA2222", first.Code)

		second, err := f.service.Create(ctx, student, nil)
		require.NoError(t, err)
		assert.Equal(t, "BBBB3333", second.Code)
	})

	t.Run("GivesUpAfterMaxAttempts", func(t *testing.T) {
		f := newFixture(&fixedCodes{codes: []string{"SAME2222"}})
		student := testfixture.User(t, f.store.Users(), "kid@example.com", domain.RoleStudent)

		_, err := f.service.Create(ctx, student, nil)
		require.NoError(t, err)

		_, err = f.service.Create(ctx, student, nil)
		require.Error(t, err)
		assert.False(t, domain.IsClientError(err))
	})

	t.Run("ListNewestFirst", func(t *testing.T) {
		f := newFixture(nil)
		student := testfixture.User(t, f.store.Users(), "kid@example.com", domain.RoleStudent)

		first, err := f.service.Create(ctx, student, nil)
		require.NoError(t, err)
		second, err := f.service.Create(ctx, student, nil)
		require.NoError(t, err)

		list, err := f.service.ListForStudent(ctx, student)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, second.Code, list[0].Code)
		assert.Equal(t, first.Code, list[1].Code)
	})
}
