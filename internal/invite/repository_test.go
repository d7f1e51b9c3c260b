package invite_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tracker-service/common/logger"
	commonmetrics "tracker-service/common/metrics"
	"tracker-service/internal/db"
	"tracker-service/internal/domain"
	"tracker-service/internal/invite"
	"tracker-service/internal/link"
	"tracker-service/internal/user"
	"tracker-service/testing/testdb"
	"tracker-service/testing/testfixture"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInviteRepository_Postgres(t *testing.T) {
	pgContainer := testdb.SetupSharedPostgres(t)
	defer pgContainer.Cleanup(t)

	pgContainer.RunMigrations(t, (*user.User)(nil), (*link.Edge)(nil), (*invite.Invite)(nil))

	ctx := context.Background()
	mockMetrics := commonmetrics.NewMock()
	repo := invite.NewRepository(pgContainer.DB, mockMetrics)

	t.Run("DuplicateCode", func(t *testing.T) {
		testdb.CleanupTables(t, pgContainer.DB, "invites")

		_, err := repo.Create(ctx, &invite.Invite{Code: "DUPE2345", StudentID: 1})
		require.NoError(t, err)

		_, err = repo.Create(ctx, &invite.Invite{Code: "DUPE2345", StudentID: 2})
		assert.ErrorIs(t, err, invite.ErrDuplicateCode)
	})

	t.Run("ConsumeOnce", func(t *testing.T) {
		testdb.CleanupTables(t, pgContainer.DB, "invites")

		_, err := repo.Create(ctx, &invite.Invite{Code: "ONCE2345", StudentID: 1})
		require.NoError(t, err)

		const parents = 8
		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			winners  int
			consumed int
		)
		for i := 0; i < parents; i++ {
			wg.Add(1)
			go func(parentID int64) {
				defer wg.Done()
				_, err := repo.Consume(ctx, "ONCE2345", parentID, time.Now().UTC())
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
			}(int64(100 + i))
		}
		wg.Wait()

		assert.Equal(t, 1, winners)
		assert.Equal(t, parents-1, consumed)

		_, err = repo.Consume(ctx, "MISS2345", 1, time.Now().UTC())
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("AcceptRollsBackWhenLinkFails", func(t *testing.T) {
		testdb.CleanupTables(t, pgContainer.DB, "invites", "link_edges", "users")

		users := user.NewRepository(pgContainer.DB, mockMetrics)
		links := link.NewService(link.NewRepository(pgContainer.DB, mockMetrics), users)
		service := invite.NewService(
			repo,
			links,
			users,
			db.NewTxRunner(pgContainer.DB, mockMetrics),
			invite.NewCodeGenerator(10),
			&testfixture.Publisher{},
			invite.Config{MaxAttempts: 3},
			logger.Discard(),
		)

		parent := testfixture.User(t, users, "dad@example.com", domain.RoleParent)
		other := testfixture.User(t, users, "uncle@example.com", domain.RoleParent)

		_, err := repo.Create(ctx, &invite.Invite{Code: "ROLL2345", StudentID: other.UserID})
		require.NoError(t, err)

		_, err = service.Accept(ctx, parent, "ROLL2345")
		assert.ErrorIs(t, err, domain.ErrRoleMismatch)

		stored, err := repo.GetByCode(ctx, "ROLL2345")
		require.NoError(t, err)
		assert.False(t, stored.Consumed)
	})
}
