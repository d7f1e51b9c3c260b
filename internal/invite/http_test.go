package invite_test

import (
	"net/http"
	"testing"

	"tracker-service/common/httputil"
	"tracker-service/common/logger"
	"tracker-service/internal/domain"
	"tracker-service/internal/invite"
	"tracker-service/internal/metrics"
	"tracker-service/testing/testfixture"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInviteHandler(t *testing.T) {
	f := newFixture(nil)
	student := testfixture.User(t, f.store.Users(), "kid@example.com", domain.RoleStudent)
	parent := testfixture.User(t, f.store.Users(), "mom@example.com", domain.RoleParent)

	router := chi.NewRouter()
	invite.NewHandler(f.service, logger.Discard(), metrics.NewMock()).RegisterRoutes(router)

	var code string

	t.Run("Create_EmptyBody", func(t *testing.T) {
		w := testfixture.Do(t, router, student, http.MethodPost, "/invites", nil)
		require.Equal(t, http.StatusCreated, w.Code)

		var resp invite.CreateInviteResponse
		testfixture.Decode(t, w, &resp)
		assert.Equal(t, student.UserID, resp.StudentID)
		assert.Len(t, resp.Code, 10)
		code = resp.Code
	})

	t.Run("Create_ByParent", func(t *testing.T) {
		w := testfixture.Do(t, router, parent, http.MethodPost, "/invites", map[string]string{})
		assert.Equal(t, http.StatusForbidden, w.Code)

		var resp httputil.ErrorResponse
		testfixture.Decode(t, w, &resp)
		assert.Equal(t, "role_mismatch", resp.Code)
	})

	t.Run("Create_MalformedBody", func(t *testing.T) {
		w := testfixture.Do(t, router, student, http.MethodPost, "/invites", "{")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Accept_Success", func(t *testing.T) {
		w := testfixture.Do(t, router, parent, http.MethodPost, "/invites/accept", invite.AcceptInviteRequest{Code: code})
		require.Equal(t, http.StatusOK, w.Code)

		var resp invite.AcceptInviteResponse
		testfixture.Decode(t, w, &resp)
		assert.Equal(t, student.UserID, resp.StudentID)
	})

	t.Run("Accept_Again", func(t *testing.T) {
		w := testfixture.Do(t, router, parent, http.MethodPost, "/invites/accept", invite.AcceptInviteRequest{Code: code})
		assert.Equal(t, http.StatusConflict, w.Code)

		var resp httputil.ErrorResponse
		testfixture.Decode(t, w, &resp)
		assert.Equal(t, "already_consumed", resp.Code)
	})

	t.Run("Accept_Unknown", func(t *testing.T) {
		w := testfixture.Do(t, router, parent, http.MethodPost, "/invites/accept", invite.AcceptInviteRequest{Code: "ZZZZ9999"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("List", func(t *testing.T) {
		w := testfixture.Do(t, router, student, http.MethodGet, "/invites", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var list []invite.Invite
		testfixture.Decode(t, w, &list)
		require.Len(t, list, 1)
		assert.True(t, list[0].Consumed)
	})
}
