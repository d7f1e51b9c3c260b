package task_test

import (
	"fmt"
	"net/http"
	"testing"

	"tracker-service/common/httputil"
	"tracker-service/common/logger"
	"tracker-service/internal/metrics"
	"tracker-service/internal/task"
	"tracker-service/testing/testfixture"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskHandler(t *testing.T) {
	f := newFixture(t)

	router := chi.NewRouter()
	task.NewHandler(f.service, logger.Discard(), metrics.NewMock()).RegisterRoutes(router)

	var taskID, projectID, projectTaskID int64

	t.Run("CreateTask", func(t *testing.T) {
		w := testfixture.Do(t, router, f.student, http.MethodPost, "/tasks", task.CreateTaskRequest{
			Title:     "Worksheet",
			SubjectID: f.subjectID,
			Priority:  "high",
		})
		require.Equal(t, http.StatusCreated, w.Code)

		var body map[string]interface{}
		testfixture.Decode(t, w, &body)
		assert.Equal(t, false, body["completed"])
		assert.Equal(t, "high", body["priority"])
		taskID = int64(body["id"].(float64))
	})

	t.Run("CreateTask_InvalidBody", func(t *testing.T) {
		w := testfixture.Do(t, router, f.student, http.MethodPost, "/tasks", "not json")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("CreateTask_ByParent", func(t *testing.T) {
		w := testfixture.Do(t, router, f.parent, http.MethodPost, "/tasks", task.CreateTaskRequest{Title: "x", SubjectID: f.subjectID})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("UpdateTask_Complete", func(t *testing.T) {
		w := testfixture.Do(t, router, f.student, http.MethodPut, fmt.Sprintf("/tasks/%d", taskID), map[string]bool{"completed": true})
		require.Equal(t, http.StatusOK, w.Code)

		var body map[string]interface{}
		testfixture.Decode(t, w, &body)
		assert.Equal(t, true, body["completed"])
		assert.NotNil(t, body["completedAt"])
	})

	t.Run("UpdateTask_BadID", func(t *testing.T) {
		w := testfixture.Do(t, router, f.student, http.MethodPut, "/tasks/abc", map[string]bool{"completed": true})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("UpdateTask_Missing", func(t *testing.T) {
		w := testfixture.Do(t, router, f.student, http.MethodPut, "/tasks/9999", map[string]bool{"completed": true})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("CreateProjectAndTask", func(t *testing.T) {
		w := testfixture.Do(t, router, f.student, http.MethodPost, "/projects", task.CreateProjectRequest{Name: "Volcano", SubjectID: f.subjectID})
		require.Equal(t, http.StatusCreated, w.Code)

		var p task.Project
		testfixture.Decode(t, w, &p)
		projectID = p.ID

		w = testfixture.Do(t, router, f.student, http.MethodPost, fmt.Sprintf("/projects/%d/tasks", projectID), task.CreateProjectTaskRequest{Title: "Build model"})
		require.Equal(t, http.StatusCreated, w.Code)

		var body map[string]interface{}
		testfixture.Decode(t, w, &body)
		assert.Equal(t, "todo", body["status"])
		assert.NotContains(t, body, "completed")
		projectTaskID = int64(body["id"].(float64))
	})

	t.Run("UpdateProjectTask_SkipIsUnprocessable", func(t *testing.T) {
		w := testfixture.Do(t, router, f.student, http.MethodPut,
			fmt.Sprintf("/projects/%d/tasks/%d", projectID, projectTaskID), map[string]string{"status": "done"})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		var resp httputil.ErrorResponse
		testfixture.Decode(t, w, &resp)
		assert.Equal(t, "invalid_transition", resp.Code)
	})

	t.Run("UpdateProjectTask_CompletedFlagIsUnprocessable", func(t *testing.T) {
		w := testfixture.Do(t, router, f.student, http.MethodPut, fmt.Sprintf("/tasks/%d", projectTaskID), map[string]bool{"completed": true})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("UpdateTask_ProjectTaskIsNotFound", func(t *testing.T) {
		w := testfixture.Do(t, router, f.student, http.MethodPut, fmt.Sprintf("/tasks/%d", projectTaskID), map[string]string{"title": "Moved"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("UpdateProjectTask_BlankTitle", func(t *testing.T) {
		w := testfixture.Do(t, router, f.student, http.MethodPut,
			fmt.Sprintf("/projects/%d/tasks/%d", projectID, projectTaskID), map[string]string{"title": "   "})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("UpdateProjectTask_Step", func(t *testing.T) {
		w := testfixture.Do(t, router, f.student, http.MethodPut,
			fmt.Sprintf("/projects/%d/tasks/%d", projectID, projectTaskID), map[string]string{"status": "in_progress"})
		require.Equal(t, http.StatusOK, w.Code)

		var body map[string]interface{}
		testfixture.Decode(t, w, &body)
		assert.Equal(t, "in_progress", body["status"])
	})

	t.Run("ListStudentTasks_UnlinkedParent", func(t *testing.T) {
		w := testfixture.Do(t, router, f.parent, http.MethodGet, fmt.Sprintf("/students/%d/tasks", f.student.UserID), nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("ListStudentTasks_LinkedParent", func(t *testing.T) {
		f.link(t)

		w := testfixture.Do(t, router, f.parent, http.MethodGet, fmt.Sprintf("/students/%d/tasks", f.student.UserID), nil)
		require.Equal(t, http.StatusOK, w.Code)

		var tasks []task.Task
		testfixture.Decode(t, w, &tasks)
		assert.Len(t, tasks, 2)
	})

	t.Run("DeleteTask", func(t *testing.T) {
		w := testfixture.Do(t, router, f.student, http.MethodDelete, fmt.Sprintf("/tasks/%d", taskID), nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}
