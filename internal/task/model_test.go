package task_test

import (
	"encoding/json"
	"testing"

	"tracker-service/internal/task"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskJSON_ExactlyOneCompletionField(t *testing.T) {
	projectID := int64(3)

	standalone, err := json.Marshal(task.Task{ID: 1, OwnerID: 2, Title: "Essay", Completion: task.Binary(true)})
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(standalone, &fields))
	assert.Equal(t, true, fields["completed"])
	assert.NotContains(t, fields, "status")
	assert.EqualValues(t, 2, fields["studentId"])

	staged, err := json.Marshal(task.Task{ID: 2, OwnerID: 2, ProjectID: &projectID, Completion: task.Staged(task.StatusInProgress)})
	require.NoError(t, err)

	fields = nil
	require.NoError(t, json.Unmarshal(staged, &fields))
	assert.Equal(t, "in_progress", fields["status"])
	assert.NotContains(t, fields, "completed")
}

func TestTaskJSON_RejectsBothFields(t *testing.T) {
	var out task.Task
	err := json.Unmarshal([]byte(`{"id":1,"completed":true,"status":"done"}`), &out)
	assert.Error(t, err)
}

func TestTaskJSON_DecodesCompletion(t *testing.T) {
	var out task.Task
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"status":"done","projectId":4}`), &out))
	assert.Equal(t, task.Staged(task.StatusDone), out.Completion)

	require.NoError(t, json.Unmarshal([]byte(`{"id":2,"completed":false}`), &out))
	assert.Equal(t, task.Binary(false), out.Completion)
}
