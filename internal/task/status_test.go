package task_test

import (
	"testing"

	"tracker-service/internal/domain"
	"tracker-service/internal/task"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompletion_Move(t *testing.T) {
	tests := []struct {
		name    string
		from    task.Status
		to      task.Status
		wantErr error
	}{
		{"TodoToInProgress", task.StatusTodo, task.StatusInProgress, nil},
		{"InProgressToDone", task.StatusInProgress, task.StatusDone, nil},
		{"DoneToInProgress", task.StatusDone, task.StatusInProgress, nil},
		{"InProgressToTodo", task.StatusInProgress, task.StatusTodo, nil},
		{"SameStatus", task.StatusInProgress, task.StatusInProgress, nil},
		{"TodoToDoneSkips", task.StatusTodo, task.StatusDone, domain.ErrInvalidTransition},
		{"DoneToTodoSkips", task.StatusDone, task.StatusTodo, domain.ErrInvalidTransition},
		{"UnknownTarget", task.StatusTodo, task.Status("blocked"), domain.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := task.Staged(tt.from).Move(tt.to)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, task.Staged(tt.from), next)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, task.Staged(tt.to), next)
		})
	}
}

func TestCompletion_BinaryHasNoStatus(t *testing.T) {
	c := task.Binary(false)

	_, err := c.Move(task.StatusInProgress)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, staged := c.Status()
	assert.False(t, staged)

	done, err := c.SetCompleted(true)
	require.NoError(t, err)
	assert.True(t, done.IsDone())
	assert.False(t, done.IsStaged())
}

func TestCompletion_StagedRejectsCompletedFlag(t *testing.T) {
	_, err := task.Staged(task.StatusTodo).SetCompleted(true)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestCompletion_IsDone(t *testing.T) {
	assert.False(t, task.Binary(false).IsDone())
	assert.True(t, task.Binary(true).IsDone())
	assert.False(t, task.Staged(task.StatusInProgress).IsDone())
	assert.True(t, task.Staged(task.StatusDone).IsDone())
	assert.Equal(t, task.Binary(false), task.Completion{})
}

func TestParsePriorityAndStatus(t *testing.T) {
	p, err := task.ParsePriority("")
	require.NoError(t, err)
	assert.Equal(t, task.PriorityMedium, p)

	_, err = task.ParsePriority("urgent")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	s, err := task.ParseStatus("")
	require.NoError(t, err)
	assert.Equal(t, task.StatusTodo, s)

	_, err = task.ParseStatus("archived")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
