package stats_test

import (
	"testing"

	"tracker-service/internal/stats"
	"tracker-service/internal/task"

	"github.com/stretchr/testify/assert"
)

func TestReduce(t *testing.T) {
	tasks := []task.Task{
		{Completion: task.Binary(true)},
		{Completion: task.Binary(false)},
		{Completion: task.Staged(task.StatusTodo)},
		{Completion: task.Staged(task.StatusInProgress)},
		{Completion: task.Staged(task.StatusDone)},
	}

	got := stats.Reduce(tasks, 2)

	assert.Equal(t, stats.Stats{TotalTasks: 5, CompletedTasks: 2, PendingTasks: 3, TotalProjects: 2}, got)
	assert.Equal(t, got.TotalTasks, got.CompletedTasks+got.PendingTasks)
}

func TestReduce_Empty(t *testing.T) {
	assert.Equal(t, stats.Stats{}, stats.Reduce(nil, 0))
}
