package stats

import "tracker-service/internal/task"

// Stats is derived on every read and never stored.
// CompletedTasks + PendingTasks == TotalTasks.
type Stats struct {
	TotalTasks     int `json:"total_tasks"`
	CompletedTasks int `json:"completed_tasks"`
	PendingTasks   int `json:"pending_tasks"`
	TotalProjects  int `json:"total_projects"`
}

// Reduce folds one student's tasks, standalone and project, into Stats.
func Reduce(tasks []task.Task, projectCount int) Stats {
	s := Stats{
		TotalTasks:    len(tasks),
		TotalProjects: projectCount,
	}
	for i := range tasks {
		if tasks[i].Completion.IsDone() {
			s.CompletedTasks++
		}
	}
	s.PendingTasks = s.TotalTasks - s.CompletedTasks
	return s
}
