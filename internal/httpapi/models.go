package httpapi

import "microtask/internal/domain"

type taskResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Instruction string `json:"instruction"`
	Limit       *int   `json:"limit"`
	Taken       int    `json:"taken"`
	Completed   int    `json:"completed"`
}

func newTaskResponse(task *domain.Task) taskResponse {
	return taskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Instruction: task.Instruction,
		Limit:       task.Limit,
		Taken:       task.TakenBy.Len(),
		Completed:   task.CompletedBy.Len(),
	}
}
