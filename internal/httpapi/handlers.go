package httpapi

import (
	"encoding/json"
	"net/http"

	"microtask/internal/errors"

	"github.com/go-chi/chi/v5"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type listResponse struct {
	Items any `json:"items"`
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Bot is running"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.ShouldLogError(err) {
		a.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, statusFor(err), errorResponse{
		Error: errors.GetUserMessage(err),
		Code:  errors.GetErrorCode(err),
	})
}

func statusFor(err error) int {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch appErr.Type {
	case errors.ErrorTypeValidation, errors.ErrorTypeInvalidInput:
		return http.StatusBadRequest
	case errors.ErrorTypeNotFound:
		return http.StatusNotFound
	case errors.ErrorTypePermission:
		return http.StatusForbidden
	case errors.ErrorTypeRuleViolation:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (a *App) balanceHandler(w http.ResponseWriter, r *http.Request) {
	summary, err := a.API.GetAccountSummary(r.Context(), chi.URLParam(r, "user_id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// userTasksHandler lists the tasks the user can still claim. With
// ?all=true every task is listed with the user's claim state.
func (a *App) userTasksHandler(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")

	if r.URL.Query().Get("all") == "true" {
		summaries, err := a.API.ListTaskSummaries(r.Context(), userID)
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, listResponse{Items: summaries})
		return
	}

	tasks, err := a.API.ListClaimable(r.Context(), userID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	items := make([]taskResponse, 0, len(tasks))
	for _, task := range tasks {
		items = append(items, newTaskResponse(task))
	}
	writeJSON(w, http.StatusOK, listResponse{Items: items})
}

func (a *App) listTasksHandler(w http.ResponseWriter, r *http.Request) {
	summaries, err := a.API.ListTaskSummaries(r.Context(), "")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Items: summaries})
}

func (a *App) getTaskHandler(w http.ResponseWriter, r *http.Request) {
	task, err := a.API.GetTask(r.Context(), chi.URLParam(r, "task_id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTaskResponse(task))
}
