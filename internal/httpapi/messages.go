package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"microtask/internal/api"
	"microtask/internal/domain"
	"microtask/internal/errors"

	"github.com/go-chi/chi/v5"
)

// Message kinds a chat front end posts for a user
const (
	MessageStart    = "start"
	MessageTasks    = "tasks"
	MessageBalance  = "balance"
	MessageWithdraw = "withdraw"
	MessageAddTask  = "add_task"
	MessageTake     = "take"
	MessageReport   = "report"
	MessageText     = "text"
	MessageCancel   = "cancel"
)

type messageRequest struct {
	Kind       string `json:"kind"`
	Text       string `json:"text"`
	TaskID     string `json:"task_id"`
	Attachment string `json:"attachment"`
}

type replyResponse struct {
	Text    string         `json:"text"`
	Actions []api.Action   `json:"actions"`
	Tasks   []taskResponse `json:"tasks"`
}

func newReplyResponse(reply api.Reply) replyResponse {
	resp := replyResponse{
		Text:    reply.Text,
		Actions: reply.Actions,
		Tasks:   make([]taskResponse, 0, len(reply.Tasks)),
	}
	if resp.Actions == nil {
		resp.Actions = []api.Action{}
	}
	for _, task := range reply.Tasks {
		resp.Tasks = append(resp.Tasks, newTaskResponse(task))
	}
	return resp
}

// messageHandler feeds one inbound chat event into the user's
// conversation and returns what the front end should show
func (a *App) messageHandler(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, r, errors.NewInvalidInputError("body", "", "invalid JSON"))
		return
	}

	reply, err := a.converse(r.Context(), chi.URLParam(r, "user_id"), req)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newReplyResponse(reply))
}

func (a *App) converse(ctx context.Context, userID string, req messageRequest) (api.Reply, error) {
	c := a.Conversation
	switch req.Kind {
	case MessageStart:
		return c.Start(ctx, userID)
	case MessageTasks:
		return c.ShowTasks(ctx, userID)
	case MessageBalance:
		return c.ShowBalance(ctx, userID)
	case MessageWithdraw:
		return c.BeginWithdrawal(ctx, userID)
	case MessageAddTask:
		return c.BeginAddTask(ctx, userID)
	case MessageTake:
		return c.TakeTask(ctx, userID, req.TaskID)
	case MessageReport:
		return c.SubmitReport(ctx, userID, domain.Report{Text: req.Text, Attachment: req.Attachment})
	case MessageText:
		return c.HandleText(ctx, userID, req.Text)
	case MessageCancel:
		return c.Cancel(ctx, userID)
	default:
		return api.Reply{}, errors.NewInvalidInputError("kind", req.Kind, "unknown message kind")
	}
}
