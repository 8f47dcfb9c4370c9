package api

import (
	"context"
	"testing"

	"microtask/internal/domain"
	"microtask/internal/errors"
	"microtask/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupConversation(t *testing.T) (*Conversation, API, *session.MemoryStore) {
	t.Helper()
	a, _ := setupTestAPI(t)
	sessions := session.NewMemoryStore()
	return NewConversation(a, sessions, nil), a, sessions
}

func modeOf(t *testing.T, sessions session.Store, userID string) session.Mode {
	t.Helper()
	state, err := sessions.Get(context.Background(), userID)
	require.NoError(t, err)
	return state.Mode
}

func TestConversation_Start(t *testing.T) {
	conv, a, _ := setupConversation(t)
	ctx := context.Background()

	reply, err := conv.Start(ctx, "1001")
	require.NoError(t, err)
	assert.NotContains(t, reply.Actions, ActionAddTask)

	summary, err := a.GetAccountSummary(ctx, "1001")
	require.NoError(t, err)
	assert.Equal(t, int64(0), summary.Balance)

	reply, err = conv.Start(ctx, adminID)
	require.NoError(t, err)
	assert.Contains(t, reply.Actions, ActionAddTask)
}

func TestConversation_WithdrawalFlow(t *testing.T) {
	conv, a, sessions := setupConversation(t)
	ctx := context.Background()

	reply, err := conv.BeginWithdrawal(ctx, "1001")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "1000")
	assert.Equal(t, session.Idle, modeOf(t, sessions, "1001"))

	_, err = a.Credit(ctx, "1001", 1200)
	require.NoError(t, err)

	_, err = conv.BeginWithdrawal(ctx, "1001")
	require.NoError(t, err)
	assert.Equal(t, session.AwaitingWithdrawAmount, modeOf(t, sessions, "1001"))

	reply, err = conv.HandleText(ctx, "1001", " 1000 ")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "#1")
	assert.Equal(t, session.Idle, modeOf(t, sessions, "1001"))

	balance, err := a.GetBalance(ctx, "1001")
	require.NoError(t, err)
	assert.Equal(t, int64(200), balance)
}

func TestConversation_WithdrawalResetsAfterFailedAttempt(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		wantErr error
	}{
		{name: "should reset after non-numeric amount", amount: "lots", wantErr: errors.ErrInvalidAmount},
		{name: "should reset after amount below minimum", amount: "500", wantErr: errors.ErrBelowMinimum},
		{name: "should reset after amount above balance", amount: "1500", wantErr: errors.ErrInsufficientFunds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv, a, sessions := setupConversation(t)
			ctx := context.Background()
			_, err := a.Credit(ctx, "1001", 1200)
			require.NoError(t, err)
			_, err = conv.BeginWithdrawal(ctx, "1001")
			require.NoError(t, err)

			_, err = conv.HandleText(ctx, "1001", tt.amount)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, session.Idle, modeOf(t, sessions, "1001"))

			reply, err := conv.HandleText(ctx, "1001", "1000")
			require.NoError(t, err)
			assert.Empty(t, reply.Text)

			balance, err := a.GetBalance(ctx, "1001")
			require.NoError(t, err)
			assert.Equal(t, int64(1200), balance)
		})
	}
}

func TestConversation_TakeAndReport(t *testing.T) {
	conv, a, sessions := setupConversation(t)
	ctx := context.Background()

	task, err := a.CreateTask(ctx, "Subscribe", "Join the channel", 0)
	require.NoError(t, err)

	reply, err := conv.ShowTasks(ctx, "1001")
	require.NoError(t, err)
	require.Len(t, reply.Tasks, 1)

	reply, err = conv.TakeTask(ctx, "1001", task.ID)
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "Join the channel")

	state, err := sessions.Get(ctx, "1001")
	require.NoError(t, err)
	assert.Equal(t, task.ID, state.CurrentTask)

	reply, err = conv.ShowTasks(ctx, "1001")
	require.NoError(t, err)
	assert.Empty(t, reply.Tasks)

	_, err = conv.SubmitReport(ctx, "1001", domain.Report{Text: "done", Attachment: "file-1"})
	require.NoError(t, err)

	state, err = sessions.Get(ctx, "1001")
	require.NoError(t, err)
	assert.Empty(t, state.CurrentTask)

	stored, err := a.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.Completed, stored.StateOf("1001"))

	_, err = conv.SubmitReport(ctx, "1001", domain.Report{Text: "again"})
	assert.ErrorIs(t, err, errors.ErrNoActiveTask)
}

func TestConversation_TakeTaskErrors(t *testing.T) {
	conv, a, sessions := setupConversation(t)
	ctx := context.Background()

	_, err := conv.TakeTask(ctx, "1001", "missing1")
	assert.ErrorIs(t, err, errors.ErrTaskNotFound)

	task, err := a.CreateTask(ctx, "Review", "", 1)
	require.NoError(t, err)
	_, err = conv.TakeTask(ctx, "1001", task.ID)
	require.NoError(t, err)

	_, err = conv.TakeTask(ctx, "1001", task.ID)
	assert.ErrorIs(t, err, errors.ErrAlreadyTaken)

	_, err = conv.TakeTask(ctx, "1002", task.ID)
	assert.ErrorIs(t, err, errors.ErrLimitReached)

	state, err := sessions.Get(ctx, "1002")
	require.NoError(t, err)
	assert.Empty(t, state.CurrentTask)
}

func TestConversation_SubmitReportClearsStaleTask(t *testing.T) {
	conv, _, sessions := setupConversation(t)
	ctx := context.Background()
	require.NoError(t, sessions.Set(ctx, "1001", session.State{CurrentTask: "gone0001"}))

	_, err := conv.SubmitReport(ctx, "1001", domain.Report{})

	assert.ErrorIs(t, err, errors.ErrTaskNotFound)
	state, err := sessions.Get(ctx, "1001")
	require.NoError(t, err)
	assert.Empty(t, state.CurrentTask)
}

func TestConversation_AddTaskWizard(t *testing.T) {
	conv, a, sessions := setupConversation(t)
	ctx := context.Background()

	_, err := conv.BeginAddTask(ctx, adminID)
	require.NoError(t, err)
	assert.Equal(t, session.AddingTask, modeOf(t, sessions, adminID))

	_, err = conv.HandleText(ctx, adminID, "   ")
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeValidation))

	_, err = conv.HandleText(ctx, adminID, "Leave a review")
	require.NoError(t, err)
	_, err = conv.HandleText(ctx, adminID, "Write two sentences")
	require.NoError(t, err)

	_, err = conv.HandleText(ctx, adminID, "five")
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeValidation))
	state, err := sessions.Get(ctx, adminID)
	require.NoError(t, err)
	require.NotNil(t, state.Draft)
	assert.Equal(t, session.StepLimit, state.Draft.Step)

	reply, err := conv.HandleText(ctx, adminID, "2")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "Leave a review")
	assert.Equal(t, session.Idle, modeOf(t, sessions, adminID))

	tasks, err := a.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Leave a review", tasks[0].Title)
	assert.Equal(t, "Write two sentences", tasks[0].Instruction)
	assert.Equal(t, 2, tasks[0].LimitValue())
}

func TestConversation_AddTaskWizardUnlimited(t *testing.T) {
	conv, a, _ := setupConversation(t)
	ctx := context.Background()

	_, err := conv.BeginAddTask(ctx, adminID)
	require.NoError(t, err)
	for _, text := range []string{"Share", "Share the post", "0"} {
		_, err := conv.HandleText(ctx, adminID, text)
		require.NoError(t, err)
	}

	tasks, err := a.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Nil(t, tasks[0].Limit)
}

func TestConversation_BeginAddTaskRequiresAdmin(t *testing.T) {
	conv, _, sessions := setupConversation(t)

	_, err := conv.BeginAddTask(context.Background(), "1001")

	assert.True(t, errors.IsErrorType(err, errors.ErrorTypePermission))
	assert.Equal(t, session.Idle, modeOf(t, sessions, "1001"))
}

func TestConversation_Cancel(t *testing.T) {
	conv, _, sessions := setupConversation(t)
	ctx := context.Background()
	require.NoError(t, sessions.Set(ctx, adminID, session.State{}.StartDraft()))

	_, err := conv.Cancel(ctx, adminID)
	require.NoError(t, err)
	assert.Equal(t, session.Idle, modeOf(t, sessions, adminID))
}
