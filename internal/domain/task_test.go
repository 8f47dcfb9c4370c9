package domain

import (
	"encoding/json"
	"errors"
	"testing"

	apperrors "microtask/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTask(t *testing.T) {
	tests := []struct {
		name          string
		limit         int
		expectedLimit *int
	}{
		{name: "positive limit is kept", limit: 5, expectedLimit: intPtr(5)},
		{name: "zero limit is unlimited", limit: 0, expectedLimit: nil},
		{name: "negative limit is unlimited", limit: -3, expectedLimit: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := NewTask("ab12cd34", "Follow channel", "Subscribe and screenshot", tt.limit)

			assert.Equal(t, tt.expectedLimit, task.Limit)
			assert.Equal(t, 0, task.TakenBy.Len())
			assert.Equal(t, 0, task.CompletedBy.Len())
			assert.True(t, task.IsValid())
		})
	}
}

func TestTask_Claim(t *testing.T) {
	tests := []struct {
		name          string
		limit         int
		takenBy       []string
		completedBy   []string
		userID        string
		expectedError *apperrors.AppError
	}{
		{name: "claims unlimited task", userID: "u1"},
		{name: "claims within limit", limit: 2, takenBy: []string{"u2"}, userID: "u1"},
		{name: "rejects repeated claim", takenBy: []string{"u1"}, userID: "u1", expectedError: apperrors.ErrAlreadyTaken},
		{name: "checks already taken before limit", limit: 1, takenBy: []string{"u1"}, userID: "u1", expectedError: apperrors.ErrAlreadyTaken},
		{name: "rejects when limit reached", limit: 1, takenBy: []string{"u2"}, userID: "u1", expectedError: apperrors.ErrLimitReached},
		{name: "limit ignores completed users", limit: 1, completedBy: []string{"u2", "u3"}, userID: "u1"},
		{name: "completed user may claim again", completedBy: []string{"u1"}, userID: "u1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := NewTask("t1", "Title", "Do it", tt.limit)
			task.TakenBy = NewUserSet(tt.takenBy...)
			task.CompletedBy = NewUserSet(tt.completedBy...)
			before := task.TakenBy.Len()

			err := task.Claim(tt.userID)

			if tt.expectedError != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.expectedError))
				assert.Equal(t, before, task.TakenBy.Len())
				return
			}
			require.NoError(t, err)
			assert.True(t, task.TakenBy.Has(tt.userID))
			assert.Equal(t, Taken, task.StateOf(tt.userID))
		})
	}
}

func TestTask_Complete(t *testing.T) {
	task := NewTask("t1", "Title", "Do it", 0)

	err := task.Complete("u1")
	assert.True(t, errors.Is(err, apperrors.ErrNotTaken))

	require.NoError(t, task.Claim("u1"))
	require.NoError(t, task.Complete("u1"))

	assert.False(t, task.TakenBy.Has("u1"))
	assert.True(t, task.CompletedBy.Has("u1"))
	assert.Equal(t, Completed, task.StateOf("u1"))
	assert.False(t, task.ClaimableBy("u1"))

	err = task.Complete("u1")
	assert.True(t, errors.Is(err, apperrors.ErrNotTaken))
}

func TestTask_StateOf(t *testing.T) {
	task := NewTask("t1", "Title", "Do it", 0)
	assert.Equal(t, NotInvolved, task.StateOf("u1"))
	assert.True(t, task.ClaimableBy("u1"))

	require.NoError(t, task.Claim("u1"))
	require.NoError(t, task.Complete("u1"))
	require.NoError(t, task.Claim("u1"))
	assert.Equal(t, Taken, task.StateOf("u1"))
	assert.Equal(t, "taken", task.StateOf("u1").String())
}

func TestTask_Clone(t *testing.T) {
	task := NewTask("t1", "Title", "Do it", 3)
	require.NoError(t, task.Claim("u1"))

	clone := task.Clone()
	require.NoError(t, clone.Claim("u2"))
	*clone.Limit = 10

	assert.Equal(t, 1, task.TakenBy.Len())
	assert.Equal(t, 3, task.LimitValue())
}

func TestTaskList_Order(t *testing.T) {
	list := NewTaskList()
	for _, id := range []string{"zz", "aa", "mm"} {
		require.NoError(t, list.Add(NewTask(id, "Title "+id, "", 0)))
	}

	var ids []string
	for _, task := range list.All() {
		ids = append(ids, task.ID)
	}
	assert.Equal(t, []string{"zz", "aa", "mm"}, ids)
	assert.Equal(t, 3, list.Len())

	err := list.Add(NewTask("aa", "dup", "", 0))
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeInvalidInput))
}

func TestTaskList_Clone(t *testing.T) {
	list := NewTaskList()
	require.NoError(t, list.Add(NewTask("t1", "Title", "", 0)))

	clone := list.Clone()
	task, ok := clone.Get("t1")
	require.True(t, ok)
	require.NoError(t, task.Claim("u1"))

	original, _ := list.Get("t1")
	assert.Equal(t, 0, original.TakenBy.Len())
}

func TestUserSet_JSON(t *testing.T) {
	var set UserSet
	require.NoError(t, json.Unmarshal([]byte(`["b","a","b"]`), &set))
	assert.Equal(t, 2, set.Len())

	data, err := json.Marshal(set)
	require.NoError(t, err)
	assert.JSONEq(t, `["a","b"]`, string(data))

	var empty UserSet
	require.NoError(t, json.Unmarshal([]byte(`null`), &empty))
	assert.Equal(t, 0, empty.Len())
	assert.True(t, empty.Add("x"))
	assert.False(t, empty.Add("x"))
}

func intPtr(v int) *int {
	return &v
}
