package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskforge/gamification/internal/domain/xp"
)

func TestMemoryNotifier_Captures(t *testing.T) {
	n := NewMemoryNotifier()
	ctx := context.Background()

	require.NoError(t, n.Emit(ctx, "u1", xp.EventXPGained, xp.XPGainedEvent{XP: 10}))
	require.NoError(t, n.Emit(ctx, "u1", xp.EventLevelUp, xp.LevelUpEvent{NewLevel: 2}))
	require.NoError(t, n.Emit(ctx, "u2", xp.EventXPGained, xp.XPGainedEvent{XP: 5}))

	assert.Len(t, n.Emissions(), 3)

	gained := n.ByEvent(xp.EventXPGained)
	require.Len(t, gained, 2)
	assert.Equal(t, "u1", gained[0].UserID)
	assert.Equal(t, "u2", gained[1].UserID)
}

func TestMemoryNotifier_FailWith(t *testing.T) {
	n := NewMemoryNotifier()
	n.FailWith = errors.New("down")

	err := n.Emit(context.Background(), "u1", xp.EventXPGained, nil)
	assert.Error(t, err)
	assert.Empty(t, n.Emissions())
}

func TestEnvelope_WireFormat(t *testing.T) {
	payload, err := json.Marshal(xp.XPGainedEvent{XP: 10, NewTotal: 100, NewLevel: 1, Source: "task"})
	require.NoError(t, err)

	data, err := json.Marshal(Envelope{
		Event:      xp.EventXPGained,
		Payload:    payload,
		OccurredAt: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "event")
	assert.Contains(t, decoded, "payload")
	assert.Contains(t, decoded, "occurredAt")

	var inner xp.XPGainedEvent
	require.NoError(t, json.Unmarshal(decoded["payload"], &inner))
	assert.Equal(t, 10, inner.XP)
	assert.Equal(t, 100, inner.NewTotal)
}

func TestTaskCompletedEvent_Parsing(t *testing.T) {
	raw := `{
		"taskId": "t-42",
		"userId": "u1",
		"priority": "URGENT",
		"descriptionLength": 180,
		"trackedMinutes": 95,
		"attachmentCount": 1,
		"dueDate": "2026-03-10T00:00:00Z",
		"completedAt": "2026-03-09T18:00:00Z"
	}`

	var event TaskCompletedEvent
	require.NoError(t, json.Unmarshal([]byte(raw), &event))

	assert.Equal(t, "t-42", event.TaskID)
	assert.Equal(t, "u1", event.UserID)
	assert.Equal(t, "URGENT", event.Priority)
	assert.Equal(t, 180, event.DescriptionLength)
	require.NotNil(t, event.DueDate)
	assert.Equal(t, 2026, event.DueDate.Year())
}

func TestTaskCompletedEvent_OptionalDueDate(t *testing.T) {
	raw := `{"taskId": "t-1", "userId": "u1", "priority": "LOW", "completedAt": "2026-03-09T18:00:00Z"}`

	var event TaskCompletedEvent
	require.NoError(t, json.Unmarshal([]byte(raw), &event))
	assert.Nil(t, event.DueDate)
}
