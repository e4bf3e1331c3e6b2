package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taskforge/gamification/internal/application/command"
	"github.com/taskforge/gamification/internal/domain/xp"
	"github.com/taskforge/gamification/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// TASK COMPLETED CONSUMER
// The task service publishes an event when a task transitions to done. This
// consumer computes the XP award for the completed task and applies it.
// ══════════════════════════════════════════════════════════════════════════════

// ChannelTaskCompleted is the Redis channel the task service publishes to.
const ChannelTaskCompleted = "tasks:completed"

// TaskCompletedEvent is the payload published by the task service.
type TaskCompletedEvent struct {
	TaskID            string     `json:"taskId"`
	UserID            string     `json:"userId"`
	Priority          string     `json:"priority"`
	DescriptionLength int        `json:"descriptionLength"`
	TrackedMinutes    int        `json:"trackedMinutes"`
	AttachmentCount   int        `json:"attachmentCount"`
	DueDate           *time.Time `json:"dueDate,omitempty"`
	CompletedAt       time.Time  `json:"completedAt"`
}

// TaskCompletedConsumer subscribes to task completion events and awards XP.
type TaskCompletedConsumer struct {
	client *redis.Client
	awards *command.AwardXPHandler
	log    *logger.Logger

	mu      sync.Mutex
	pubsub  *redis.PubSub
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewTaskCompletedConsumer creates a consumer bound to the given client.
func NewTaskCompletedConsumer(client *redis.Client, awards *command.AwardXPHandler, log *logger.Logger) *TaskCompletedConsumer {
	if log == nil {
		log = logger.Default()
	}
	return &TaskCompletedConsumer{
		client: client,
		awards: awards,
		log:    log.With(logger.Component("task_completed_consumer")),
	}
}

// Start subscribes and begins processing events in the background.
func (c *TaskCompletedConsumer) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return fmt.Errorf("consumer already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.pubsub = c.client.Subscribe(runCtx, ChannelTaskCompleted)

	// Force the subscription to be established before returning.
	if _, err := c.pubsub.Receive(runCtx); err != nil {
		cancel()
		_ = c.pubsub.Close()
		return fmt.Errorf("failed to subscribe to %s: %w", ChannelTaskCompleted, err)
	}

	c.running = true
	c.cancel = cancel

	c.wg.Add(1)
	go c.loop(runCtx, c.pubsub.Channel())

	c.log.Info("consumer started", logger.String("channel", ChannelTaskCompleted))
	return nil
}

// Stop unsubscribes and waits for in-flight processing to finish.
func (c *TaskCompletedConsumer) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	c.cancel()
	_ = c.pubsub.Close()
	c.mu.Unlock()

	c.wg.Wait()
	c.log.Info("consumer stopped")
}

func (c *TaskCompletedConsumer) loop(ctx context.Context, messages <-chan *redis.Message) {
	defer c.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			c.handleMessage(ctx, msg.Payload)
		}
	}
}

// handleMessage processes one task completion. A malformed or failing event
// is logged and dropped; the channel has no redelivery, and the retroactive
// recalculation can repair any misses.
func (c *TaskCompletedConsumer) handleMessage(ctx context.Context, payload string) {
	var event TaskCompletedEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		c.log.Error("malformed task completion event", logger.Err(err))
		return
	}

	input := xp.TaskXPInput{
		Priority:          xp.Priority(event.Priority),
		DescriptionLength: event.DescriptionLength,
		TrackedMinutes:    event.TrackedMinutes,
		AttachmentCount:   event.AttachmentCount,
		CompletedAt:       event.CompletedAt,
	}
	if event.DueDate != nil {
		input.DueDate = *event.DueDate
	}

	breakdown := xp.ComputeTaskXP(input)

	result, err := c.awards.Handle(ctx, command.AwardXPCommand{
		UserID: event.UserID,
		XP:     breakdown.TotalXP,
		Source: fmt.Sprintf("Task completed: %s", event.TaskID),
	})
	if err != nil {
		c.log.Error("failed to award task completion XP",
			logger.UserID(event.UserID),
			logger.String("task_id", event.TaskID),
			logger.Err(err))
		return
	}

	c.log.Info("task completion XP awarded",
		logger.UserID(event.UserID),
		logger.String("task_id", event.TaskID),
		logger.XPAmount(breakdown.TotalXP),
		logger.LevelField(result.NewLevel))
}
