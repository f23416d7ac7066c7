package infrastructure

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/mediafetch/internal/domain"
)

type sentCommand struct {
	name string
	args []string
}

func newTestNotifier(config domain.NotificationConfig) (*NotificationService, *[]sentCommand) {
	var sent []sentCommand
	n := NewNotificationService(&config, zap.NewNop())
	n.run = func(ctx context.Context, name string, args ...string) error {
		sent = append(sent, sentCommand{name: name, args: args})
		return nil
	}
	return n, &sent
}

func TestNotificationService_Disabled(t *testing.T) {
	n, sent := newTestNotifier(domain.NotificationConfig{Enabled: false, Method: "notify-send"})
	require.NoError(t, n.Send("title", "message"))
	assert.Empty(t, *sent)
}

func TestNotificationService_NotifySend(t *testing.T) {
	n, sent := newTestNotifier(domain.NotificationConfig{Enabled: true, Method: "notify-send"})

	job := domain.NewJob([]string{"https://www.youtube.com/playlist?list=PL1"}, domain.ModeDetach)
	job.MarkCompleted(&domain.BatchResult{Completed: 2, Skipped: 1})
	n.NotifyJobFinished(job)

	require.Len(t, *sent, 1)
	assert.Equal(t, "notify-send", (*sent)[0].name)
	assert.Equal(t, []string{"Fetch job completed", "2 completed, 1 skipped, 0 failed"}, (*sent)[0].args)
}

func TestNotificationService_OSAScriptQuoting(t *testing.T) {
	n, sent := newTestNotifier(domain.NotificationConfig{Enabled: true, Method: "osascript", Sound: true})

	require.NoError(t, n.Send(`Say "hi"`, `back\slash`))
	require.Len(t, *sent, 1)
	assert.Equal(t, "osascript", (*sent)[0].name)
	assert.Equal(t, `display notification "back\\slash" with title "Say \"hi\"" sound name "default"`, (*sent)[0].args[1])
}

func TestNotificationService_FailedJobAndErrors(t *testing.T) {
	n, sent := newTestNotifier(domain.NotificationConfig{Enabled: true, Method: "notify-send"})

	job := domain.NewJob([]string{"a", "b"}, domain.ModeDetach)
	job.MarkFailed(nil, errors.New("no valid references provided"))
	n.NotifyJobFinished(job)
	require.Len(t, *sent, 1)
	assert.Equal(t, "2 references: no valid references provided", (*sent)[0].args[1])

	n.run = func(ctx context.Context, name string, args ...string) error { return errors.New("not installed") }
	assert.Error(t, n.Send("t", "m"))

	n.config.Method = "pigeon"
	assert.NoError(t, n.Send("t", "m"))
}
