package infrastructure

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/mediafetch/internal/domain"
)

const notifyTimeout = 5 * time.Second

// commandRunner runs an external program to completion
type commandRunner func(ctx context.Context, name string, args ...string) error

func runCommand(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

// NotificationService sends desktop notifications
type NotificationService struct {
	config *domain.NotificationConfig
	logger *zap.Logger
	run    commandRunner
}

// NewNotificationService creates a new notification service
func NewNotificationService(config *domain.NotificationConfig, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		config: config,
		logger: logger,
		run:    runCommand,
	}
}

// Send sends a notification
func (n *NotificationService) Send(title, message string) error {
	if !n.config.Enabled {
		n.logger.Debug("Notifications disabled, skipping",
			zap.String("title", title),
			zap.String("message", message))
		return nil
	}

	name, args, err := n.command(title, message)
	if err != nil {
		n.logger.Warn("Unknown notification method", zap.String("method", n.config.Method))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	if err := n.run(ctx, name, args...); err != nil {
		n.logger.Error("Failed to send notification",
			zap.String("method", n.config.Method),
			zap.String("command", ShellEscapeCommand(name, args...)),
			zap.Error(err))
		return err
	}

	n.logger.Debug("Notification sent",
		zap.String("title", title),
		zap.String("message", message))
	return nil
}

// command builds the program invocation for the configured method
func (n *NotificationService) command(title, message string) (string, []string, error) {
	switch n.config.Method {
	case "osascript":
		script := fmt.Sprintf(`display notification %s with title %s`, appleScriptString(message), appleScriptString(title))
		if n.config.Sound {
			script += ` sound name "default"`
		}
		return "osascript", []string{"-e", script}, nil
	case "notify-send":
		return "notify-send", []string{title, message}, nil
	default:
		return "", nil, fmt.Errorf("unknown notification method: %s", n.config.Method)
	}
}

// NotifyJobFinished reports the outcome of a detached job
func (n *NotificationService) NotifyJobFinished(job *domain.Job) {
	title := "Fetch job " + string(job.Status)
	message := fmt.Sprintf("%d references", len(job.References))
	if job.Result != nil {
		message = fmt.Sprintf("%d completed, %d skipped, %d failed",
			job.Result.Completed, job.Result.Skipped, job.Result.Failed)
	}
	if job.ErrorMessage != "" {
		message += ": " + truncateString(job.ErrorMessage, 60)
	}
	n.Send(title, message)
}

func appleScriptString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

// truncateString truncates a string to the specified length
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
