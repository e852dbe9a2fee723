package pipeline

import (
	"context"
	"os"
	"os/exec"
	"time"

	"github.com/pkg/errors"

	"github.com/lbogdanov/stethoscope/pkg/model"
)

const defaultHookTimeout = time.Minute

// ExecHook is a command run after a background task finishes.
// The task is described by STETHOSCOPE_* environment variables.
type ExecHook struct {
	Command []string `toml:"command"`
	Timeout int      `toml:"timeout"` // timeout in seconds, 0 means use default (60s)
}

// Invoke runs a hook with the provided environment variables
func (h *ExecHook) Invoke(ctx context.Context, env []string) error {
	if h == nil {
		return nil
	}
	if len(h.Command) == 0 {
		return errors.New("hook command is empty")
	}

	timeout := defaultHookTimeout
	if h.Timeout > 0 {
		timeout = time.Duration(h.Timeout) * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var cmd *exec.Cmd
	if len(h.Command) == 1 {
		// Single command, use shell to parse
		cmd = exec.CommandContext(ctx, "/bin/sh", "-c", h.Command[0])
	} else {
		cmd = exec.CommandContext(ctx, h.Command[0], h.Command[1:]...)
	}

	cmd.Env = append(os.Environ(), env...)

	data, err := cmd.CombinedOutput()
	if err != nil {
		return errors.Errorf("hook execution failed: %v, output: %s", err, string(data))
	}

	return nil
}

func hookEnv(task *model.Task) []string {
	return []string{
		"STETHOSCOPE_TASK_ID=" + task.ID,
		"STETHOSCOPE_TASK_KIND=" + string(task.Kind),
		"STETHOSCOPE_TASK_STATUS=" + string(task.Status),
		"STETHOSCOPE_ENTRY_ID=" + task.EntryID,
		"STETHOSCOPE_TASK_ERROR=" + task.Error,
	}
}
