package autostart

import (
	"fmt"
	"os/exec"
)

const taskName = "EduSeekDashboard"

// WindowsAutoStarter registers a logon task in the Task Scheduler.
type WindowsAutoStarter struct {
	// Run executes schtasks; nil runs the real command.
	Run func(args ...string) ([]byte, error)
}

func createTaskArgs(execPath string) []string {
	return []string{
		"/Create",
		"/TN", taskName,
		"/TR", fmt.Sprintf(`"%s" serve`, execPath),
		"/SC", "ONLOGON",
		"/F",
	}
}

func (w *WindowsAutoStarter) schtasks(args ...string) ([]byte, error) {
	if w.Run != nil {
		return w.Run(args...)
	}
	return exec.Command("schtasks", args...).CombinedOutput()
}

// Install replaces any existing task and starts the dashboard right away
// instead of waiting for the next logon.
func (w *WindowsAutoStarter) Install(execPath string) error {
	if out, err := w.schtasks(createTaskArgs(execPath)...); err != nil {
		return fmt.Errorf("failed to register task: %w\n%s", err, out)
	}

	if out, err := w.schtasks("/Run", "/TN", taskName); err != nil {
		return fmt.Errorf("failed to run task: %w\n%s", err, out)
	}

	return nil
}

func (w *WindowsAutoStarter) Uninstall() error {
	installed, err := w.IsInstalled()
	if err != nil || !installed {
		return err
	}

	_, _ = w.schtasks("/End", "/TN", taskName)

	if out, err := w.schtasks("/Delete", "/TN", taskName, "/F"); err != nil {
		return fmt.Errorf("failed to remove task: %w\n%s", err, out)
	}

	return nil
}

// IsInstalled treats any query failure as "no such task"; schtasks does
// not distinguish it by exit code.
func (w *WindowsAutoStarter) IsInstalled() (bool, error) {
	if _, err := w.schtasks("/Query", "/TN", taskName); err != nil {
		return false, nil
	}

	return true, nil
}
