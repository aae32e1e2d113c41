package tools

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// CommandRunner abstracts shell command execution for runtime adapters.
type CommandRunner interface {
	Run(name string, args ...string) ([]byte, []byte, int32, error)
}

// ExecRunner executes commands on the local host.
type ExecRunner struct{}

func (r ExecRunner) Run(name string, args ...string) ([]byte, []byte, int32, error) {
	cmd := exec.Command(name, args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return stdout.Bytes(), stderr.Bytes(), 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return stdout.Bytes(), stderr.Bytes(), int32(exitErr.ExitCode()), err
	}

	exitCode := int32(1)
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		exitCode = 127
	}
	return stdout.Bytes(), stderr.Bytes(), exitCode, err
}

// Launcher opens a locator in the user's browser.
type Launcher interface {
	Open(locator string) error
}

// BrowserLauncher shells out to a platform opener command. The opener
// hands the locator to the default browser and returns promptly; the
// popup bridge never tracks the browser process itself.
type BrowserLauncher struct {
	// Command overrides the platform opener. Extra arguments may be
	// space-separated; the locator is appended last.
	Command string
	Runner  CommandRunner
}

func (b BrowserLauncher) Open(locator string) error {
	name, args := b.opener()
	args = append(args, locator)
	_, stderr, exitCode, err := b.runner().Run(name, args...)
	if err != nil {
		return fmt.Errorf(
			"tools: browser launch %q exit=%d stderr=%q: %w",
			name,
			exitCode,
			strings.TrimSpace(string(stderr)),
			err,
		)
	}
	return nil
}

func (b BrowserLauncher) opener() (string, []string) {
	if cmd := strings.TrimSpace(b.Command); cmd != "" {
		parts := strings.Fields(cmd)
		return parts[0], parts[1:]
	}
	switch runtime.GOOS {
	case "darwin":
		return "open", nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler"}
	default:
		return "xdg-open", nil
	}
}

func (b BrowserLauncher) runner() CommandRunner {
	if b.Runner != nil {
		return b.Runner
	}
	return ExecRunner{}
}
