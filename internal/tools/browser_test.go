package tools

import (
	"errors"
	"strings"
	"testing"
)

type fakeRunner struct {
	name string
	args []string

	stderr   []byte
	exitCode int32
	err      error
}

func (r *fakeRunner) Run(name string, args ...string) ([]byte, []byte, int32, error) {
	r.name = name
	r.args = args
	return nil, r.stderr, r.exitCode, r.err
}

func TestBrowserLauncherCustomCommand(t *testing.T) {
	runner := &fakeRunner{}
	launcher := BrowserLauncher{Command: "firefox --new-window", Runner: runner}

	if err := launcher.Open("http://127.0.0.1:9400/popup"); err != nil {
		t.Fatalf("open: %v", err)
	}
	if runner.name != "firefox" {
		t.Fatalf("command %q", runner.name)
	}
	if len(runner.args) != 2 || runner.args[0] != "--new-window" || runner.args[1] != "http://127.0.0.1:9400/popup" {
		t.Fatalf("args %v", runner.args)
	}
}

func TestBrowserLauncherAppendsLocatorLast(t *testing.T) {
	runner := &fakeRunner{}
	launcher := BrowserLauncher{Command: "xdg-open", Runner: runner}

	if err := launcher.Open("http://x/popup?surface=s1#loading"); err != nil {
		t.Fatalf("open: %v", err)
	}
	if runner.args[len(runner.args)-1] != "http://x/popup?surface=s1#loading" {
		t.Fatalf("locator not last: %v", runner.args)
	}
}

func TestBrowserLauncherReportsFailure(t *testing.T) {
	runner := &fakeRunner{
		stderr:   []byte("no display"),
		exitCode: 2,
		err:      errors.New("exit status 2"),
	}
	launcher := BrowserLauncher{Command: "xdg-open", Runner: runner}

	err := launcher.Open("http://x/popup")
	if err == nil {
		t.Fatalf("expected launch error")
	}
	if !strings.Contains(err.Error(), "no display") {
		t.Fatalf("stderr missing from error: %v", err)
	}
}
