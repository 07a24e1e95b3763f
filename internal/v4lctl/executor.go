package v4lctl

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"
	"go.uber.org/zap"
)

// Tool is the device command capability the engine depends on.
type Tool interface {
	// Read returns the current value token of an attribute, or "" when the
	// tool could not be started, printed nothing parseable, or does not
	// know the attribute. The cases are not distinguished.
	Read(ctx context.Context, name string) string

	// Write runs a write command with a value argument. It returns true iff
	// the tool was launched and ran to completion. v4lctl does not reliably
	// report rejected values, so true means "command executed", not "value
	// applied on the hardware".
	Write(ctx context.Context, command, value string) bool
}

// Config holds the configuration for v4lctl execution.
type Config struct {
	// ToolPath is the v4lctl binary.
	// Default: "v4lctl" (searches PATH)
	ToolPath string

	// Device is the video device passed with -c.
	// Default: "/dev/video0"
	Device string

	// Timeout bounds a single invocation. Zero means no timeout: a hung
	// tool blocks the caller.
	Timeout time.Duration
}

// DefaultConfig returns the v4lctl in PATH driving /dev/video0 with no timeout.
func DefaultConfig() Config {
	return Config{
		ToolPath: "v4lctl",
		Device:   "/dev/video0",
	}
}

// Executor runs v4lctl via os/exec.
type Executor struct {
	config Config
	logger *zap.Logger
}

var _ Tool = (*Executor)(nil)

// NewExecutor creates a new v4lctl executor with the given configuration.
func NewExecutor(config Config, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		config: config,
		logger: logger,
	}
}

// Config returns the executor configuration
func (e *Executor) Config() Config {
	return e.config
}

// Read runs `v4lctl -c <device> show "<name>"` and extracts the value token
// from the first output line.
func (e *Executor) Read(ctx context.Context, name string) string {
	args := e.args("show", name)
	cmdline := e.commandLine(args)

	stdout, _, err := e.run(ctx, args)
	if err != nil && !ran(err) {
		e.logger.Error("v4lctl call failed",
			zap.String("command", cmdline),
			zap.Error(err),
		)
		return ""
	}

	result := ParseShow(name, firstLine(stdout))

	e.logger.Info("v4lctl read",
		zap.String("command", cmdline),
		zap.String("result", result),
	)

	return result
}

// Write runs `v4lctl -c <device> <command> <value>`. The command is split
// like a shell would, so `setattr "UV Ratio"` becomes two arguments.
func (e *Executor) Write(ctx context.Context, command, value string) bool {
	words, err := shellquote.Split(command)
	if err != nil || len(words) == 0 {
		e.logger.Error("invalid v4lctl command",
			zap.String("command", command),
			zap.Error(err),
		)
		return false
	}

	args := e.args(append(words, value)...)
	cmdline := e.commandLine(args)

	e.logger.Info("v4lctl write", zap.String("command", cmdline))

	_, stderr, err := e.run(ctx, args)
	if err == nil {
		return true
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// The tool ran; its exit status says nothing reliable about the device.
		e.logger.Warn("v4lctl exited with non-zero status",
			zap.String("command", cmdline),
			zap.Int("exit_code", exitErr.ExitCode()),
			zap.String("stderr", strings.TrimSpace(stderr)),
		)
		return true
	}

	e.logger.Error("v4lctl call failed",
		zap.String("command", cmdline),
		zap.Error(err),
	)
	return false
}

// args prefixes the device selection to a v4lctl command.
func (e *Executor) args(command ...string) []string {
	return append([]string{"-c", e.config.Device}, command...)
}

// commandLine renders the exact invocation for logs.
func (e *Executor) commandLine(args []string) string {
	return shellquote.Join(append([]string{e.config.ToolPath}, args...)...)
}

// run executes v4lctl and captures its output.
func (e *Executor) run(ctx context.Context, args []string) (stdout, stderr string, err error) {
	if e.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd := exec.CommandContext(ctx, e.config.ToolPath, args...)
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf
	// Children that inherit the output pipes must not outlive a cancelled run.
	cmd.WaitDelay = time.Second

	err = cmd.Run()

	if ctx.Err() != nil {
		err = fmt.Errorf("v4lctl interrupted: %w", ctx.Err())
	}

	return stdoutBuf.String(), stderrBuf.String(), err
}

// ran reports whether err means the process ran to completion.
func ran(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr)
}

// ParseShow extracts the value token from a `show` output line of the form
// "<name>: <token> ...". It returns "" when the line does not match.
func ParseShow(name, line string) string {
	re, err := regexp.Compile("^" + regexp.QuoteMeta(name) + `: ([a-zA-Z0-9\-]+)`)
	if err != nil {
		return ""
	}
	m := re.FindStringSubmatch(line)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

func firstLine(s string) string {
	sc := bufio.NewScanner(strings.NewReader(s))
	if sc.Scan() {
		return sc.Text()
	}
	return ""
}

// ValidateToolPath checks that the v4lctl binary can be found.
func ValidateToolPath(path string) (string, error) {
	resolved, err := exec.LookPath(path)
	if err != nil {
		return "", fmt.Errorf("v4lctl not found (%s): %w\nInstall on Debian/Ubuntu: sudo apt-get install xawtv", path, err)
	}
	return resolved, nil
}
