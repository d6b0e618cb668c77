package changes

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
)

const (
	defaultGitBinary   = "git"
	noArgumentsLabel   = "<no-args>"
	redactedLabel      = "<redacted>"
	maximumSafeTokens  = 2
	gitCommandFailed   = "git %s: %s"
	redactedURLPrefix  = "https://<redacted>@"
	redactedAssignment = "$1=<redacted>"
)

var (
	safeArgumentPattern  = regexp.MustCompile(`^[a-z][a-z-]*$`)
	credentialURLPattern = regexp.MustCompile(`https?://[^\s@]+@`)
	secretPattern        = regexp.MustCompile(`(?i)(token|secret|password|passwd|bearer)=[^\s]+`)
)

// Runner executes git with the given arguments inside root and returns stdout.
type Runner interface {
	Run(ctx context.Context, root string, arguments ...string) (string, error)
}

// ExecRunner runs the git binary found on PATH or the configured one.
type ExecRunner struct {
	GitBinary string
}

// NewExecRunner constructs an ExecRunner, defaulting to "git".
func NewExecRunner(gitBinary string) *ExecRunner {
	if strings.TrimSpace(gitBinary) == "" {
		gitBinary = defaultGitBinary
	}
	return &ExecRunner{GitBinary: gitBinary}
}

// Run executes git and reports stderr on failure with credentials scrubbed.
func (runner *ExecRunner) Run(ctx context.Context, root string, arguments ...string) (string, error) {
	// #nosec G204
	command := exec.CommandContext(ctx, runner.GitBinary, arguments...)
	if strings.TrimSpace(root) != "" {
		command.Dir = root
	}
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	command.Stdout = &stdout
	command.Stderr = &stderr
	if runError := command.Run(); runError != nil {
		message := strings.TrimSpace(stderr.String())
		if message == "" {
			message = strings.TrimSpace(stdout.String())
		}
		if message == "" {
			message = runError.Error()
		}
		return "", fmt.Errorf(gitCommandFailed, summarizeArguments(arguments), redactCredentials(message))
	}
	return stdout.String(), nil
}

// summarizeArguments keeps the leading subcommand words and drops anything
// that could be a path or URL.
func summarizeArguments(arguments []string) string {
	if len(arguments) == 0 {
		return noArgumentsLabel
	}
	safe := make([]string, 0, maximumSafeTokens)
	for _, argument := range arguments {
		if !safeArgumentPattern.MatchString(argument) {
			break
		}
		safe = append(safe, argument)
		if len(safe) == maximumSafeTokens {
			break
		}
	}
	if len(safe) == 0 {
		return redactedLabel
	}
	return strings.Join(safe, " ")
}

func redactCredentials(message string) string {
	message = credentialURLPattern.ReplaceAllString(message, redactedURLPrefix)
	return secretPattern.ReplaceAllString(message, redactedAssignment)
}

var _ Runner = (*ExecRunner)(nil)
