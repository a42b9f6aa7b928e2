package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds one generator invocation.
const DefaultTimeout = 120 * time.Second

// CommandConfig configures the external generator command.
type CommandConfig struct {
	Binary  string
	Args    []string
	WorkDir string
	Timeout time.Duration
}

// CommandGenerator shells out to a text-completion CLI. The prompt is
// written to stdin; stdout must contain a JSON array of records, which
// may be surrounded by prose the model added.
type CommandGenerator struct {
	cfg CommandConfig
}

// NewCommandGenerator returns a generator backed by cfg.Binary.
func NewCommandGenerator(cfg CommandConfig) *CommandGenerator {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &CommandGenerator{cfg: cfg}
}

// Tasks asks the generator for count task-like records for the brief.
func (g *CommandGenerator) Tasks(ctx context.Context, brief string, count int, projectContext string) ([]Record, error) {
	prompt := fmt.Sprintf(
		"Break the following brief into %d tasks. Respond with only a JSON array of objects "+
			"with fields title, description, details, testStrategy, priority, dependencies.\n\n"+
			"Project context: %s\n\nBrief: %s\n", count, projectContext, brief)
	return g.run(ctx, prompt)
}

// Subtasks asks the generator for count subtask-like records under the
// given parent.
func (g *CommandGenerator) Subtasks(ctx context.Context, parent ParentContext, count int) ([]Record, error) {
	prompt := fmt.Sprintf(
		"Break task %s (%s) into %d subtasks. Respond with only a JSON array of objects "+
			"with fields title, description, details, dependencies.\n\nDescription: %s\n\nDetails: %s\n",
		parent.Addr, parent.Title, count, parent.Description, parent.Details)
	return g.run(ctx, prompt)
}

func (g *CommandGenerator) run(ctx context.Context, prompt string) ([]Record, error) {
	if g.cfg.Binary == "" {
		return nil, fmt.Errorf("no generator binary configured")
	}

	var cancel context.CancelFunc
	if g.cfg.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, g.cfg.Binary, g.cfg.Args...)
	if g.cfg.WorkDir != "" {
		cmd.Dir = g.cfg.WorkDir
	}
	cmd.Stdin = strings.NewReader(prompt)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("generator timeout after %s", g.cfg.Timeout)
		}
		return nil, fmt.Errorf("generator %s failed: %w (stderr: %s)",
			g.cfg.Binary, err, strings.TrimSpace(stderr.String()))
	}

	return ParseRecords(stdout.Bytes())
}

// ParseRecords extracts the first JSON array from generator output and
// unmarshals it. Models wrap arrays in prose and code fences often
// enough that a strict parse would reject most real responses.
func ParseRecords(out []byte) ([]Record, error) {
	start := bytes.IndexByte(out, '[')
	end := bytes.LastIndexByte(out, ']')
	if start < 0 || end < start {
		return nil, fmt.Errorf("generator output contains no JSON array")
	}
	var recs []Record
	if err := json.Unmarshal(out[start:end+1], &recs); err != nil {
		return nil, fmt.Errorf("parse generator output: %w", err)
	}
	return recs, nil
}

// WithRetry invokes fn up to 1+retries times with linear backoff
// between attempts. This lives with the caller of the generator; the
// graph engine itself never retries or blocks.
func WithRetry(ctx context.Context, retries int, backoff time.Duration, fn func(context.Context) ([]Record, error)) ([]Record, error) {
	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * backoff):
			}
		}
		recs, err := fn(ctx)
		if err == nil {
			return recs, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("generator failed after %d attempts: %w", retries+1, lastErr)
}
