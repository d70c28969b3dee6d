package reasoning

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"equipflow/sei/internal/failure"
)

// ClaudeCLI runs the claude CLI in print mode and reads its stream-json output.
type ClaudeCLI struct {
	Binary  string
	Model   string
	Timeout time.Duration
}

// Complete spawns one single-turn claude process for prompt.
func (c *ClaudeCLI) Complete(ctx context.Context, prompt string, maxTokens int) (*Completion, error) {
	binary := c.Binary
	if binary == "" {
		binary = "claude"
	}
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	args := []string{
		"-p", prompt,
		"--output-format", "stream-json",
		"--verbose",
		"--max-turns", "1",
	}
	if c.Model != "" {
		args = append(args, "--model", c.Model)
	}

	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Env = filterClaudeEnv(os.Environ())

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("creating stdout pipe: %w", err)
	}
	stderrBuf := cappedBuffer{limit: 10 * 1024}
	cmd.Stderr = &stderrBuf

	if err := cmd.Start(); err != nil {
		return nil, &failure.TransportError{Service: "claude", Err: fmt.Errorf("starting %s: %w", binary, err)}
	}

	result := parseStreamJSON(stdout)
	waitErr := cmd.Wait()

	if ctx.Err() != nil {
		return nil, &failure.TransportError{Service: "claude", Err: ctx.Err()}
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		code := -1
		if errors.As(waitErr, &exitErr) {
			code = exitErr.ExitCode()
		}
		return nil, &failure.TransportError{
			Service: "claude",
			Body:    strings.TrimSpace(stderrBuf.String()),
			Err:     fmt.Errorf("exit code %d: %w", code, waitErr),
		}
	}
	if result.IsError {
		return nil, &failure.TransportError{Service: "claude", Body: result.Text, Err: errors.New("result reported an error")}
	}
	return result.Completion(), nil
}

// streamResult is what parseStreamJSON extracts from one run.
type streamResult struct {
	Text         string
	assistant    []string
	IsError      bool
	CostUSD      float64
	InputTokens  int
	OutputTokens int
}

// Completion converts the parsed stream into a Completion. The final result
// text wins; concatenated assistant text is the fallback.
func (r *streamResult) Completion() *Completion {
	text := r.Text
	if strings.TrimSpace(text) == "" {
		text = strings.Join(r.assistant, "\n")
	}
	return &Completion{
		Text:    text,
		Tokens:  r.InputTokens + r.OutputTokens,
		CostUSD: r.CostUSD,
	}
}

// parseStreamJSON reads stream-json lines from r.
func parseStreamJSON(r io.Reader) *streamResult {
	result := &streamResult{}
	scanner := bufio.NewScanner(r)
	// Allow large lines (a full page of content arrives in one event)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var event streamEvent
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			continue // skip malformed lines
		}

		switch event.Type {
		case "assistant":
			if event.Message != nil {
				for _, block := range event.Message.Content {
					if block.Type == "text" && block.Text != "" {
						result.assistant = append(result.assistant, block.Text)
					}
				}
			}

		case "result":
			result.Text = event.Result
			result.IsError = event.IsError
			result.CostUSD = event.TotalCostUSD
			if event.Usage != nil {
				result.InputTokens = event.Usage.InputTokens
				result.OutputTokens = event.Usage.OutputTokens
			}
		}
	}
	return result
}

// streamEvent represents a single line from the claude stream-json output.
type streamEvent struct {
	Type string `json:"type"`

	// For "assistant" events
	Message *assistantMessage `json:"message,omitempty"`

	// For "result" events
	Result       string      `json:"result,omitempty"`
	IsError      bool        `json:"is_error,omitempty"`
	TotalCostUSD float64     `json:"total_cost_usd,omitempty"`
	Usage        *tokenUsage `json:"usage,omitempty"`
}

type assistantMessage struct {
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type tokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// filterClaudeEnv removes CLAUDE_CODE_* and CLAUDECODE env vars so a nested
// claude process does not detect a parent session.
func filterClaudeEnv(env []string) []string {
	filtered := make([]string, 0, len(env))
	for _, e := range env {
		key := e
		if idx := strings.IndexByte(e, '='); idx >= 0 {
			key = e[:idx]
		}
		if strings.HasPrefix(key, "CLAUDE_CODE_") || key == "CLAUDECODE" {
			continue
		}
		filtered = append(filtered, e)
	}
	return filtered
}

// cappedBuffer is a bytes.Buffer that stops writing after a byte limit.
type cappedBuffer struct {
	mu    sync.Mutex
	buf   bytes.Buffer
	limit int
}

func (c *cappedBuffer) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	remaining := c.limit - c.buf.Len()
	if remaining <= 0 {
		return len(p), nil
	}
	toWrite := p
	if len(toWrite) > remaining {
		toWrite = toWrite[:remaining]
	}
	_, err := c.buf.Write(toWrite)
	// Report the full length so exec keeps draining stderr
	return len(p), err
}

func (c *cappedBuffer) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.String()
}
