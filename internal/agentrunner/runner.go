package agentrunner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/efebarandurmaz/multillm/internal/llm"
)

// DefaultAgentName is the agent name sent with every generation request.
const DefaultAgentName = "agent"

// Sender is the part of handler.Handler the runner needs.
type Sender interface {
	Send(ctx context.Context, agentName, prompt string) (string, error)
}

// Runner reads context file paths, one per line, and scaffolds a project
// for each.
type Runner struct {
	Sender    Sender
	AgentName string
	// OutputRoot is the directory project directories are created in.
	OutputRoot string
	Out        io.Writer
	Logger     *slog.Logger
}

// BuildPrompt wraps a project description in the generation instructions.
func BuildPrompt(description string) string {
	return "Based on this project context:\n" + description +
		"\nCreate all the files needed to start the project, including README.md, the folder structure and example files." +
		" Use markdown blocks of the form ```path/file.ext\ncontent\n``` for each file."
}

// Run prompts for context files until in is exhausted or ctx is done.
// Failures inside one iteration are printed and the loop continues.
func (r *Runner) Run(ctx context.Context, in io.Reader) error {
	out := r.out()
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	fmt.Fprintln(out, "LLM agent ready. Enter the path of a markdown context file, or press Ctrl+C to quit.")
	for {
		fmt.Fprint(out, "Context file (.md): ")
		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "\nAgent stopped.")
			return nil
		case line, ok = <-lines:
		}
		if !ok {
			fmt.Fprintln(out, "\nAgent stopped.")
			select {
			case err := <-readErr:
				return err
			default:
				return nil
			}
		}

		path := strings.TrimSpace(line)
		if path == "" {
			continue
		}
		if err := r.RunOnce(ctx, path); err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
		}
	}
}

// RunOnce scaffolds the project described by the markdown file at path.
func (r *Runner) RunOnce(ctx context.Context, path string) error {
	out := r.out()
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading context file: %w", err)
	}
	description := string(data)

	dir, err := resolve(r.OutputRoot, ExtractProjectName(description))
	if err != nil {
		return fmt.Errorf("project directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating project directory: %w", err)
	}

	agent := r.AgentName
	if agent == "" {
		agent = DefaultAgentName
	}
	reply, err := r.Sender.Send(ctx, agent, BuildPrompt(description))
	if err != nil {
		fmt.Fprintf(out, "\nLLM response:\n %s\n", llm.Describe(err))
		r.logger().Warn("generation failed, nothing written", "context", path)
		return nil
	}
	fmt.Fprintf(out, "\nLLM response:\n %s\n", reply)

	files := ExtractFiles(reply)
	written, err := SaveFiles(dir, files)
	for _, p := range written {
		fmt.Fprintf(out, "File created: %s\n", p)
	}
	r.logger().Info("project scaffolded", "context", path, "dir", dir, "files", len(written))
	return err
}

func (r *Runner) out() io.Writer {
	if r.Out == nil {
		return os.Stdout
	}
	return r.Out
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}
