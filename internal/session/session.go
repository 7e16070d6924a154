// Package session drives an interactive chat over a line-oriented terminal.
package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/calendar-agent-poc/server/internal/agent/graph"
	"github.com/calendar-agent-poc/server/internal/agent/model"
	errx "github.com/calendar-agent-poc/server/internal/core/error"
	logx "github.com/calendar-agent-poc/server/pkg/logger"
)

// ExitWord ends the session without another reasoning call. Only the exact
// line matches.
const ExitWord = "bye"

// Driver reads one line per turn from In and prints the reply to Out.
type Driver struct {
	runner   graph.Runner
	threadID string
	in       io.Reader
	out      io.Writer

	you *color.Color
	ai  *color.Color
}

func NewDriver(runner graph.Runner, threadID string, in io.Reader, out io.Writer) *Driver {
	return &Driver{
		runner:   runner,
		threadID: threadID,
		in:       in,
		out:      out,
		you:      color.New(color.FgCyan, color.Bold),
		ai:       color.New(color.FgGreen, color.Bold),
	}
}

// Run loops until the exit word, EOF, or ctx is done. Turn failures are
// printed and the loop continues.
func (d *Driver) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(d.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		d.you.Fprint(d.out, "You: ")
		if !scanner.Scan() {
			fmt.Fprintln(d.out)
			return scanner.Err()
		}

		raw := scanner.Text()
		if raw == ExitWord {
			return nil
		}
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		reply, err := d.runner.Invoke(ctx, model.QueryInput{ConversationID: d.threadID, Query: line})
		if err != nil {
			if errors.Is(err, context.Canceled) && ctx.Err() != nil {
				return ctx.Err()
			}
			logx.Error().Err(err).Str("conversation_id", d.threadID).Msg("Turn failed")
			fmt.Fprintf(d.out, "Failed to process your message: %s\n", errx.SafeMessage(err))
			continue
		}

		d.ai.Fprint(d.out, "AI: ")
		fmt.Fprintln(d.out, reply)
	}
}
