package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/ava-companion/ava/internal/api"
	"github.com/ava-companion/ava/internal/transcript"
	"github.com/ava-companion/ava/pkg/metrics"
)

func (a *App) chatCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "chat",
		Short:   "Open the chat thread",
		PreRunE: a.requireSession(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runChat(cmd.Context())
		},
	}
}

func (a *App) runChat(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fmt.Fprintln(a.Out, assistantNameStyle.Render("Ava")+mutedStyle.Render("  ·  your AI companion"))
	fmt.Fprintln(a.Out, mutedStyle.Render("Type a message. /settings shows the settings command, /quit leaves, /signout signs out."))
	fmt.Fprintln(a.Out)

	renderer := newChatRenderer(a)

	var source transcript.Source = transcript.NewPoller(a.Client, a.Config.PollInterval, a.Logger)
	source.Start(ctx)
	defer source.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-source.Updates():
				renderer.render(source.Snapshot())
			}
		}
	}()

	scanner := bufio.NewScanner(a.In)
	for {
		if !scanner.Scan() {
			return scanner.Err()
		}
		text := strings.TrimSpace(scanner.Text())

		switch {
		case text == "":
			// Whitespace-only input never reaches the API layer.
			continue
		case text == "/quit":
			return nil
		case text == "/settings":
			fmt.Fprintln(a.Out, mutedStyle.Render("Run `ava settings` in another terminal."))
			continue
		case text == "/signout":
			if err := a.Sessions.ClearAuth(); err != nil {
				return fmt.Errorf("clear session: %w", err)
			}
			fmt.Fprintln(a.Out, successStyle.Render("Signed out."))
			return nil
		}

		// The send is synchronous with the input loop, so composing is
		// disabled until it resolves; a second send cannot be issued while
		// one is in flight. Polling keeps running regardless.
		if _, err := a.Client.SendMessage(ctx, text); err != nil {
			metrics.RecordSend("error")
			a.printError(err)
			if errors.Is(err, api.ErrUnauthorized) {
				// Policy: a rejected token does not clear the session.
				fmt.Fprintln(a.Out, mutedStyle.Render("Your session may have expired. Run `ava login` to sign in again."))
			}
			// The composed text is not restored; the user retypes if they
			// want to retry.
			continue
		}
		metrics.RecordSend("ok")
		source.Invalidate()
	}
}

// chatRenderer prints transcript snapshots incrementally. Snapshots are
// full replacements in server order, so printing only the suffix beyond
// what was already shown is safe.
type chatRenderer struct {
	app      *App
	mu       sync.Mutex
	printed  int
	markdown *glamour.TermRenderer
}

func newChatRenderer(a *App) *chatRenderer {
	r := &chatRenderer{app: a}
	if md, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(80)); err == nil {
		r.markdown = md
	}
	return r
}

func (r *chatRenderer) render(messages []api.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(messages) < r.printed {
		// Server returned a shorter transcript; start over.
		r.printed = 0
	}
	for _, msg := range messages[r.printed:] {
		r.printMessage(msg)
	}
	r.printed = len(messages)
}

func (r *chatRenderer) printMessage(msg api.Message) {
	switch msg.Role {
	case api.RoleUser:
		fmt.Fprintln(r.app.Out, userStyle.Render("you: "+msg.Content))
	case api.RoleAssistant:
		content := msg.Content
		if r.markdown != nil {
			if rendered, err := r.markdown.Render(content); err == nil {
				content = strings.TrimRight(rendered, "\n")
			}
		}
		fmt.Fprintln(r.app.Out, assistantNameStyle.Render("Ava:")+" "+content)
	default:
		fmt.Fprintln(r.app.Out, mutedStyle.Render(string(msg.Role)+": "+msg.Content))
	}
}
