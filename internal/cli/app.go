// Package cli is the terminal surface of the client: one command per
// screen, composed from the session store, the API client, and the
// transcript source.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ava-companion/ava/internal/api"
	"github.com/ava-companion/ava/internal/config"
	"github.com/ava-companion/ava/internal/session"
	"github.com/ava-companion/ava/pkg/logger"
)

// App carries everything a command needs: configuration, the session store,
// and the API client. It is constructed once in main and passed explicitly
// rather than reached for as ambient global state.
type App struct {
	Config   *config.Client
	Sessions *session.Store
	Client   *api.Client
	Logger   *logger.Logger

	// Out is where screens render. Stdout in production, a buffer in tests.
	Out io.Writer
	// In is where prompts read from.
	In io.Reader

	verbose bool
}

// NewApp wires an App from configuration.
func NewApp(cfg *config.Client, log *logger.Logger) *App {
	sessions := session.NewStore(session.NewFileStorage(cfg.SessionFile))
	client := api.New(cfg.BaseURL, sessions, api.WithLogger(log))

	return &App{
		Config:   cfg,
		Sessions: sessions,
		Client:   client,
		Logger:   log,
		Out:      os.Stdout,
		In:       os.Stdin,
	}
}

// Root builds the command tree.
func (a *App) Root() *cobra.Command {
	root := &cobra.Command{
		Use:           "ava",
		Short:         "Chat with Ava from your terminal",
		Long:          "ava is the terminal client for the Ava companion-chat service.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if a.verbose {
				if log, err := logger.New("debug"); err == nil {
					a.Logger = log
				}
			}
		},
	}

	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Verbose logging")

	root.AddCommand(a.loginCommand())
	root.AddCommand(a.logoutCommand())
	root.AddCommand(a.chatCommand())
	root.AddCommand(a.settingsCommand())
	root.AddCommand(a.personaCommand())
	root.AddCommand(a.photoCommand())

	return root
}

// printError renders an inline error without terminating anything; the UI
// stays usable after any failure.
func (a *App) printError(err error) {
	fmt.Fprintln(a.Out, errorStyle.Render(err.Error()))
}
