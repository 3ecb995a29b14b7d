package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

// errSignedOut is returned by guarded commands when no session is present.
var errSignedOut = errors.New("not signed in, run `ava login` first")

// requireSession gates a command on session presence, the terminal analog
// of redirecting a protected route to the login screen. Presence only: an
// expired token is discovered by the first rejected call, not here.
func (a *App) requireSession() func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if !a.Sessions.Current().Present() {
			return errSignedOut
		}
		return nil
	}
}
