package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func (a *App) loginCommand() *cobra.Command {
	var email, password string
	var signup bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to your account",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if email == "" {
				email, err = a.prompt("Email: ")
				if err != nil {
					return err
				}
			}
			if password == "" {
				password, err = a.promptPassword("Password: ")
				if err != nil {
					return err
				}
			}

			exchange := a.Client.SignIn
			if signup {
				exchange = a.Client.SignUp
			}

			identity, err := exchange(cmd.Context(), email, password)
			if err != nil {
				// Server message verbatim, session left untouched.
				a.printError(err)
				return err
			}

			if err := a.Sessions.SetAuth(identity.Token, identity.UserID); err != nil {
				return fmt.Errorf("save session: %w", err)
			}

			fmt.Fprintln(a.Out, successStyle.Render("Signed in."))
			fmt.Fprintln(a.Out, mutedStyle.Render("Run `ava chat` to start talking."))
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password (prompted when omitted)")
	cmd.Flags().BoolVar(&signup, "signup", false, "Create the account first")

	return cmd
}

func (a *App) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Stateless token: clearing locally is the whole operation.
			if err := a.Sessions.ClearAuth(); err != nil {
				return fmt.Errorf("clear session: %w", err)
			}
			fmt.Fprintln(a.Out, successStyle.Render("Signed out."))
			return nil
		},
	}
}

func (a *App) prompt(label string) (string, error) {
	fmt.Fprint(a.Out, label)
	reader := bufio.NewReader(a.In)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads without echo when stdin is a terminal, falling back
// to a plain prompt otherwise (pipes, tests).
func (a *App) promptPassword(label string) (string, error) {
	if f, ok := a.In.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(a.Out, label)
		raw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(a.Out)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
	return a.prompt(label)
}
