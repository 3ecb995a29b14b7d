package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ava-companion/ava/internal/api"
)

func (a *App) personaCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "persona <label>",
		Short:     "Choose Ava's persona",
		Long:      "Sets the persona to one of: " + strings.Join(api.Personas, ", ") + ". Write-only; the current persona is never read back.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: api.Personas,
		PreRunE:   a.requireSession(),
		RunE: func(cmd *cobra.Command, args []string) error {
			label := args[0]
			if !api.ValidPersona(label) {
				return fmt.Errorf("unknown persona %q; choose one of %s", label, strings.Join(api.Personas, ", "))
			}

			if err := a.Client.UpdatePersona(cmd.Context(), label); err != nil {
				a.printError(err)
				return err
			}

			fmt.Fprintln(a.Out, successStyle.Render("Persona set to "+label))
			return nil
		},
	}
}
