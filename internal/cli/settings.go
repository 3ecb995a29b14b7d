package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ava-companion/ava/internal/api"
)

func (a *App) settingsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "settings",
		Short:   "Show current preferences",
		PreRunE: a.requireSession(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.showSettings(cmd.Context())
		},
	}

	cmd.AddCommand(a.settingsSetCommand())
	return cmd
}

func (a *App) showSettings(ctx context.Context) error {
	// "Not set yet" is an empty state, not an error.
	prefs, err := a.Client.GetPreferences(ctx)
	if err != nil {
		a.printError(err)
		return err
	}

	fmt.Fprintln(a.Out, headingStyle.Render("Settings"))
	fmt.Fprintln(a.Out, "  Platform:           "+orUnset((*string)(prefs.PreferredPlatform)))
	fmt.Fprintln(a.Out, "  Content ceiling:    "+orUnset((*string)(prefs.SpicinessLevel)))
	fmt.Fprintln(a.Out, "  Mode-switch phrase: "+orUnset(prefs.ModeSwitchPhrase))
	fmt.Fprintln(a.Out, "  WhatsApp phone:     "+orUnset(prefs.WhatsAppPhone))
	if enabled, ok := prefs.NotifPrefs["whatsapp_enabled"].(bool); ok {
		fmt.Fprintf(a.Out, "  WhatsApp notifications: %v\n", enabled)
	} else {
		fmt.Fprintln(a.Out, "  WhatsApp notifications: (default on)")
	}
	return nil
}

func orUnset(v *string) string {
	if v == nil || *v == "" {
		return mutedStyle.Render("(unset)")
	}
	return *v
}

func (a *App) settingsSetCommand() *cobra.Command {
	var (
		platform  string
		spiciness string
		phrase    string
		phone     string
		notify    bool
	)

	cmd := &cobra.Command{
		Use:     "set",
		Short:   "Edit preferences and save them in one update",
		Long:    "All edits are buffered into a single partial update; fields you do not pass are left untouched on the server.",
		PreRunE: a.requireSession(),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			current, err := a.Client.GetPreferences(ctx)
			if err != nil {
				a.printError(err)
				return err
			}

			patch := api.Preferences{}
			if cmd.Flags().Changed("platform") {
				p := api.Platform(platform)
				if p != api.PlatformWhatsApp && p != api.PlatformWeb {
					return fmt.Errorf("platform must be %q or %q", api.PlatformWhatsApp, api.PlatformWeb)
				}
				patch.PreferredPlatform = &p
			}
			if cmd.Flags().Changed("spiciness") {
				s := api.Spiciness(spiciness)
				if s != api.SpicinessMild && s != api.SpicinessSpicy && s != api.SpicinessExplicit {
					return fmt.Errorf("spiciness must be %q, %q or %q", api.SpicinessMild, api.SpicinessSpicy, api.SpicinessExplicit)
				}
				patch.SpicinessLevel = &s
			}
			if cmd.Flags().Changed("phrase") {
				patch.ModeSwitchPhrase = &phrase
			}
			if cmd.Flags().Changed("phone") {
				patch.WhatsAppPhone = &phone
			}
			if cmd.Flags().Changed("whatsapp-notifications") {
				patch.NotifPrefs = map[string]any{"whatsapp_enabled": notify}
			}

			if patch.PreferredPlatform == nil && patch.SpicinessLevel == nil &&
				patch.ModeSwitchPhrase == nil && patch.WhatsAppPhone == nil && patch.NotifPrefs == nil {
				fmt.Fprintln(a.Out, mutedStyle.Render("Nothing to change."))
				return nil
			}

			// One buffered save: the draft merges over the server copy, and
			// the patch always restates the headline trio so the server
			// never sees a partial view of it.
			draft := current.Merge(patch)
			patch.PreferredPlatform = draft.PreferredPlatform
			patch.SpicinessLevel = draft.SpicinessLevel
			patch.ModeSwitchPhrase = draft.ModeSwitchPhrase

			if err := a.Client.UpdatePreferences(ctx, patch); err != nil {
				a.printError(err)
				return err
			}

			fmt.Fprintln(a.Out, successStyle.Render("Settings saved"))
			return nil
		},
	}

	cmd.Flags().StringVar(&platform, "platform", "", "Preferred platform: whatsapp or web")
	cmd.Flags().StringVar(&spiciness, "spiciness", "", "Content ceiling: mild, spicy or explicit")
	cmd.Flags().StringVar(&phrase, "phrase", "", "Mode-switch phrase (empty restores the defaults)")
	cmd.Flags().StringVar(&phone, "phone", "", "WhatsApp phone in E.164 format")
	cmd.Flags().BoolVar(&notify, "whatsapp-notifications", true, "Enable WhatsApp notifications")

	return cmd
}
