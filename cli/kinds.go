package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var kindsJSON bool

var kindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "List or register payload and companion kinds",
	Long: `Manage the extension registry.

Payload kinds are the container extensions a pointer file may declare, such as
.mkv in 'Movie.(mkv).strm'. Companion kinds are the sibling files (metadata,
subtitles, artwork, audio) that get kind-qualified links.

Added kinds are saved to the configuration file. To remove a kind, edit the
file directly.`,
}

var kindsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered kinds",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		payload, companion := cfg.Registry().ListKinds()
		if kindsJSON {
			return writeJSON(cmd.OutOrStdout(), map[string][]string{
				"payload":   payload,
				"companion": companion,
			})
		}
		printKinds(cmd.OutOrStdout(), payload, companion)
		return nil
	},
}

var kindsAddPayloadCmd = &cobra.Command{
	Use:   "add-payload <ext>...",
	Short: "Register payload kinds",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return addKinds(cmd, args, "payload")
	},
}

var kindsAddCompanionCmd = &cobra.Command{
	Use:   "add-companion <ext>...",
	Short: "Register companion kinds",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return addKinds(cmd, args, "companion")
	},
}

func init() {
	kindsListCmd.Flags().BoolVar(&kindsJSON, "json", false, "Print the kinds as JSON")
	kindsCmd.AddCommand(kindsListCmd, kindsAddPayloadCmd, kindsAddCompanionCmd)
	rootCmd.AddCommand(kindsCmd)
}

func addKinds(cmd *cobra.Command, tokens []string, set string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	changed := false
	for _, tok := range tokens {
		var added bool
		if set == "payload" {
			added = cfg.AddPayloadKind(tok)
		} else {
			added = cfg.AddCompanionKind(tok)
		}
		if added {
			changed = true
			fmt.Fprintf(out, "Added %s kind %s\n", set, tok)
		} else {
			fmt.Fprintf(out, "%s\n", mutedStyle.Render(fmt.Sprintf("%s kind %s already registered", set, tok)))
		}
	}

	if !changed {
		return nil
	}
	if err := cfg.Save(configPath); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	return nil
}
