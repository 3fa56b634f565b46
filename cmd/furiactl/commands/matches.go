package commands

import (
	"os"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(matchesCmd)
}

var matchesCmd = &cobra.Command{
	Use:   "matches",
	Short: "Prints the matches and subscribers currently in the store.",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}
		defer app.Close()

		matches, err := app.Store.Matches(cmd.Context())
		if err != nil {
			return err
		}
		subs, err := app.Store.Subscriptions(cmd.Context())
		if err != nil {
			return err
		}
		renderMatches(os.Stdout, matches, app.Config.Location())
		renderSubscribers(os.Stdout, subs)
		return nil
	},
}
