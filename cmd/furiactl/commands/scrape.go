package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/riclovato/furia-chatbot/internal/model"

	"github.com/spf13/cobra"
)

var scrapeForce bool

func init() {
	scrapeCmd.Flags().BoolVar(&scrapeForce, "force", false, "bypass the page cache")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Fetches the schedule page and prints normalized matches and rejected fragments. The store is not touched.",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}
		defer app.Close()

		page, err := app.Extractor.FetchRaw(cmd.Context(), scrapeForce)
		if err != nil {
			return err
		}
		if page.Empty {
			fmt.Fprintln(os.Stdout, "page reports no scheduled matches")
			return nil
		}

		candidates, rejections := app.Normalizer.NormalizePage(page)
		accepted, invalid, dropped := validateCandidates(candidates, app.Validator.Validate)
		rejections = append(rejections, invalid...)

		renderMatches(os.Stdout, accepted, app.Config.Location())
		if dropped > 0 {
			fmt.Fprintf(os.Stdout, "%d already started, skipped\n", dropped)
		}
		if len(rejections) > 0 {
			renderRejections(os.Stdout, rejections)
		}
		return nil
	},
}

// validateCandidates splits candidates the same way a sync does: matches that
// already started are counted, not rejected.
func validateCandidates(candidates []model.Match, validate func(model.Match) (model.Match, error)) ([]model.Match, []model.Rejection, int) {
	var (
		accepted   []model.Match
		rejections []model.Rejection
		dropped    int
	)
	for _, c := range candidates {
		m, err := validate(c)
		switch {
		case err == nil:
			accepted = append(accepted, m)
		case errors.Is(err, model.ErrMatchPast):
			dropped++
		default:
			r := model.Rejection{Reason: model.RejectInvalid, Detail: err.Error()}
			if re, ok := model.IsRejected(err); ok {
				r.Reason, r.Detail = re.Reason, re.Detail
			}
			rejections = append(rejections, r)
		}
	}
	model.SortMatches(accepted)
	return accepted, rejections, dropped
}
