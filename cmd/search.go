package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pracownik123GWW/CbosaEmailSender/internal/cbosa"
)

type searchFlags struct {
	keywords   string
	signature  string
	court      string
	judge      string
	caseSymbol string
	tags       string
	dateFrom   string
	dateTo     string
	maxResults int
}

// query maps the CLI flags onto the semantic query keys the engine
// understands. Empty flags are left out so portal defaults apply.
func (f searchFlags) query() cbosa.SearchQuery {
	q := cbosa.SearchQuery{}
	put := func(key, val string) {
		if val != "" {
			q[key] = val
		}
	}
	put("keywords", f.keywords)
	put("signature", f.signature)
	put("court", f.court)
	put("judge", f.judge)
	put("case_symbol", f.caseSymbol)
	put("thematic_tags", f.tags)
	put("date_from", f.dateFrom)
	put("date_to", f.dateTo)
	return q
}

func registerSearchFlags(cmd *cobra.Command, f *searchFlags) {
	cmd.Flags().StringVar(&f.keywords, "keywords", "", "match judgments containing all of these words")
	cmd.Flags().StringVar(&f.signature, "signature", "", "restrict to a case signature")
	cmd.Flags().StringVar(&f.court, "court", "", "restrict to one court")
	cmd.Flags().StringVar(&f.judge, "judge", "", "restrict to one judge")
	cmd.Flags().StringVar(&f.caseSymbol, "symbol", "", "restrict to a case symbol")
	cmd.Flags().StringVar(&f.tags, "tags", "", "restrict to a thematic tag")
	cmd.Flags().StringVar(&f.dateFrom, "date-from", "", "judgment date lower bound (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.dateTo, "date-to", "", "judgment date upper bound (YYYY-MM-DD)")
	cmd.Flags().IntVar(&f.maxResults, "max-results", 0, "result quota (0 uses the configured default)")
}

// newSearchCmd creates the 'search' subcommand, which lists matching cases
// without downloading their documents.
func newSearchCmd() *cobra.Command {
	var flags searchFlags
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Searches CBOSA and lists matching cases as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			quota := flags.maxResults
			if quota <= 0 {
				quota = a.cfg.Retrieval.MaxResults
			}

			cases, err := a.client.SearchCases(cmd.Context(), flags.query(), quota)
			if err != nil {
				return fmt.Errorf("search cases: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(cases)
		},
	}
	registerSearchFlags(cmd, &flags)
	return cmd
}
