package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dalemusser/classforge/internal/app/ideaflow"
	ideastore "github.com/dalemusser/classforge/internal/app/store/ideas"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newVerifyMergesCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify-merges",
		Short: "Report ideas that break the merge rules",
		Long: `Scans every idea and reports merge-state violations: a merged idea that is
both source and result (or neither), results without two authors or with a
single submitter, sources pointing at another source, and results whose
sources do not point back. Exits non-zero when anything is found.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeDB, err := o.open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			svc := ideaflow.New(db, nil, nil, nil, zap.NewNop())
			violations, checked, err := svc.VerifyMerges(cmd.Context())
			if err != nil {
				return err
			}
			for _, v := range violations {
				cmd.Println(v.String())
			}
			counts, err := ideastore.New(db).CountByStatus(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Printf("checked %d ideas (%s), %d violations\n", checked, statusSummary(counts), len(violations))
			if len(violations) > 0 {
				return fmt.Errorf("%d merge violations", len(violations))
			}
			return nil
		},
	}
}

// statusSummary renders counts as "approved=1 pending=2", sorted by status.
func statusSummary(counts map[string]int64) string {
	statuses := make([]string, 0, len(counts))
	for st := range counts {
		statuses = append(statuses, st)
	}
	sort.Strings(statuses)

	parts := make([]string, len(statuses))
	for i, st := range statuses {
		parts[i] = fmt.Sprintf("%s=%d", st, counts[st])
	}
	return strings.Join(parts, " ")
}
