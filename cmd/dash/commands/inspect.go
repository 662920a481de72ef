package commands

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wonny/dietdash/internal/contracts"
	"github.com/wonny/dietdash/internal/dataset"
	"github.com/wonny/dietdash/internal/geo"
	"github.com/wonny/dietdash/pkg/redis"
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Summarize the cleaned dataset",
	Long: `Loads and cleans the dataset and prints a summary.

Shows:
- row count, mean obesity and completeness of the source file
- column statistics of the covid and diet columns
- the top countries by a column
- how every country name was resolved to an ISO code (--geo)

Example:
  go run ./cmd/dash inspect
  go run ./cmd/dash inspect --top 5 --by Mortality --geo`,
	RunE: runInspect,
}

var (
	inspectTop int
	inspectBy  string
	inspectGeo bool
)

func init() {
	rootCmd.AddCommand(inspectCmd)

	// Flags
	inspectCmd.Flags().IntVar(&inspectTop, "top", 10, "number of top countries to list")
	inspectCmd.Flags().StringVar(&inspectBy, "by", contracts.ColConfirmed, "column ranking the top countries")
	inspectCmd.Flags().BoolVar(&inspectGeo, "geo", false, "list every country code resolution")
}

// describeColumns are summarized by inspect
var describeColumns = []string{
	contracts.ColConfirmed,
	contracts.ColDeaths,
	contracts.ColActive,
	contracts.ColMortality,
	contracts.ColObesity,
	contracts.ColUndernourished,
	contracts.ColAnimalProducts,
	contracts.ColVegetalProducts,
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newCLILogger(cfg)

	rc, err := redis.New(context.Background(), cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer rc.Close()

	resolver := newResolver(cfg, log, rc)
	ds, err := loadDataset(context.Background(), cfg, log, resolver)
	if err != nil {
		return err
	}

	var resolutions []geo.Resolution
	if inspectGeo {
		resolutions = resolver.Resolutions()
	}
	return printInspect(cmd.OutOrStdout(), ds, inspectTop, inspectBy, resolutions)
}

// printInspect writes the dataset summary
func printInspect(w io.Writer, ds *dataset.Dataset, top int, by string, resolutions []geo.Resolution) error {
	PrintHeader(w, "Dataset")
	PrintKeyValue(w, "Countries", strconv.Itoa(ds.Len()), 14)
	PrintKeyValue(w, "Mean obesity", FormatFloat(ds.MeanObesity()), 14)
	PrintKeyValue(w, "Unresolved", strconv.Itoa(len(ds.Unresolved())), 14)

	// Completeness of the source file
	q := ds.Quality()
	PrintKeyValue(w, "Complete rows", fmt.Sprintf("%d / %d", q.ValidRows, q.Rows), 14)
	PrintKeyValue(w, "Quality score", FormatFloat(q.QualityScore), 14)
	if !q.Passed {
		PrintWarning(w, fmt.Sprintf("quality score below %.2f", contracts.MinQualityScore))
	}

	PrintHeader(w, "Coverage")
	coverage := NewTable(w, []string{"Group", "Coverage"})
	for _, group := range []string{contracts.CoverageCovid, contracts.CoverageDiet, contracts.CoverageHealth, contracts.CoverageGeo} {
		coverage.Append([]string{group, fmt.Sprintf("%.1f%%", q.Coverage[group]*100)})
	}
	coverage.Render()

	if len(q.Filled) > 0 {
		cols := make([]string, 0, len(q.Filled))
		for col := range q.Filled {
			cols = append(cols, col)
		}
		sort.Strings(cols)

		filled := NewTable(w, []string{"Column", "Mean-filled cells"})
		for _, col := range cols {
			filled.Append([]string{col, strconv.Itoa(q.Filled[col])})
		}
		filled.Render()
	}

	// Column statistics
	if frame := ds.Frame(); frame.Ncol() > 0 {
		desc := frame.Select(describeColumns).Describe()
		if desc.Err != nil {
			return fmt.Errorf("describe dataset: %w", desc.Err)
		}
		records := desc.Records()

		PrintHeader(w, "Column statistics")
		table := NewTable(w, records[0])
		table.AppendBulk(records[1:])
		table.Render()
	}

	// Top countries
	sorted, ok := ds.SortedBy(by)
	if !ok {
		return fmt.Errorf("%w: column %q", contracts.ErrInvalidControl, by)
	}
	if top > len(sorted) {
		top = len(sorted)
	}
	if top > 0 {
		PrintHeader(w, fmt.Sprintf("Top %d by %s", top, by))
		table := NewTable(w, []string{"#", "Country", by, "Obesity"})
		for i, rec := range sorted[:top] {
			v, _ := rec.Value(by)
			table.Append([]string{strconv.Itoa(i + 1), rec.Country, FormatFloat(v), FormatFloat(rec.Obesity)})
		}
		table.Render()
	}

	// Geo resolutions
	if len(resolutions) > 0 {
		PrintHeader(w, "Country codes")
		table := NewTable(w, []string{"Country", "Code", "Source"})
		for _, r := range resolutions {
			table.Append([]string{r.Name, r.Code, r.Source})
		}
		table.Render()
	}

	if unresolved := ds.Unresolved(); len(unresolved) > 0 {
		fmt.Fprintln(w)
		PrintWarning(w, fmt.Sprintf("%d countries have no ISO code and are left off the map:", len(unresolved)))
		PrintList(w, unresolved)
	}
	return nil
}
