package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/medusecase/internal/dataset"
	"github.com/ppiankov/medusecase/internal/model"
)

var statsFormat string

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats <file>",
	Short: "Show usecase coverage of a dataset",
	Long: `Stats counts how many medicines in a dataset have a usecase, how many
were resolved as unknown and how many were never processed.

Example:
  medusecase stats a_z_medicines_with_usecases.csv
  medusecase stats a_z_medicines_with_usecases.csv --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().StringVar(&statsFormat, "format", "text", "output format (text, json, yaml)")
	statsCmd.Flags().IntVar(&sampleRows, "sample", 10, "rows to print in text format")
}

func runStats(cmd *cobra.Command, args []string) error {
	ds, err := dataset.Load(args[0])
	if err != nil {
		return err
	}
	return writeStats(cmd.OutOrStdout(), ds, statsFormat, sampleRows)
}

func writeStats(w io.Writer, ds *model.Dataset, format string, sample int) error {
	stats := ds.Stats()

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	case "yaml":
		data, err := yaml.Marshal(stats)
		if err != nil {
			return fmt.Errorf("marshal stats: %w", err)
		}
		_, err = w.Write(data)
		return err
	case "text", "":
		printSample(w, ds, sample)
		printStats(w, stats)
		return nil
	default:
		return fmt.Errorf("unknown format %q (supported: text, json, yaml)", format)
	}
}

// printSample prints the first n rows with their usecase
func printSample(w io.Writer, ds *model.Dataset, n int) {
	if n <= 0 || ds.Len() == 0 {
		return
	}
	n = min(n, ds.Len())

	fmt.Fprintln(w, "\nSample of processed data:")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCOMPOSITION\tUSECASE")
	for i := 0; i < n; i++ {
		rec := ds.Record(i)
		composition := ""
		if len(rec.Compositions) > 0 {
			composition = rec.Compositions[0]
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", rec.Name, composition, rec.Usecase)
	}
	_ = tw.Flush()
}

func printStats(w io.Writer, s model.Stats) {
	fmt.Fprintln(w, "\nStatistics:")
	fmt.Fprintf(w, "  Total medicines:                 %d\n", s.Total)
	fmt.Fprintf(w, "  Medicines with usecases:         %d\n", s.Resolved)
	fmt.Fprintf(w, "  Medicines with unknown usecases: %d\n", s.Unknown)
	fmt.Fprintf(w, "  Medicines with missing usecases: %d\n", s.Missing)
}

