package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/simulation"
)

func newInspectCmd() *cobra.Command {
	var limit int

	inspectCmd := &cobra.Command{
		Use:   "inspect <DB>",
		Short: "List the runs recorded in a database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return inspect(cmd, args[0], limit)
		},
	}

	inspectCmd.Flags().IntVar(&limit, "limit", 0,
		"maximum number of runs to list, 0 for all")

	return inspectCmd
}

func inspect(cmd *cobra.Command, path string, limit int) error {
	reader, err := datarecording.NewReader(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	reader.MapTable(simulation.SummaryTableName, simulation.RunSummary{})

	results, total, err := reader.Query(cmd.Context(),
		simulation.SummaryTableName,
		datarecording.QueryParams{Limit: limit, OrderBy: "rowid"})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w,
		"RUN\tTRACE\tSIZE\tASSOC\tBLOCK\tREPLACEMENT\tWRITE\tACCESSES\tMISSES\tMEM READS\tMEM WRITES")

	for _, result := range results {
		s := result.(*simulation.RunSummary)
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\t%s\t%d\t%d\t%d\t%d\n",
			s.RunID, s.TraceFile, s.CacheSize, s.Associativity, s.BlockSize,
			s.Replacement, s.WritePolicy, s.Accesses, s.Misses,
			s.MemoryReads, s.MemoryWrites)
	}

	err = w.Flush()
	if err != nil {
		return err
	}

	if len(results) < total {
		fmt.Fprintf(cmd.OutOrStdout(), "(%d of %d runs)\n", len(results), total)
	}

	return nil
}
