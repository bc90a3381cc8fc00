package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/thirdweb-dev/tracecollector/internal/stats"
	"github.com/thirdweb-dev/tracecollector/internal/storage"
)

var statsCmd = &cobra.Command{
	Use:   "stats <file>",
	Short: "Summarize gas usage and storage slot access of a collected file",
	Args:  cobra.ExactArgs(1),
	Run:   RunStats,
}

func init() {
	statsCmd.Flags().Bool("json", false, "Print the report as JSON")
	statsCmd.Flags().Uint64("bucket-size", stats.DefaultGasBucketSize, "Width of a transaction gas usage histogram bucket")
}

func RunStats(cmd *cobra.Command, args []string) {
	asJSON, _ := cmd.Flags().GetBool("json")
	bucketSize, _ := cmd.Flags().GetUint64("bucket-size")

	if err := runStats(os.Stdout, args[0], bucketSize, asJSON); err != nil {
		log.Fatal().Err(err).Str("file", args[0]).Msg("Failed to build stats")
	}
}

func runStats(w io.Writer, path string, bucketSize uint64, asJSON bool) error {
	result, err := storage.ReadJSONFile(path)
	if err != nil {
		return err
	}
	report, err := stats.Analyze(result, bucketSize)
	if err != nil {
		return err
	}

	if asJSON {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(report); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		return nil
	}
	stats.Render(w, report)
	return nil
}
