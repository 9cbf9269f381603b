// licorflow converts LI-COR instrument log files to typed columnar tables
// in Parquet, Arrow IPC or CSV.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/licorflow/licorflow/pkg/config"
)

var (
	version = "1.0.0"
	commit  = "dev"
)

// CLI flags
var (
	deviceFlag      string
	configFlag      string
	formatFlag      string
	compressionFlag string
	outputDirFlag   string
	workersFlag     int
	verbose         bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "licorflow",
	Short: "Convert LI-COR gas exchange logs to columnar tables",
	Long: `licorflow parses LI-COR portable photosynthesis system log files and
writes them out as typed columnar tables (Parquet, Arrow IPC or CSV).

Multi-line observations are merged, values are coerced against the
device's variable schema, and malformed cells become nulls with
warnings instead of failing the file.`,
	Version: fmt.Sprintf("%s (%s)", version, commit),
}

func init() {
	defaults := config.Global().Get()

	rootCmd.PersistentFlags().StringVar(&deviceFlag, "device", defaults.Conversion.Device, "instrument model (e.g. 6800)")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", defaults.Conversion.Config, "measurement configuration (standard, fluorometer, aquatic, soil)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print per-cell warnings")

	convertCmd.Flags().StringVarP(&formatFlag, "format", "f", defaults.Conversion.Format, "output format (parquet, arrow, csv)")
	convertCmd.Flags().StringVar(&compressionFlag, "compression", defaults.Conversion.Compression, "parquet compression codec")
	convertCmd.Flags().StringVarP(&outputDirFlag, "output", "o", defaults.Conversion.OutputDir, "output directory")
	convertCmd.Flags().IntVar(&workersFlag, "workers", defaults.Conversion.Workers, "concurrent conversions (0 = one per CPU)")

	watchCmd.Flags().StringVarP(&formatFlag, "format", "f", defaults.Conversion.Format, "output format (parquet, arrow, csv)")
	watchCmd.Flags().StringVarP(&outputDirFlag, "output", "o", defaults.Conversion.OutputDir, "output directory")

	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)
}
