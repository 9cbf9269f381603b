package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/licorflow/licorflow/pkg/batch"
	"github.com/licorflow/licorflow/pkg/config"
	"github.com/licorflow/licorflow/pkg/registry"
	"github.com/licorflow/licorflow/pkg/sink"
	"github.com/licorflow/licorflow/pkg/telemetry"
	"github.com/licorflow/licorflow/pkg/tui"
	"github.com/licorflow/licorflow/pkg/watch"
)

var convertCmd = &cobra.Command{
	Use:   "convert [files or globs...]",
	Short: "Convert log files to columnar output",
	Long: `Convert one or more LI-COR log files. Arguments may be literal paths
or globs; each file is converted independently, and one bad file never
stops the rest of the batch.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConvert,
}

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List supported device and configuration pairs",
	RunE:  runDevices,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("licorflow %s (%s)\n", version, commit)
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Watch a directory and convert finished logs",
	Long: `Watch a directory for new log files. A file is converted once it has
stopped growing for the configured settle interval, so logs still being
written by the console are left alone.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runConvert(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg := config.Global().Get()
	shutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		Endpoint:       cfg.Telemetry.Endpoint,
		ServiceVersion: version,
		InsecureTLS:    true,
	})
	if err != nil {
		return err
	}
	defer shutdown(context.Background())

	format, err := sink.ParseKind(formatFlag)
	if err != nil {
		return err
	}

	inputs, err := expandInputs(args)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no input files match %s", strings.Join(args, " "))
	}

	jobs := batch.Plan(inputs, outputDirFlag, deviceFlag, configFlag, format, sink.Options{
		Compression: compressionFlag,
	})

	bar := tui.ShowProgress(int64(len(jobs)), "converting")
	runner := batch.NewRunner(workersFlag)
	runner.OnResult = func(batch.Result) { bar.Add(1) }

	ctx, span := telemetry.StartSpan(ctx, "batch.convert")
	results, runErr := runner.Run(ctx, jobs)
	span.End()
	bar.Finish()

	tui.PrintBatchReport(results)

	if verbose {
		for _, res := range results {
			if len(res.WarningList) > 0 {
				fmt.Println("  " + filepath.Base(res.Input) + ":")
				tui.PrintWarnings(res.WarningList, 20)
			}
		}
	}

	return runErr
}

func runDevices(cmd *cobra.Command, args []string) error {
	pairs := registry.Pairs()
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Device != pairs[j].Device {
			return pairs[i].Device < pairs[j].Device
		}
		return pairs[i].Config < pairs[j].Config
	})

	for _, key := range pairs {
		schema, err := registry.Lookup(key.Device, key.Config)
		if err != nil {
			return err
		}
		fmt.Printf("%-6s %-12s %3d columns, required: %s\n",
			key.Device, key.Config, len(schema.Columns),
			strings.Join(schema.Required(), ", "))
	}
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg := config.Global().Get()
	format, err := sink.ParseKind(formatFlag)
	if err != nil {
		return err
	}

	w, err := watch.New(cfg.Watch.Settle, cfg.Watch.Pattern)
	if err != nil {
		return err
	}

	runner := batch.NewRunner(1)
	w.OnLog = func(path string) {
		jobs := batch.Plan([]string{path}, outputDirFlag, deviceFlag, configFlag, format, sink.Options{})
		results, _ := runner.Run(ctx, jobs)
		tui.PrintBatchReport(results)
	}
	w.OnError = func(err error) {
		fmt.Fprintf(os.Stderr, "watch: %v\n", err)
	}

	if err := w.Add(args[0]); err != nil {
		return err
	}

	fmt.Printf("watching %s (settle %s, pattern %q)\n", args[0], cfg.Watch.Settle, cfg.Watch.Pattern)
	if err := w.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

// expandInputs resolves glob arguments; a literal path with no matches is
// kept so the missing file shows up as its own batch failure.
func expandInputs(args []string) ([]string, error) {
	var inputs []string
	for _, arg := range args {
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", arg, err)
		}
		if len(matches) == 0 {
			inputs = append(inputs, arg)
			continue
		}
		sort.Strings(matches)
		inputs = append(inputs, matches...)
	}
	return inputs, nil
}
