package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/crosscast/tvlink/internal/device"
	"github.com/crosscast/tvlink/internal/harness"
	"github.com/crosscast/tvlink/internal/output"
)

var (
	deviceTestArchive     string
	deviceTestSkipInstall bool
	deviceTestDeadline    time.Duration
	deviceTestReportDir   string
	deviceTestOutput      string
)

// NewDeviceTestCmd creates the device test command.
func NewDeviceTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Run the on-device test suite and collect results",
		Long: `Install the test build, capture the runner's event stream from the
debug console, and write NDJSON and JUnit reports.

The command fails when any test fails or errors, so it can gate CI.`,
		RunE: runDeviceTest,
	}

	cmd.Flags().StringVar(&deviceTestArchive, "archive", "", "Test build archive (default <out>/app.zip)")
	cmd.Flags().BoolVar(&deviceTestSkipInstall, "skip-install", false, "Assume the test build is already installed")
	cmd.Flags().DurationVar(&deviceTestDeadline, "deadline", 0, "Wall-clock limit for the run (default from config)")
	cmd.Flags().StringVar(&deviceTestReportDir, "report-dir", "", "Report directory (default from config)")
	cmd.Flags().StringVarP(&deviceTestOutput, "output", "o", "table", "Result format (table, yaml, json)")

	return cmd
}

func runDeviceTest(cmd *cobra.Command, args []string) error {
	format, ok := output.ParseFormat(deviceTestOutput)
	if !ok {
		return fmt.Errorf("invalid output format %q (valid: %s)",
			deviceTestOutput, strings.Join(output.ValidFormats(), ", "))
	}

	client, err := deviceClient()
	if err != nil {
		return err
	}
	cfg := GetConfig()

	if !deviceTestSkipInstall {
		archivePath := deviceTestArchive
		if archivePath == "" {
			archivePath = filepath.Join(cfg.Build.OutDir, "app.zip")
		}
		if err := output.RunWithSpinner(cmd.Context(), func() error {
			return client.Install(cmd.Context(), archivePath)
		}, output.WithTitle("Installing test build on "+client.Host)); err != nil {
			return err
		}
	}

	deadline := deviceTestDeadline
	if deadline <= 0 {
		deadline = cfg.Test.Deadline
	}
	reportDir := deviceTestReportDir
	if reportDir == "" {
		reportDir = cfg.Test.ReportDir
	}

	addr := fmt.Sprintf("%s:%d", client.Host, device.HarnessPort)
	var console *os.File
	if verboseFlag {
		console = os.Stderr
	}

	run, err := harness.Collect(cmd.Context(), addr, consoleWriter(console), deadline)
	if len(run.Events) > 0 || err == nil {
		if reportErr := writeReports(reportDir, run); reportErr != nil {
			output.Error("could not write reports", "err", reportErr)
		}
		printRun(run, format)
	}
	if err != nil {
		return err
	}

	if run.Summary.Failures() {
		return fmt.Errorf("%d failed, %d errored", run.Summary.Failed, run.Summary.Errored)
	}
	return nil
}

func writeReports(dir string, run harness.Run) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	ndjson, err := os.Create(filepath.Join(dir, "events.ndjson"))
	if err != nil {
		return err
	}
	defer ndjson.Close()
	if err := harness.WriteNDJSON(ndjson, run.Events); err != nil {
		return err
	}

	junit, err := os.Create(filepath.Join(dir, "junit.xml"))
	if err != nil {
		return err
	}
	defer junit.Close()
	return harness.WriteJUnit(junit, run)
}

func printRun(run harness.Run, format output.OutputFormat) {
	switch format {
	case output.FormatJSON:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(run); err != nil {
			output.Error("could not encode run", "err", err)
		}
		return
	case output.FormatYAML:
		data, err := yaml.Marshal(run)
		if err != nil {
			output.Error("could not encode run", "err", err)
			return
		}
		output.Println(string(data))
		return
	}

	var rows []output.TestRow
	for _, ev := range run.Events {
		var outcome string
		switch ev.Kind {
		case harness.KindTestPass:
			outcome = output.OutcomePass
		case harness.KindTestFail:
			outcome = output.OutcomeFail
		case harness.KindTestError:
			outcome = output.OutcomeError
		case harness.KindTestIgnored:
			outcome = output.OutcomeIgnored
		default:
			continue
		}
		rows = append(rows, output.TestRow{
			Suite:    ev.Suite,
			Name:     ev.Test,
			Outcome:  outcome,
			Duration: time.Duration(ev.Seconds * float64(time.Second)),
			Message:  ev.Message,
		})
	}
	output.Println(output.RenderTestTable(rows))

	s := run.Summary
	output.Println(output.RenderTestSummaryLine(s.Passed, s.Failed+s.Errored, s.Ignored,
		time.Duration(s.Seconds*float64(time.Second))))
	if run.Truncated {
		output.Warn("test run was cut short; results may be incomplete")
	}
}

// consoleWriter keeps the nil check in one place since *os.File(nil) is not
// a nil io.Writer.
func consoleWriter(f *os.File) io.Writer {
	if f == nil {
		return nil
	}
	return f
}
