package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/harminx/harminx/pkg/harconfig"
	"github.com/harminx/harminx/pkg/logging"
	"github.com/harminx/harminx/pkg/orchestrator"
	"github.com/harminx/harminx/pkg/tailbuffer"
)

// runLogTailSize is how much recent log output is kept in memory so it
// can be dumped as a diagnostic recap if the run fails.
const runLogTailSize = 16 * 1024

func newRunCmd() *cobra.Command {
	var (
		configPath    string
		inputPath     string
		outputPath    string
		reportPath    string
		reportFormat  string
		rps           float64
		maxConcurrent int
		logLevel      string
		logFormat     string
	)

	c := &cobra.Command{
		Use:   "run",
		Short: "Replay a HAR archive and minimize each request",
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides := map[string]interface{}{}
			if cmd.Flags().Changed("input") {
				overrides["input_har"] = inputPath
			}
			if cmd.Flags().Changed("output") {
				overrides["output_har"] = outputPath
			}
			if cmd.Flags().Changed("report") {
				overrides["report_path"] = reportPath
			}
			if cmd.Flags().Changed("rps") {
				overrides["client"] = map[string]interface{}{
					"rate_limit": map[string]interface{}{"requests_per_second": rps},
				}
			}
			if cmd.Flags().Changed("max-concurrent") {
				client, _ := overrides["client"].(map[string]interface{})
				if client == nil {
					client = map[string]interface{}{}
				}
				rateLimit, _ := client["rate_limit"].(map[string]interface{})
				if rateLimit == nil {
					rateLimit = map[string]interface{}{}
				}
				rateLimit["max_concurrent"] = maxConcurrent
				client["rate_limit"] = rateLimit
				overrides["client"] = client
			}

			cfg, err := harconfig.Load(configPath, overrides)
			if err != nil {
				return err
			}

			log := logging.New(logLevel, logFormat)
			tail := tailbuffer.NewTailBuffer(runLogTailSize)
			log.SetOutput(io.MultiWriter(os.Stderr, tail))

			// Fold cobra's own post-RunE "Error: ..." announcement into
			// the structured logger instead of letting it bypass it.
			// The pipe is intentionally left open: this is a one-shot
			// process, and closing it here would race cobra's write.
			cmd.SetErr(log.Writer())

			orch, err := orchestrator.New(cfg, log)
			if err != nil {
				return err
			}

			_, runErr := orch.Run(cmd.Context(), reportFormat)
			if runErr != nil {
				dumpRunLogTail(os.Stderr, tail)
			}
			return runErr
		},
	}

	c.Flags().StringVar(&configPath, "config", "", "path to a YAML or JSON config file")
	c.Flags().StringVar(&inputPath, "input", "", "input HAR archive path (overrides config)")
	c.Flags().StringVar(&outputPath, "output", "", "output HAR archive path (overrides config)")
	c.Flags().StringVar(&reportPath, "report", "", "minimization report path (overrides config)")
	c.Flags().StringVar(&reportFormat, "format", "json", "report format: json or table")
	c.Flags().Float64Var(&rps, "rps", 0, "requests per second rate limit (overrides config)")
	c.Flags().IntVar(&maxConcurrent, "max-concurrent", 0, "max concurrent in-flight requests (overrides config)")
	c.Flags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	c.Flags().StringVar(&logFormat, "log-format", "text", "log format: text or json")

	return c
}

// dumpRunLogTail prints the most recent log output to help diagnose a
// failed run, since cobra only surfaces the returned error itself.
func dumpRunLogTail(w io.Writer, tail io.Reader) {
	data, err := io.ReadAll(tail)
	if err != nil || len(data) == 0 {
		return
	}
	fmt.Fprintln(w, "--- recent log output ---")
	_, _ = w.Write(data)
}
