package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/tunedata/qaforge/pkg/adapter"
	"github.com/tunedata/qaforge/pkg/artifact"
	"github.com/tunedata/qaforge/pkg/config"
	"github.com/tunedata/qaforge/pkg/pipeline"
	"github.com/tunedata/qaforge/pkg/stage"
	"github.com/tunedata/qaforge/pkg/stats"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "qaforge",
		Short: "Turn source documents into fine-tuning-ready QA pairs",
		Long: `qaforge orchestrates a fixed sequence of external stages
	(extract, segment, generate, fix, quality-check) that turn a source
	document into fine-tuning-ready question/answer pairs, reconciling
	stage outputs and reporting aggregate statistics.`,
	}

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(stagesCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(checkCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	var pdfFlag string
	var outputFlag string
	var manifestFlag string
	var scriptsDirFlag string
	var interpreterFlag string
	var skipExisting bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the QA pipeline",
		Long: `Runs the stage sequence against a source document. Without --pdf the
	extract stage is bypassed and the segment stage's input must already
	exist in the output directory. With --skip-existing, stages whose
	declared outputs are already present and non-empty are not re-run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			stageList, err := loadStages(manifestFlag)
			if err != nil {
				return err
			}

			rc, err := stage.NewRunContext(pdfFlag, outputFlag, skipExisting)
			if err != nil {
				return err
			}
			if interpreterFlag != "" {
				rc.Interpreter = interpreterFlag
			} else if cfg.Interpreter != "" {
				rc.Interpreter = cfg.Interpreter
			}
			scriptsDir := scriptsDirFlag
			if scriptsDir == "" {
				scriptsDir = cfg.ScriptsDir
			}
			if scriptsDir != "" {
				abs, err := filepath.Abs(scriptsDir)
				if err != nil {
					return err
				}
				rc.ScriptsDir = abs
			}

			result, runErr := pipeline.Run(context.Background(), stageList, rc, pipeline.RunOptions{
				Logger: log.Printf,
			})

			// The digest is printed after success and after a fail-fast
			// halt alike; everything produced so far stays inspectable.
			reporter := &stats.Reporter{}
			if err := stats.Render(os.Stdout, reporter.Collect(stageList, rc)); err != nil {
				return err
			}

			if runErr != nil {
				return runErr
			}
			fmt.Fprintf(os.Stderr, "Run complete. Evidence: %s\n", result.EvidenceDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&pdfFlag, "pdf", "", "source document path (omit to resume from segment)")
	cmd.Flags().StringVar(&outputFlag, "output", "output", "output directory")
	cmd.Flags().BoolVar(&skipExisting, "skip-existing", false, "skip stages whose outputs already exist")
	cmd.Flags().StringVarP(&manifestFlag, "manifest", "f", "", "stage manifest path (defaults to the built-in stage list)")
	cmd.Flags().StringVar(&scriptsDirFlag, "scripts-dir", "", "directory holding the stage scripts")
	cmd.Flags().StringVar(&interpreterFlag, "interpreter", "", "interpreter for stage scripts (default python3)")

	return cmd
}

func statsCmd() *cobra.Command {
	var outputFlag string
	var manifestFlag string
	var reportsFlag string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Report record counts and quality summaries for a run",
		RunE: func(cmd *cobra.Command, args []string) error {
			stageList, err := loadStages(manifestFlag)
			if err != nil {
				return err
			}
			rc, err := stage.NewRunContext("", outputFlag, false)
			if err != nil {
				return err
			}
			reporter := &stats.Reporter{ReportDir: reportsFlag}
			return stats.Render(os.Stdout, reporter.Collect(stageList, rc))
		},
	}

	cmd.Flags().StringVar(&outputFlag, "output", "output", "output directory to inspect")
	cmd.Flags().StringVarP(&manifestFlag, "manifest", "f", "", "stage manifest path")
	cmd.Flags().StringVar(&reportsFlag, "reports", "", "directory to search for quality reports (defaults to the output directory)")

	return cmd
}

func stagesCmd() *cobra.Command {
	var manifestFlag string

	cmd := &cobra.Command{
		Use:   "stages",
		Short: "Show the ordered stage list",
		RunE: func(cmd *cobra.Command, args []string) error {
			stageList, err := loadStages(manifestFlag)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "STAGE\tSCRIPT\tINPUTS\tOUTPUTS")
			for _, desc := range stageList {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					desc.Name, desc.Script, refNames(desc.Inputs), refNames(desc.Outputs))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&manifestFlag, "manifest", "f", "", "stage manifest path")

	return cmd
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [manifest.yaml]",
		Short: "Validate a stage manifest",
		Long:  "Validates manifest YAML without executing any stage.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := stage.LoadManifest(args[0]); err != nil {
				return err
			}
			fmt.Println("Stage manifest is valid.")
			return nil
		},
	}
}

func checkCmd() *cobra.Command {
	var timeoutFlag time.Duration

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify LLM provider connectivity",
		Long: `Sends a one-line probe prompt to each configured provider so
	credential problems surface before a long pipeline run, not during it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			adapters, err := createAdapters(cfg)
			if err != nil {
				return err
			}
			if len(adapters) == 0 {
				return fmt.Errorf("no providers configured; set ANTHROPIC_API_KEY, OPENAI_API_KEY, GOOGLE_API_KEY or DEEPSEEK_API_KEY")
			}

			ctx, cancel := context.WithTimeout(context.Background(), timeoutFlag)
			defer cancel()

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PROVIDER\tMODEL\tSTATUS")

			failures := 0
			for _, a := range adapters {
				model := a.Models()[0]
				status := "ok"
				if _, err := a.Generate(ctx, model, "Hello, this is an API connectivity test."); err != nil {
					status = err.Error()
					failures++
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", a.Name(), model, status)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if failures > 0 {
				return fmt.Errorf("%d provider check(s) failed", failures)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeoutFlag, "timeout", 30*time.Second, "per-check timeout")

	return cmd
}

func loadStages(manifestPath string) ([]stage.Descriptor, error) {
	if manifestPath == "" {
		return stage.DefaultStages(), nil
	}
	return stage.LoadManifest(manifestPath)
}

func createAdapters(cfg *config.Config) ([]adapter.Adapter, error) {
	var adapters []adapter.Adapter

	if cfg.AnthropicAPIKey != "" {
		a, err := adapter.NewAnthropicAdapter(cfg.AnthropicAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create anthropic adapter: %w", err)
		}
		adapters = append(adapters, a)
	}

	if cfg.OpenAIAPIKey != "" {
		a, err := adapter.NewOpenAIAdapter(cfg.OpenAIAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create openai adapter: %w", err)
		}
		adapters = append(adapters, a)
	}

	if cfg.GoogleAPIKey != "" {
		a, err := adapter.NewGoogleAdapter(cfg.GoogleAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create google adapter: %w", err)
		}
		adapters = append(adapters, a)
	}

	if cfg.DeepSeekAPIKey != "" {
		a, err := adapter.NewDeepSeekAdapter(cfg.DeepSeekAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create deepseek adapter: %w", err)
		}
		adapters = append(adapters, a)
	}

	return adapters, nil
}

func refNames(refs []artifact.Ref) string {
	if len(refs) == 0 {
		return "-"
	}
	names := make([]string, 0, len(refs))
	for _, ref := range refs {
		names = append(names, ref.RelPath)
	}
	return strings.Join(names, ", ")
}
