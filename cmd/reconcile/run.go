package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/cdr-reconcile/internal/model"
	"github.com/sells-group/cdr-reconcile/internal/reconcile"
)

var (
	runFileA     string
	runFileAName string
	runFileB     string
	runFileBName string
	runMappingA  string
	runMappingB  string
	runOutput    string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Reconcile two CDR files and report discrepancies",
	Long: `Loads both CDR files, matches calls within the configured time
tolerance, classifies billing discrepancies, and writes the job output as
JSON to --output (default: stdout).

Example:
  reconcile run --file-a ours.csv --file-b provider.xlsx \
    --mapping-a mapping-a.json --mapping-b mapping-b.json \
    --output result.json`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		mappingA, err := loadMapping(runMappingA)
		if err != nil {
			return eris.Wrap(err, "run: load mapping a")
		}
		mappingB, err := loadMapping(runMappingB)
		if err != nil {
			return eris.Wrap(err, "run: load mapping b")
		}

		input := model.JobInput{
			FileAPath:         runFileA,
			FileADeclaredName: declaredNameOrDefault(runFileAName, runFileA),
			FileBPath:         runFileB,
			FileBDeclaredName: declaredNameOrDefault(runFileBName, runFileB),
			MappingA:          mappingA,
			MappingB:          mappingB,
		}

		zap.L().Info("run: starting reconciliation",
			zap.String("file_a", runFileA),
			zap.String("file_b", runFileB),
		)

		output, err := reconcile.Reconcile(ctx, cfg, input)
		if err != nil {
			return eris.Wrap(err, "run: reconcile")
		}

		zap.L().Info("run: reconciliation complete",
			zap.String("job_id", output.JobID),
			zap.Int64("total_discrepancies", output.TotalDiscrepancyCount),
			zap.Bool("has_more", output.HasMore),
		)

		return writeJobOutput(output)
	},
}

func init() {
	runCmd.Flags().StringVar(&runFileA, "file-a", "", "path to side A's CDR file (required)")
	runCmd.Flags().StringVar(&runFileAName, "file-a-name", "", "declared filename for side A, used for format dispatch (default: basename of --file-a)")
	runCmd.Flags().StringVar(&runFileB, "file-b", "", "path to side B's CDR file (required)")
	runCmd.Flags().StringVar(&runFileBName, "file-b-name", "", "declared filename for side B, used for format dispatch (default: basename of --file-b)")
	runCmd.Flags().StringVar(&runMappingA, "mapping-a", "", "path to side A's column mapping JSON (required)")
	runCmd.Flags().StringVar(&runMappingB, "mapping-b", "", "path to side B's column mapping JSON (required)")
	runCmd.Flags().StringVar(&runOutput, "output", "", "write job output JSON to file (default: stdout)")
	_ = runCmd.MarkFlagRequired("file-a")
	_ = runCmd.MarkFlagRequired("file-b")
	_ = runCmd.MarkFlagRequired("mapping-a")
	_ = runCmd.MarkFlagRequired("mapping-b")
	rootCmd.AddCommand(runCmd)
}

// loadMapping reads a canonical-field-to-source-column mapping from a JSON
// object file, per spec.md §6.1.
func loadMapping(path string) (model.Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "read mapping file")
	}
	var m model.Mapping
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, eris.Wrap(err, "parse mapping json")
	}
	return m, nil
}

func declaredNameOrDefault(declared, path string) string {
	if declared != "" {
		return declared
	}
	return filepath.Base(path)
}

// writeJobOutput writes output as indented JSON to --output, or stdout.
func writeJobOutput(output *model.JobOutput) error {
	var w *os.File
	if runOutput != "" {
		f, err := os.Create(runOutput)
		if err != nil {
			return eris.Wrap(err, "create output file")
		}
		defer f.Close() //nolint:errcheck
		w = f
	} else {
		w = os.Stdout
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}
