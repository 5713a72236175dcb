package reconcile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/cdr-reconcile/internal/config"
	"github.com/sells-group/cdr-reconcile/internal/model"
)

func writeTestCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testMapping() model.Mapping {
	return model.Mapping{
		model.FieldANumber:       "a_number",
		model.FieldBNumber:       "b_number",
		model.FieldSeizeTime:     "seize_time",
		model.FieldBilledDuration: "duration",
		model.FieldRate:          "rate",
		model.FieldLRN:           "lrn",
	}
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Scratch: config.ScratchConfig{Dir: t.TempDir()},
		Limits:  config.LimitsConfig{MaxFileBytes: 500 * 1024 * 1024, MaxRows: 2_000_000},
		Matcher: config.MatcherConfig{ToleranceSeconds: 60},
		Stage:   config.StageConfig{BatchSize: 10_000, TopK: 1000},
		Log:     config.LogConfig{Level: "error", Format: "json"},
	}
}

func TestReconcile_PerfectMatchYieldsNoDiscrepancies(t *testing.T) {
	dir := t.TempDir()
	csvA := "a_number,b_number,seize_time,duration,rate,lrn\n5551234567,5559876543,1700000000,60,0.02,5559876543\n"
	csvB := "a_number,b_number,seize_time,duration,rate,lrn\n5551234567,5559876543,1700000005,60,0.02,5559876543\n"

	input := model.JobInput{
		FileAPath:         writeTestCSV(t, dir, "a.csv", csvA),
		FileADeclaredName: "a.csv",
		FileBPath:         writeTestCSV(t, dir, "b.csv", csvB),
		FileBDeclaredName: "b.csv",
		MappingA:          testMapping(),
		MappingB:          testMapping(),
	}

	out, err := Reconcile(context.Background(), testConfig(t), input)
	require.NoError(t, err)
	assert.Equal(t, int64(0), out.TotalDiscrepancyCount)
	assert.Equal(t, int64(1), out.Summary.MatchedRecords)
	assert.False(t, out.HasMore)
}

func TestReconcile_MissingInProviderIsReported(t *testing.T) {
	dir := t.TempDir()
	csvA := "a_number,b_number,seize_time,duration,rate,lrn\n5551234567,5559876543,1700000000,60,0.02,5559876543\n"
	csvB := "a_number,b_number,seize_time,duration,rate,lrn\n"

	input := model.JobInput{
		FileAPath:         writeTestCSV(t, dir, "a.csv", csvA),
		FileADeclaredName: "a.csv",
		FileBPath:         writeTestCSV(t, dir, "b.csv", csvB),
		FileBDeclaredName: "b.csv",
		MappingA:          testMapping(),
		MappingB:          testMapping(),
	}

	out, err := Reconcile(context.Background(), testConfig(t), input)
	require.NoError(t, err)
	require.Len(t, out.Discrepancies, 1)
	assert.Equal(t, model.MissingInB, out.Discrepancies[0].Type)
}

func TestReconcile_DurationMismatchIsReported(t *testing.T) {
	dir := t.TempDir()
	csvA := "a_number,b_number,seize_time,duration,rate,lrn\n5551234567,5559876543,1700000000,600,0.02,5559876543\n"
	csvB := "a_number,b_number,seize_time,duration,rate,lrn\n5551234567,5559876543,1700000005,60,0.02,5559876543\n"

	input := model.JobInput{
		FileAPath:         writeTestCSV(t, dir, "a.csv", csvA),
		FileADeclaredName: "a.csv",
		FileBPath:         writeTestCSV(t, dir, "b.csv", csvB),
		FileBDeclaredName: "b.csv",
		MappingA:          testMapping(),
		MappingB:          testMapping(),
	}

	out, err := Reconcile(context.Background(), testConfig(t), input)
	require.NoError(t, err)
	require.Len(t, out.Discrepancies, 1)
	assert.Equal(t, model.DurationMismatch, out.Discrepancies[0].Type)
}

func TestReconcile_RejectsMappingMissingRequiredField(t *testing.T) {
	dir := t.TempDir()
	csvA := "a_number,b_number,seize_time,duration,rate,lrn\n5551234567,5559876543,1700000000,60,0.02,5559876543\n"
	csvB := "a_number,b_number,seize_time,duration,rate,lrn\n5551234567,5559876543,1700000005,60,0.02,5559876543\n"

	badMapping := testMapping()
	delete(badMapping, model.FieldLRN)

	input := model.JobInput{
		FileAPath:         writeTestCSV(t, dir, "a.csv", csvA),
		FileADeclaredName: "a.csv",
		FileBPath:         writeTestCSV(t, dir, "b.csv", csvB),
		FileBDeclaredName: "b.csv",
		MappingA:          badMapping,
		MappingB:          testMapping(),
	}

	_, err := Reconcile(context.Background(), testConfig(t), input)
	require.Error(t, err)
	var engineErr *Error
	require.ErrorAs(t, err, &engineErr)
	assert.Equal(t, KindInput, engineErr.Kind)
}
