package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gaokao-bench/grader/internal/batch"
	appI18n "github.com/gaokao-bench/grader/internal/i18n"
	"github.com/gaokao-bench/grader/internal/regrade"
	"github.com/gaokao-bench/grader/internal/runlog"
	"github.com/gaokao-bench/grader/internal/stats"
	"github.com/gaokao-bench/grader/internal/teacher"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "grader",
		Short: "Scores and grades model answers to exam questions",
	}
	root.AddCommand(scoreCmd(), gradeCmd(), regradeCmd(), statsCmd())
	return root
}

func addCommonFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("results-dir", "r", "results", "Root directory of result files")
	f.StringP("lang", "l", "en", "Operator message language (en, zh)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func addGraderFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("api-url", "https://api.modelarts-maas.com/v2", "OpenAI-compatible API base URL")
	f.String("api-key", "", "API key for the grading model (or set GRADER_API_KEY)")
	f.String("model", "qwen3-235b-a22b", "Grading model name")
	f.Int("max-retries", 3, "Maximum attempts per grading call")
	f.Int("max-tokens", 1500, "Maximum tokens in the grader reply")
	f.Duration("timeout", 120*time.Second, "HTTP timeout per grading call")
	f.Duration("delay", batch.DefaultCallDelay, "Pause after each grading call")
	f.Int("checkpoint", batch.DefaultCheckpointInterval, "Persist the file every N graded records")
	f.StringP("strategy", "s", "", "Only process top-level directories whose name contains this")
	f.Int("max-files", 0, "Process at most N files (0 = all)")
	f.String("runlog", "", "SQLite path for run history (empty = disabled)")
}

func scoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Apply rule-based scoring to multiple-choice results",
		RunE:  runScore,
	}
	addCommonFlags(cmd)
	f := cmd.Flags()
	f.Int("max-files", 0, "Process at most N files (0 = all)")
	f.String("runlog", "", "SQLite path for run history (empty = disabled)")
	return cmd
}

func gradeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grade",
		Short: "Grade free-form answers with the teacher model",
		RunE:  runGrade,
	}
	addCommonFlags(cmd)
	addGraderFlags(cmd)
	cmd.Flags().Bool("backup", false, "Write a .backup copy of each file before the first mutation")
	return cmd
}

func regradeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "regrade",
		Short: "Re-grade records whose teacher score is zero",
		RunE:  runRegrade,
	}
	addCommonFlags(cmd)
	addGraderFlags(cmd)
	cmd.Flags().Bool("backup", true, "Write a .regrade_backup copy of each file before the first mutation")
	return cmd
}

func statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Compute per-strategy, per-domain score rates",
		RunE:  runStats,
	}
	addCommonFlags(cmd)
	f := cmd.Flags()
	f.String("pipeline", string(stats.PipelineTeacher), "Score source (objective, teacher)")
	f.StringP("output", "o", "-", "CSV output path (- for stdout)")
	return cmd
}

func setupLogging(v *viper.Viper) {
	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper
// instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("GRADER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("grader")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/grader")
	v.AddConfigPath("/etc/grader")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func setup(cmd *cobra.Command) (*viper.Viper, context.Context, context.CancelFunc, error) {
	v := viperForCmd(cmd)
	setupLogging(v)
	if err := appI18n.Init(v.GetString("lang")); err != nil {
		return nil, nil, nil, fmt.Errorf("init i18n: %w", err)
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return v, ctx, cancel, nil
}

func graderClient(v *viper.Viper) *teacher.Client {
	return teacher.New(teacher.Config{
		BaseURL:    v.GetString("api-url"),
		APIKey:     v.GetString("api-key"),
		Model:      v.GetString("model"),
		MaxRetries: v.GetInt("max-retries"),
		MaxTokens:  v.GetInt("max-tokens"),
		Timeout:    v.GetDuration("timeout"),
	})
}

func runScore(cmd *cobra.Command, _ []string) error {
	v, ctx, cancel, err := setup(cmd)
	if err != nil {
		return err
	}
	defer cancel()

	root := v.GetString("results-dir")
	files, err := batch.ScanFiles(root, "")
	if err != nil {
		return fmt.Errorf("scan result files: %w", err)
	}
	files = batch.Limit(files, v.GetInt("max-files"))
	if len(files) == 0 {
		fmt.Println(appI18n.T("NoFilesFound", map[string]any{"Root": root}))
		return nil
	}

	started := time.Now()
	summary := batch.NewObjectiveProcessor().Run(ctx, files)

	fmt.Println(appI18n.T("ScoringComplete", map[string]any{
		"Files":   summary.FilesProcessed,
		"Failed":  summary.FilesFailed,
		"Records": summary.Records,
		"Mean":    fmt.Sprintf("%.3f", summary.MeanScore),
	}))
	recordRun(v, "score", root, summary, started)
	return ctx.Err()
}

func runGrade(cmd *cobra.Command, _ []string) error {
	v, ctx, cancel, err := setup(cmd)
	if err != nil {
		return err
	}
	defer cancel()

	root := v.GetString("results-dir")
	files, err := batch.ScanFiles(root, v.GetString("strategy"))
	if err != nil {
		return fmt.Errorf("scan result files: %w", err)
	}
	files = batch.Limit(files, v.GetInt("max-files"))
	if len(files) == 0 {
		fmt.Println(appI18n.T("NoFilesFound", map[string]any{"Root": root}))
		return nil
	}

	backup := ""
	if v.GetBool("backup") {
		backup = ".backup"
	}
	p := batch.NewTeacherProcessor(graderClient(v), v.GetDuration("delay"), backup)
	p.Checkpoint = v.GetInt("checkpoint")

	started := time.Now()
	summary := p.Run(ctx, files)

	fmt.Println(appI18n.T("GradingComplete", map[string]any{
		"Files":   summary.FilesProcessed,
		"Failed":  summary.FilesFailed,
		"Records": summary.Records,
		"Mean":    fmt.Sprintf("%.3f", summary.MeanScore),
	}))
	recordRun(v, "grade", root, summary, started)
	return ctx.Err()
}

func runRegrade(cmd *cobra.Command, _ []string) error {
	v, ctx, cancel, err := setup(cmd)
	if err != nil {
		return err
	}
	defer cancel()

	root := v.GetString("results-dir")
	o := regrade.New(regrade.Config{
		Root:           root,
		StrategyFilter: v.GetString("strategy"),
		Backup:         v.GetBool("backup"),
		Checkpoint:     v.GetInt("checkpoint"),
		Delay:          v.GetDuration("delay"),
	}, graderClient(v))

	started := time.Now()
	summary, err := o.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Println(appI18n.T("RegradeScanComplete", map[string]any{
		"Records": summary.TargetRecords,
		"Files":   summary.TargetFiles,
	}))
	if summary.TargetRecords == 0 {
		fmt.Println(appI18n.T("RegradeNothingToDo", nil))
		return nil
	}
	fmt.Println(appI18n.T("RegradeComplete", map[string]any{
		"Files":    summary.FilesRepaired,
		"Failed":   summary.FilesFailed,
		"Regraded": summary.Regraded,
		"Improved": summary.Improved,
	}))
	percent := 0.0
	if summary.TotalRecords > 0 {
		percent = float64(summary.ResidualZeros) / float64(summary.TotalRecords) * 100
	}
	fmt.Println(appI18n.T("RegradeResidual", map[string]any{
		"Zeros":   summary.ResidualZeros,
		"Total":   summary.TotalRecords,
		"Percent": fmt.Sprintf("%.1f", percent),
	}))
	recordRun(v, "regrade", root, batch.RunSummary{
		FilesProcessed: summary.FilesRepaired,
		FilesFailed:    summary.FilesFailed,
		Records:        summary.Regraded,
	}, started)
	return nil
}

func runStats(cmd *cobra.Command, _ []string) error {
	v, _, cancel, err := setup(cmd)
	if err != nil {
		return err
	}
	defer cancel()

	entries, err := stats.Collect(v.GetString("results-dir"), stats.Pipeline(v.GetString("pipeline")))
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, appI18n.T("StatsComplete", map[string]any{"Cells": len(entries)}))

	outPath := v.GetString("output")
	if outPath == "" || outPath == "-" {
		return stats.WriteCSV(os.Stdout, entries)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()
	if err := stats.WriteCSV(f, entries); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Println(appI18n.T("StatsSaved", map[string]any{"Path": outPath}))
	return nil
}

// recordRun appends the run to the history database when one is configured.
// Failures are logged, never fatal: the run itself already succeeded.
func recordRun(v *viper.Viper, command, root string, summary batch.RunSummary, started time.Time) {
	dbPath := v.GetString("runlog")
	if dbPath == "" {
		return
	}
	store, err := runlog.Open(dbPath)
	if err != nil {
		slog.Warn("run history unavailable", "error", err)
		return
	}
	defer store.Close()

	if _, err := store.RecordRun(runlog.Run{
		Command:        command,
		Root:           root,
		FilesProcessed: summary.FilesProcessed,
		FilesFailed:    summary.FilesFailed,
		Records:        summary.Records,
		MeanScore:      summary.MeanScore,
		StartedAt:      started,
		FinishedAt:     time.Now(),
	}); err != nil {
		slog.Warn("failed to record run", "error", err)
	}
}
