package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/varna8104/AssessmentGen/internal/handler"
	appI18n "github.com/varna8104/AssessmentGen/internal/i18n"
	"github.com/varna8104/AssessmentGen/internal/llm"
	"github.com/varna8104/AssessmentGen/internal/model"
	"github.com/varna8104/AssessmentGen/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "assessmentgen",
		Short: "LLM-backed assessment generator and quiz server",
	}

	serve := serveCmd()
	root.AddCommand(serve, exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `assessmentgen --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the assessment HTTP server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "assessmentgen.db", "SQLite database path ('memory' for in-process)")
	f.String("llm-url", "", "OpenAI-compatible API base URL (empty for api.openai.com)")
	f.String("llm-key", "", "API key for LLM")
	f.String("llm-model", "gpt-4o-mini", "LLM model name")
	f.Int("llm-seed", 42, "Generation seed for reproducible assessments")
	f.StringP("lang", "l", "en", "Default message language (en, ru)")
	f.String("teacher-code", "", "Teacher access code (or set ASSESSMENTGEN_TEACHER_CODE)")
	f.Duration("token-ttl", 12*time.Hour, "Teacher token lifetime")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export assessments and their sessions as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "assessmentgen.db", "SQLite database path")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

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

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("ASSESSMENTGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("assessmentgen")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/assessmentgen")
	v.AddConfigPath("/etc/assessmentgen")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.Open(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	teacherCode := v.GetString("teacher-code")
	if teacherCode == "" {
		return fmt.Errorf("teacher code is required: set --teacher-code flag or ASSESSMENTGEN_TEACHER_CODE env var")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(teacherCode), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash teacher code: %w", err)
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	llmClient := llm.New(
		v.GetString("llm-url"),
		v.GetString("llm-key"),
		v.GetString("llm-model"),
		v.GetInt("llm-seed"),
	)
	if err := llmClient.Ping(context.Background()); err != nil {
		return fmt.Errorf("LLM health check: %w", err)
	}
	slog.Info("LLM endpoint OK", "url", v.GetString("llm-url"), "model", v.GetString("llm-model"))

	h := handler.New(db, llmClient, handler.Config{
		TeacherCodeHash: string(hash),
		TokenTTL:        v.GetDuration("token-ttl"),
	})

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"db", v.GetString("db"),
		"model", v.GetString("llm-model"),
		"llm_url", v.GetString("llm-url"),
		"lang", lang,
	)
	return http.ListenAndServe(addr, r)
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.Open(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	records, err := db.ListAssessments()
	if err != nil {
		return fmt.Errorf("list assessments: %w", err)
	}

	export := model.ResultsExport{ExportedAt: time.Now().UTC()}
	for _, rec := range records {
		sessions, err := db.ListSessions(rec.Code)
		if err != nil {
			return fmt.Errorf("list sessions for %s: %w", rec.Code, err)
		}
		results := make([]model.SessionResult, 0, len(sessions))
		for _, s := range sessions {
			results = append(results, model.SessionResult{
				StudentName:      s.StudentName,
				Status:           s.Status,
				StartedAt:        s.StartedAt,
				CompletedAt:      s.CompletedAt,
				Score:            s.Score,
				TimeSpentSeconds: s.TimeSpentSeconds,
				Responses:        s.Responses,
			})
		}
		export.Assessments = append(export.Assessments, model.AssessmentResults{
			Code:          rec.Code,
			Title:         rec.Assessment.Title,
			Status:        rec.Metadata.Status,
			PublishedAt:   rec.Metadata.PublishedAt,
			EndedAt:       rec.Metadata.EndedAt,
			TotalPoints:   rec.Assessment.TotalPoints,
			TotalAttempts: len(results),
			Sessions:      results,
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)

	return nil
}
