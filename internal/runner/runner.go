// Package runner orchestrates a full retrieval run: search, download,
// analysis, persistence and archiving.
package runner

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pracownik123GWW/CbosaEmailSender/internal/analyzer"
	"github.com/pracownik123GWW/CbosaEmailSender/internal/archive"
	"github.com/pracownik123GWW/CbosaEmailSender/internal/cbosa"
	"github.com/pracownik123GWW/CbosaEmailSender/internal/store"
)

// Engine is the slice of the retrieval client the runner drives.
type Engine interface {
	SearchCases(ctx context.Context, params cbosa.SearchQuery, quota int) ([]cbosa.CaseRecord, error)
	DownloadAll(ctx context.Context, cases []cbosa.CaseRecord, destDir string, progress func(done, total int, ok bool)) []cbosa.DownloadResult
}

// JudgmentAnalyzer summarizes a judgment text. Nil disables analysis.
type JudgmentAnalyzer interface {
	AnalyzeJudgment(ctx context.Context, text, signature string) analyzer.Analysis
}

// RunStore persists run outcomes. Nil disables persistence.
type RunStore interface {
	SaveRun(ctx context.Context, rec store.RunRecord) error
	SaveJudgment(ctx context.Context, rec store.JudgmentRecord) error
}

// Options configure one run.
type Options struct {
	Query      cbosa.SearchQuery
	MaxResults int
	OutputDir  string
	// SkipArchive leaves the downloaded files unbundled.
	SkipArchive bool
}

// Report is the outcome of a run. Individual download and analysis
// failures are counted here, not escalated: a run that retrieved anything
// at all is a successful run.
type Report struct {
	RunID           string              `json:"run_id"`
	StartedAt       time.Time           `json:"started_at"`
	FinishedAt      time.Time           `json:"finished_at"`
	CasesFound      int                 `json:"cases_found"`
	Downloaded      int                 `json:"downloaded"`
	DownloadFailed  int                 `json:"download_failed"`
	Analyzed        int                 `json:"analyzed"`
	AnalysisFailed  int                 `json:"analysis_failed"`
	AnalysisSkipped int                 `json:"analysis_skipped"`
	TokensUsed      int                 `json:"tokens_used"`
	ArchivePath     string              `json:"archive_path,omitempty"`
	Analyses        []analyzer.Analysis `json:"-"`
}

// Runner wires the pipeline stages together.
type Runner struct {
	engine   Engine
	analyzer JudgmentAnalyzer
	store    RunStore
	logger   *zap.Logger

	buildZip func(files []string, destDir string, now time.Time) (string, error)
	now      func() time.Time
}

// New builds a Runner. analyzer and store may be nil; the corresponding
// stages are then skipped.
func New(engine Engine, an JudgmentAnalyzer, st RunStore, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		engine:   engine,
		analyzer: an,
		store:    st,
		logger:   logger,
		buildZip: archive.BuildZip,
		now:      time.Now,
	}
}

// Run executes the pipeline end to end. It returns an error only when the
// search itself fails; everything downstream degrades into report counters.
func (r *Runner) Run(ctx context.Context, opts Options) (*Report, error) {
	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: r.now(),
	}
	log := r.logger.With(zap.String("run_id", report.RunID))
	log.Info("Starting retrieval run",
		zap.Int("max_results", opts.MaxResults),
		zap.String("output_dir", opts.OutputDir),
	)

	cases, err := r.engine.SearchCases(ctx, opts.Query, opts.MaxResults)
	if err != nil {
		return nil, err
	}
	report.CasesFound = len(cases)

	results := r.engine.DownloadAll(ctx, cases, opts.OutputDir, func(done, total int, ok bool) {
		if !ok {
			log.Warn("Document download failed", zap.Int("done", done), zap.Int("total", total))
		}
	})

	var files []string
	for _, res := range results {
		if res.Err != nil {
			report.DownloadFailed++
			continue
		}
		if res.Document == nil {
			continue
		}
		report.Downloaded++
		files = append(files, res.Document.Path)

		summary := r.analyzeDocument(ctx, res, report)
		r.persistJudgment(ctx, report.RunID, res, summary)
	}

	if !opts.SkipArchive && len(files) > 0 {
		path, err := r.buildZip(files, opts.OutputDir, r.now())
		if err != nil {
			log.Warn("Archive build failed", zap.Error(err))
		} else {
			report.ArchivePath = path
		}
	}

	report.FinishedAt = r.now()
	r.persistRun(ctx, opts, report)

	log.Info("Retrieval run finished",
		zap.Int("cases_found", report.CasesFound),
		zap.Int("downloaded", report.Downloaded),
		zap.Int("download_failed", report.DownloadFailed),
		zap.Int("analyzed", report.Analyzed),
		zap.Int("tokens_used", report.TokensUsed),
	)
	return report, nil
}

// analyzeDocument summarizes one downloaded judgment and updates the
// report counters. Only RTF documents carry extractable text; PDFs are
// archived without analysis.
func (r *Runner) analyzeDocument(ctx context.Context, res cbosa.DownloadResult, report *Report) string {
	if r.analyzer == nil || res.Document.Format != cbosa.FormatRTF {
		return ""
	}
	text := cbosa.RTFToText(res.Document.Content)
	analysis := r.analyzer.AnalyzeJudgment(ctx, text, res.Case.Signature)
	report.Analyses = append(report.Analyses, analysis)
	report.TokensUsed += analysis.TokensUsed
	switch {
	case analysis.Skipped:
		report.AnalysisSkipped++
	case analysis.Err != nil:
		report.AnalysisFailed++
		return ""
	default:
		report.Analyzed++
	}
	return analysis.Summary
}

func (r *Runner) persistJudgment(ctx context.Context, runID string, res cbosa.DownloadResult, summary string) {
	if r.store == nil {
		return
	}
	rec := store.JudgmentRecord{
		RunID:       runID,
		Signature:   res.Case.Signature,
		CaseURL:     res.Case.URL,
		Filename:    res.Document.Filename,
		Format:      string(res.Document.Format),
		Summary:     summary,
		RetrievedAt: r.now(),
	}
	if err := r.store.SaveJudgment(ctx, rec); err != nil {
		r.logger.Warn("Failed to persist judgment",
			zap.String("signature", res.Case.Signature),
			zap.Error(err),
		)
	}
}

func (r *Runner) persistRun(ctx context.Context, opts Options, report *Report) {
	if r.store == nil {
		return
	}
	rec := store.RunRecord{
		ID:              report.RunID,
		StartedAt:       report.StartedAt,
		FinishedAt:      report.FinishedAt,
		Query:           opts.Query,
		CasesFound:      report.CasesFound,
		Downloaded:      report.Downloaded,
		DownloadFailed:  report.DownloadFailed,
		Analyzed:        report.Analyzed,
		AnalysisFailed:  report.AnalysisFailed,
		AnalysisSkipped: report.AnalysisSkipped,
		TokensUsed:      report.TokensUsed,
		ArchivePath:     report.ArchivePath,
	}
	if err := r.store.SaveRun(ctx, rec); err != nil {
		r.logger.Warn("Failed to persist run", zap.Error(err))
	}
}
