package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"nexlyon/server/config"
	"nexlyon/server/internal/analyzer"
	"nexlyon/server/internal/models"
)

var (
	ErrAlreadyRunning = errors.New("pipeline already running")
	ErrNoData         = errors.New("no data available")
	ErrNoReport       = errors.New("no report available")
)

type Status string

const (
	StatusIdle    Status = "idle"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

const (
	StepDatabase = iota + 1
	StepScrape
	StepAnalyze
	StepExport
)

var stepLabels = map[int]string{
	StepDatabase: "Setting up database...",
	StepScrape:   "Scraping property data...",
	StepAnalyze:  "Analyzing investments...",
	StepExport:   "Exporting spreadsheet...",
}

const completeLabel = "Complete!"

// State is the progress of the current or last run.
type State struct {
	Status     Status     `json:"status"`
	Step       int        `json:"step"`
	StepLabel  string     `json:"step_label"`
	Error      *string    `json:"error"`
	RunID      string     `json:"run_id,omitempty"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Result is the cached output of the last successful run.
type Result struct {
	Properties      []models.PropertyAnalysis `json:"properties"`
	Arrondissements []models.DistrictSummary  `json:"arrondissements"`
	Summary         models.Summary            `json:"summary"`
	ExportDir       string                    `json:"export_dir"`
	ExportStatus    string                    `json:"export_status"`
	ReportFile      string                    `json:"-"`
	Report          string                    `json:"-"`
}

type Migrator interface {
	RunMigrations() error
}

type Scraper interface {
	Scrape(ctx context.Context) (int, error)
}

type Analyzer interface {
	Analyze(ctx context.Context) (*analyzer.Outcome, error)
}

type Exporter interface {
	Sync(analyses []models.PropertyAnalysis, stats models.SessionStats) string
	Dir() string
}

type Notifier interface {
	NotifyCandidates(analyses []models.PropertyAnalysis) (int, error)
}

// Deps are the stages a run goes through. Exporter and Notifier are optional.
type Deps struct {
	Migrator Migrator
	Scraper  Scraper
	Analyzer Analyzer
	Exporter Exporter
	Notifier Notifier
}

type Runner struct {
	deps      Deps
	market    *config.MarketData
	reportDir string
	logger    *logrus.Logger
	now       func() time.Time

	// OnStep, when set, is called as each step begins.
	OnStep func(step int, label string)

	mu     sync.RWMutex
	state  State
	result *Result
	wg     sync.WaitGroup
}

func NewRunner(deps Deps, market *config.MarketData, reportDir string, logger *logrus.Logger) *Runner {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if market == nil {
		market = config.DefaultMarketData()
	}

	return &Runner{
		deps:      deps,
		market:    market,
		reportDir: reportDir,
		logger:    logger,
		now:       time.Now,
		state:     State{Status: StatusIdle},
	}
}

// Start launches a run in the background. ctx must outlive the caller's
// request since it governs the whole run.
func (r *Runner) Start(ctx context.Context) (string, error) {
	runID, err := r.begin()
	if err != nil {
		return "", err
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.execute(ctx, runID)
	}()
	return runID, nil
}

// Run executes a full run on the calling goroutine.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	runID, err := r.begin()
	if err != nil {
		return nil, err
	}
	return r.execute(ctx, runID)
}

// Wait blocks until background runs have finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) Status() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

func (r *Runner) Data() (*Result, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.result == nil {
		return nil, ErrNoData
	}
	return r.result, nil
}

// ReportFile returns the path of the last written report if it still exists.
func (r *Runner) ReportFile() (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.result == nil || r.result.ReportFile == "" {
		return "", ErrNoReport
	}
	if _, err := os.Stat(r.result.ReportFile); err != nil {
		return "", ErrNoReport
	}
	return r.result.ReportFile, nil
}

// Reset clears the state and the cached result.
func (r *Runner) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state.Status == StatusRunning {
		return ErrAlreadyRunning
	}
	r.state = State{Status: StatusIdle}
	r.result = nil
	return nil
}

func (r *Runner) begin() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state.Status == StatusRunning {
		return "", ErrAlreadyRunning
	}

	startedAt := r.now()
	r.state = State{
		Status:    StatusRunning,
		RunID:     uuid.NewString(),
		StartedAt: &startedAt,
	}
	return r.state.RunID, nil
}

func (r *Runner) execute(ctx context.Context, runID string) (*Result, error) {
	logger := r.logger.WithField("run_id", runID)
	logger.Info("Pipeline started")

	result, err := r.steps(ctx)

	finishedAt := r.now()
	r.mu.Lock()
	r.state.FinishedAt = &finishedAt
	if err != nil {
		msg := err.Error()
		r.state.Status = StatusError
		r.state.Error = &msg
	} else {
		r.state.Status = StatusDone
		r.state.StepLabel = completeLabel
		r.result = result
	}
	r.mu.Unlock()

	if err != nil {
		logger.WithError(err).Error("Pipeline failed")
		return nil, err
	}
	logger.WithField("report_file", result.ReportFile).Info("Pipeline completed")
	return result, nil
}

func (r *Runner) steps(ctx context.Context) (*Result, error) {
	r.step(StepDatabase)
	if err := r.deps.Migrator.RunMigrations(); err != nil {
		return nil, fmt.Errorf("failed to set up database: %w", err)
	}

	r.step(StepScrape)
	newCount, err := r.deps.Scraper.Scrape(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to scrape properties: %w", err)
	}

	r.step(StepAnalyze)
	outcome, err := r.deps.Analyzer.Analyze(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze properties: %w", err)
	}

	r.step(StepExport)
	result := &Result{
		Properties:      analyzer.RankByScore(outcome.Analyses),
		Arrondissements: analyzer.DistrictSummaries(outcome.Analyses, r.market),
		Summary:         analyzer.Summarize(outcome.Analyses, newCount),
		Report:          outcome.Report,
	}
	if r.deps.Exporter != nil {
		result.ExportStatus = r.deps.Exporter.Sync(outcome.Analyses, outcome.Stats)
		result.ExportDir = r.deps.Exporter.Dir()
	}

	if result.ReportFile, err = r.writeReport(outcome.Report); err != nil {
		return nil, err
	}

	if r.deps.Notifier != nil {
		if _, err := r.deps.Notifier.NotifyCandidates(outcome.Analyses); err != nil {
			r.logger.WithError(err).Warn("Failed to send notifications")
		}
	}

	return result, nil
}

func (r *Runner) step(n int) {
	label := stepLabels[n]
	r.mu.Lock()
	r.state.Step = n
	r.state.StepLabel = label
	r.mu.Unlock()

	r.logger.WithFields(logrus.Fields{"step": n, "label": label}).Debug("Pipeline step")
	if r.OnStep != nil {
		r.OnStep(n, label)
	}
}

// ReportFileName is the dated name of the report written by a run.
func ReportFileName(t time.Time) string {
	return fmt.Sprintf("report_%s.txt", t.Format("2006-01-02"))
}

func (r *Runner) writeReport(text string) (string, error) {
	dir := r.reportDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	path := filepath.Join(dir, ReportFileName(r.now()))
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}
