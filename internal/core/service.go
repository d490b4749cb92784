package core

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheSize is the number of analyses kept in memory.
const DefaultCacheSize = 64

// ServiceOptions configures a Service. Zero values fall back to defaults.
type ServiceOptions struct {
	MaxConcurrent int
	MaxWait       time.Duration
	CacheSize     int
}

// Service runs archive analyses for every front-end.
//
// It owns the only shared state of the analysis path: the extraction
// limiter, the in-memory analysis cache, and the optional history store.
type Service struct {
	extractor Extractor
	history   HistoryStore
	limiter   *ExtractLimiter

	analyses *lru.Cache[string, *Analysis]
	byDigest *lru.Cache[string, string] // digest:mode -> analysis ID
	flights  singleflight.Group

	now func() time.Time
}

// AnalyzeRequest is one uploaded archive.
type AnalyzeRequest struct {
	FileName string
	Data     []byte
	Mode     Mode
	Source   string
}

// Analysis is one processed archive as held by the service.
type Analysis struct {
	ID        string
	FileName  string
	Digest    string
	SizeBytes int64
	Mode      Mode
	Source    string
	CreatedAt time.Time
	Duration  time.Duration
	Envelope  *Envelope
	Tables    []TableResult
	Findings  RuleReport
}

// Table returns the extraction result for one table.
func (a *Analysis) Table(name string) (TableResult, bool) {
	for _, t := range a.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return TableResult{}, false
}

// FailedTables returns the names of tables that could not be read.
func (a *Analysis) FailedTables() []string {
	return FailedTables(a.Tables)
}

// NewService creates a Service. history may be nil, in which case analyses
// are not recorded.
func NewService(ex Extractor, history HistoryStore, opts ServiceOptions) (*Service, error) {
	if ex == nil {
		return nil, fmt.Errorf("extractor is required")
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}

	analyses, err := lru.New[string, *Analysis](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create analysis cache: %w", err)
	}
	byDigest, err := lru.New[string, string](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create digest index: %w", err)
	}

	return &Service{
		extractor: ex,
		history:   history,
		limiter:   NewExtractLimiter(opts.MaxConcurrent, opts.MaxWait),
		analyses:  analyses,
		byDigest:  byDigest,
		now:       time.Now,
	}, nil
}

// Analyze validates, extracts, and assembles one archive.
//
// Identical uploads (same content and mode) that arrive while one is being
// processed share its result; a repeat of a cached upload returns the
// cached analysis. Shared and cached results keep the FileName, Source and
// ID of the upload that produced them, and only that upload is recorded in
// history.
//
// The shared extraction is detached from any single caller's context, so
// a caller that gives up returns ctx.Err() without failing the others.
func (s *Service) Analyze(ctx context.Context, req AnalyzeRequest) (*Analysis, error) {
	if err := ValidateUpload(true, req.FileName); err != nil {
		return nil, err
	}

	digest := Digest(req.Data)
	key := digest + ":" + req.Mode.String()

	if id, ok := s.byDigest.Get(key); ok {
		if a, ok := s.analyses.Get(id); ok {
			slog.DebugContext(ctx, "analysis served from cache", "analysis_id", a.ID, "digest", shortDigest(digest))
			return a, nil
		}
	}

	flight := s.flights.DoChan(key, func() (any, error) {
		return s.analyze(context.WithoutCancel(ctx), req, digest)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-flight:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			slog.DebugContext(ctx, "analysis shared with concurrent upload", "digest", shortDigest(digest))
		}
		return res.Val.(*Analysis), nil
	}
}

func (s *Service) analyze(ctx context.Context, req AnalyzeRequest, digest string) (*Analysis, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	start := s.now()
	a := &Analysis{
		ID:        uuid.New().String(),
		FileName:  req.FileName,
		Digest:    digest,
		SizeBytes: int64(len(req.Data)),
		Mode:      req.Mode,
		Source:    req.Source,
		CreatedAt: start,
	}

	slog.InfoContext(ctx, "analysis started",
		"analysis_id", a.ID,
		"file", a.FileName,
		"digest", shortDigest(digest),
		"mode", a.Mode.String(),
		"source", a.Source,
	)

	env, tables, err := OpenAndAssemble(s.extractor, bytes.NewReader(req.Data), a.SizeBytes, AssembleOptions{Mode: req.Mode})
	a.Duration = s.now().Sub(start)
	if err != nil {
		slog.WarnContext(ctx, "analysis failed",
			"analysis_id", a.ID,
			"file", a.FileName,
			"error", err,
			"duration_ms", a.Duration.Milliseconds(),
		)
		s.record(ctx, a, err)
		return nil, err
	}

	a.Envelope = env
	a.Tables = tables
	a.Findings = EvaluateRules(env)

	s.analyses.Add(a.ID, a)
	s.byDigest.Add(digest+":"+req.Mode.String(), a.ID)

	slog.InfoContext(ctx, "analysis completed",
		"analysis_id", a.ID,
		"file", a.FileName,
		"tables", len(tables),
		"failed_tables", len(a.FailedTables()),
		"rules_failed", a.Findings.FailedRules,
		"duration_ms", a.Duration.Milliseconds(),
	)

	s.record(ctx, a, nil)
	return a, nil
}

// record stores a history entry. Failures are logged, never returned.
func (s *Service) record(ctx context.Context, a *Analysis, analysisErr error) {
	if s.history == nil {
		return
	}

	entry := HistoryEntry{
		ID:         a.ID,
		FileName:   a.FileName,
		Digest:     a.Digest,
		SizeBytes:  a.SizeBytes,
		Mode:       a.Mode.String(),
		Source:     a.Source,
		Status:     StatusOK,
		DurationMS: a.Duration.Milliseconds(),
		IPAddress:  GetIPAddressFromContext(ctx),
		UserAgent:  GetUserAgentFromContext(ctx),
		CreatedAt:  a.CreatedAt,
	}
	if analysisErr != nil {
		entry.Status = StatusFailed
		entry.Error = ErrorDetails(analysisErr)
	}
	if a.Envelope != nil {
		entry.ModelSize = a.Envelope.ModelSize
		entry.TableCount = a.Envelope.NumberOfTables
		entry.FailedTables = len(a.FailedTables())
	}

	// The request may already be finished; the record should still land.
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := s.history.Record(recordCtx, entry); err != nil {
		slog.ErrorContext(ctx, "failed to record analysis history", "analysis_id", a.ID, "error", err)
	}
}

// Get returns a cached analysis.
func (s *Service) Get(id string) (*Analysis, bool) {
	return s.analyses.Get(id)
}

// Lookup is Get returning ErrAnalysisNotFound for a missing ID.
func (s *Service) Lookup(id string) (*Analysis, error) {
	a, ok := s.analyses.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAnalysisNotFound, id)
	}
	return a, nil
}

// History returns up to limit recorded analyses, newest first. Without a
// history store it returns an empty list.
func (s *Service) History(ctx context.Context, limit int) ([]HistoryEntry, error) {
	if s.history == nil {
		return []HistoryEntry{}, nil
	}
	entries, err := s.history.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	if entries == nil {
		entries = []HistoryEntry{}
	}
	return entries, nil
}

// LimiterStatus returns the extraction limiter state.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForExtractions blocks until in-flight extractions finish or ctx is done.
func (s *Service) WaitForExtractions(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// Digest returns the hex sha256 of data.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
