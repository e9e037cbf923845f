package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/natserract/mkm/pkg/mkm"
)

const defaultConcurrency = 5

// FetchMetrics tracks the outcome of a batch of reads
type FetchMetrics struct {
	Succeeded int
	Failed    int
	mu        sync.Mutex
}

// AddSuccess increments the succeeded count
func (m *FetchMetrics) AddSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Succeeded++
}

// AddFailure increments the failed count
func (m *FetchMetrics) AddFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Failed++
}

// Result is the outcome of one path. Exactly one of Data and Err is set.
type Result struct {
	Path string
	Data map[string]any
	Err  error
}

// FetchService reads several resources concurrently through one client
type FetchService struct {
	client      mkm.API
	concurrency int
	logger      *zap.Logger
}

// NewFetchService creates a new fetch service
func NewFetchService(client mkm.API, concurrency int, logger *zap.Logger) *FetchService {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &FetchService{client: client, concurrency: concurrency, logger: logger}
}

// FetchAll issues a GET for every path and returns the results in the order
// of paths. A failing path does not stop the others; the returned error
// joins every failure.
func (s *FetchService) FetchAll(ctx context.Context, paths []string, public bool) ([]Result, *FetchMetrics, error) {
	batchID := uuid.NewString()
	startTime := time.Now()
	logger := s.logger.With(zap.String("batch_id", batchID))
	logger.Info("Starting fetch", zap.Int("paths", len(paths)), zap.Int("concurrency", s.concurrency))

	metrics := &FetchMetrics{}
	results := make([]Result, len(paths))

	p := pool.New().WithMaxGoroutines(s.concurrency).WithErrors()
	for i, path := range paths {
		p.Go(func() error {
			results[i].Path = path
			resp, err := s.client.MakeCall(ctx, mkm.Call{Path: path, Public: public})
			if err != nil {
				metrics.AddFailure()
				results[i].Err = err
				logger.Warn("Failed to fetch path", zap.String("path", path), zap.Error(err))
				return fmt.Errorf("%s: %w", path, err)
			}
			metrics.AddSuccess()
			results[i].Data = resp.Data
			logger.Debug("Fetched path", zap.String("path", path))
			return nil
		})
	}
	err := p.Wait()

	logger.Info("Fetch finished",
		zap.Int("succeeded", metrics.Succeeded),
		zap.Int("failed", metrics.Failed),
		zap.Duration("duration", time.Since(startTime)))

	return results, metrics, err
}
