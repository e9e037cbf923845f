package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	httpclient "github.com/natserract/mkm/pkg/http"
	"github.com/natserract/mkm/pkg/mkm"
)

type stubAPI struct {
	delay    time.Duration
	fail     map[string]error
	inFlight atomic.Int32
	peak     atomic.Int32
	mu       sync.Mutex
	public   []bool
}

func (s *stubAPI) MakeCall(ctx context.Context, call mkm.Call) (*httpclient.Response, error) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	s.mu.Lock()
	s.public = append(s.public, call.Public)
	s.mu.Unlock()

	time.Sleep(s.delay)
	if err := s.fail[call.Path]; err != nil {
		return nil, err
	}
	return &httpclient.Response{StatusCode: 200, Data: map[string]any{"path": call.Path}}, nil
}

func (s *stubAPI) Authorize(string, string, bool, map[string]string) (string, error) { return "", nil }
func (s *stubAPI) SwitchUser(string, string)                                        {}
func (s *stubAPI) BaseURL() string                                                  { return "" }

func TestFetchAllKeepsOrder(t *testing.T) {
	api := &stubAPI{}
	svc := NewFetchService(api, 2, zap.NewNop())

	paths := []string{"games", "account", "stock", "wantslist"}
	results, metrics, err := svc.FetchAll(context.Background(), paths, true)
	require.NoError(t, err)
	require.Len(t, results, len(paths))
	for i, r := range results {
		assert.Equal(t, paths[i], r.Path)
		assert.Equal(t, paths[i], r.Data["path"])
		assert.NoError(t, r.Err)
	}
	assert.Equal(t, 4, metrics.Succeeded)
	assert.Zero(t, metrics.Failed)
	for _, p := range api.public {
		assert.True(t, p)
	}
}

func TestFetchAllBoundsConcurrency(t *testing.T) {
	api := &stubAPI{delay: 20 * time.Millisecond}
	svc := NewFetchService(api, 2, zap.NewNop())

	_, _, err := svc.FetchAll(context.Background(), []string{"a", "b", "c", "d", "e", "f"}, false)
	require.NoError(t, err)
	assert.LessOrEqual(t, api.peak.Load(), int32(2))
}

func TestFetchAllCollectsFailures(t *testing.T) {
	notFound := &httpclient.Error{Status: 404, StatusText: "Not Found"}
	api := &stubAPI{fail: map[string]error{"products/0": notFound}}
	svc := NewFetchService(api, 0, zap.NewNop())

	results, metrics, err := svc.FetchAll(context.Background(), []string{"games", "products/0"}, false)
	require.Error(t, err)

	var apiErr *httpclient.Error
	assert.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 1, metrics.Succeeded)
	assert.Equal(t, 1, metrics.Failed)
	assert.NotNil(t, results[0].Data)
	assert.Same(t, notFound, results[1].Err)
}
