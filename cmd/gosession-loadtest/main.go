package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/credentials"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
)

func main() {
	var (
		concurrency = pflag.Int("concurrency", 64, "number of concurrent callers")
		ops         = pflag.Int("ops", 20000, "operations per phase")
		latency     = pflag.Duration("latency", 2*time.Millisecond, "simulated validator latency")
		failEvery   = pflag.Int("fail-every", 10, "fail every Nth validation so the fallback runs; 0 disables")
		redisAddr   = pflag.StringP("redis-addr", "r", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = pflag.String("prefix", "gs-load", "credential key prefix")
	)
	pflag.Parse()

	if *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "concurrency and ops must be > 0")
		os.Exit(2)
	}

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	store := credentials.NewRedis(client, credentials.RedisOptions{Prefix: *prefix, Timeout: 2 * time.Second})
	if err := store.Write(goSession.Credentials{Token: "load-token", UserID: "u1"}); err != nil {
		fmt.Fprintf(os.Stderr, "seed credentials failed: %v\n", err)
		os.Exit(1)
	}

	backend := newStubBackend(*latency, *failEvery)

	cfg := goSession.DefaultConfig()
	cfg.Revalidation.Interval = 0
	cfg.Notifications.Enabled = false

	resolver, err := goSession.New().
		WithConfig(cfg).
		WithCredentialStore(store).
		WithValidator(backend).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build resolver failed: %v\n", err)
		os.Exit(1)
	}
	defer resolver.Close()

	ctx := context.Background()
	if err := resolver.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "start failed: %v\n", err)
		os.Exit(1)
	}

	revalidateStats := runPhase(*ops, *concurrency, func(int) error {
		_, err := resolver.Revalidate(ctx)
		return err
	})
	focusStats := runPhase(*ops, *concurrency, func(int) error {
		_, err := resolver.Focus(ctx)
		return err
	})
	mixedStats := runPhase(*ops, *concurrency, func(i int) error {
		var err error
		if i%8 == 0 {
			_, err = resolver.Refresh(ctx)
		} else {
			_, err = resolver.Revalidate(ctx)
		}
		return err
	})

	snap := resolver.MetricsSnapshot()

	fmt.Println("---- results ----")
	printStats("revalidate", revalidateStats)
	printStats("focus", focusStats)
	printStats("mixed", mixedStats)
	fmt.Printf("validator calls=%d fallback calls=%d\n", backend.validations.Load(), backend.fallbacks.Load())
	fmt.Printf("coalesced=%d stale_discarded=%d fallback_success=%d final_state=%s\n",
		snap.Counters[goSession.MetricCoalesced],
		snap.Counters[goSession.MetricStaleDiscarded],
		snap.Counters[goSession.MetricFallbackSuccess],
		resolver.State(),
	)
}

// stubBackend answers validations after a fixed delay and fails a fraction of them
// with a network error to exercise the fallback.
type stubBackend struct {
	latency     time.Duration
	failEvery   int64
	validations atomic.Int64
	fallbacks   atomic.Int64
}

func newStubBackend(latency time.Duration, failEvery int) *stubBackend {
	return &stubBackend{latency: latency, failEvery: int64(failEvery)}
}

func (s *stubBackend) Validate(ctx context.Context, token string) (goSession.User, error) {
	n := s.validations.Add(1)
	if err := s.wait(ctx); err != nil {
		return goSession.User{}, err
	}
	if s.failEvery > 0 && n%s.failEvery == 0 {
		return goSession.User{}, goSession.NewValidationError(goSession.ReasonNetwork, 503, nil)
	}
	return goSession.User{ID: "u1", FirstName: "Load", Role: goSession.RoleUser}, nil
}

func (s *stubBackend) CurrentUser(ctx context.Context, token string) (goSession.User, error) {
	s.fallbacks.Add(1)
	if err := s.wait(ctx); err != nil {
		return goSession.User{}, err
	}
	return goSession.User{ID: "u1", FirstName: "Load", Role: goSession.RoleUser}, nil
}

func (s *stubBackend) wait(ctx context.Context) error {
	if s.latency <= 0 {
		return nil
	}
	jitter := time.Duration(rand.Int63n(int64(s.latency)/2 + 1))
	t := time.NewTimer(s.latency + jitter)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func runPhase(ops, concurrency int, op func(i int) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(i)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
