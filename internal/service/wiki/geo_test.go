package wiki

import (
	"context"
	"sync"
	"testing"
	"time"

	"wikidash/internal/cache"
	models "wikidash/internal/domain/models/wiki"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestResolver(source GeoSource, clock *fakeClock) *GeoResolver {
	c := cache.NewTTL[models.CountryEstimate](100, time.Hour, clock.Now)
	return NewGeoResolver(source, c, fastPolicy(), nil, 4, testLogger)
}

func TestGeoResolver_CachesWithinTTL(t *testing.T) {
	source := newFakeGeoSource(map[string]string{"8.8.8.8": "US"})
	clock := &fakeClock{now: baseTime}
	resolver := newTestResolver(source, clock)
	ctx := context.Background()

	first := resolver.Resolve(ctx, "8.8.8.8")
	if !first.Resolved() || *first.CountryCode != "US" {
		t.Fatalf("unexpected estimate: %+v", first)
	}

	clock.Advance(30 * time.Minute)
	second := resolver.Resolve(ctx, "8.8.8.8")
	if source.callCount("8.8.8.8") != 1 {
		t.Errorf("second lookup within TTL hit upstream (%d calls)", source.callCount("8.8.8.8"))
	}
	if *second.CountryCode != "US" {
		t.Errorf("cached value changed: %+v", second)
	}

	clock.Advance(time.Hour)
	resolver.Resolve(ctx, "8.8.8.8")
	if source.callCount("8.8.8.8") != 2 {
		t.Errorf("expired entry was served (%d calls)", source.callCount("8.8.8.8"))
	}
}

func TestGeoResolver_Unresolved(t *testing.T) {
	source := newFakeGeoSource(map[string]string{})
	source.fail["9.9.9.9"] = true
	resolver := newTestResolver(source, &fakeClock{now: baseTime})
	ctx := context.Background()

	tests := []struct {
		ip        string
		reason    string
		upstream  int
		cacheable bool
	}{
		{"10.1.2.3", models.ReasonReserved, 0, false},
		{"192.168.0.1", models.ReasonReserved, 0, false},
		{"127.0.0.1", models.ReasonReserved, 0, false},
		{"100.64.1.1", models.ReasonReserved, 0, false},
		{"fe80::1", models.ReasonReserved, 0, false},
		{"2001:db8::5", models.ReasonReserved, 0, false},
		{"::ffff:10.0.0.1", models.ReasonReserved, 0, false},
		{"not-an-ip", models.ReasonInvalid, 0, false},
		{"1.2.3.4", models.ReasonUnknown, 1, true},
		{"9.9.9.9", models.ReasonFailed, 3, false},
	}
	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			est := resolver.Resolve(ctx, tt.ip)
			if est.Resolved() || est.Reason != tt.reason || est.IP != tt.ip {
				t.Errorf("Resolve(%s) = %+v, want reason %s", tt.ip, est, tt.reason)
			}
			if got := source.callCount(tt.ip); got != tt.upstream {
				t.Errorf("upstream calls = %d, want %d", got, tt.upstream)
			}

			resolver.Resolve(ctx, tt.ip)
			want := tt.upstream
			if !tt.cacheable {
				want *= 2
			}
			if got := source.callCount(tt.ip); got != want {
				t.Errorf("after second resolve upstream calls = %d, want %d", got, want)
			}
		})
	}
}

func TestGeoResolver_CoalescesConcurrentLookups(t *testing.T) {
	source := newFakeGeoSource(map[string]string{"8.8.4.4": "US", "1.1.1.1": "AU"})
	source.delay = 50 * time.Millisecond
	resolver := newTestResolver(source, &fakeClock{now: baseTime})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resolver.Resolve(context.Background(), "8.8.4.4")
		}()
	}
	wg.Wait()

	if got := source.callCount("8.8.4.4"); got != 1 {
		t.Errorf("concurrent lookups issued %d upstream calls, want 1", got)
	}
}

func TestGeoResolver_ResolveAll(t *testing.T) {
	source := newFakeGeoSource(map[string]string{"8.8.8.8": "US", "81.2.69.142": "GB"})
	source.fail["5.5.5.5"] = true
	resolver := newTestResolver(source, &fakeClock{now: baseTime})

	ips := []string{"8.8.8.8", "81.2.69.142", "8.8.8.8", "10.0.0.1"}
	got, complete := resolver.ResolveAll(context.Background(), ips)
	if !complete {
		t.Error("reserved addresses must not make the map incomplete")
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 distinct entries, got %+v", got)
	}
	if est := got["10.0.0.1"]; est.Resolved() || est.Reason != models.ReasonReserved {
		t.Errorf("reserved entry missing or resolved: %+v", est)
	}
	if *got["81.2.69.142"].CountryCode != "GB" {
		t.Errorf("unexpected GB entry: %+v", got["81.2.69.142"])
	}

	_, complete = resolver.ResolveAll(context.Background(), []string{"8.8.8.8", "5.5.5.5"})
	if complete {
		t.Error("a failed lookup must mark the map incomplete")
	}
}

func TestGeoResolver_Timeout(t *testing.T) {
	source := newFakeGeoSource(map[string]string{"8.8.8.8": "US"})
	source.delay = time.Second
	resolver := newTestResolver(source, &fakeClock{now: baseTime})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	got, complete := resolver.ResolveAll(ctx, []string{"8.8.8.8"})
	if complete || got["8.8.8.8"].Reason != models.ReasonTimeout {
		t.Errorf("expected timed out entry, got %+v", got)
	}
}

func TestGeoResolver_SharedLookupOutlivesCancelledCaller(t *testing.T) {
	source := newFakeGeoSource(map[string]string{"8.8.8.8": "US"})
	source.delay = 100 * time.Millisecond
	resolver := newTestResolver(source, &fakeClock{now: baseTime})

	ctxA, cancelA := context.WithCancel(context.Background())
	resultA := make(chan models.CountryEstimate, 1)
	go func() { resultA <- resolver.Resolve(ctxA, "8.8.8.8") }()

	// let A start the upstream call before B joins it
	time.Sleep(20 * time.Millisecond)
	resultB := make(chan models.CountryEstimate, 1)
	go func() { resultB <- resolver.Resolve(context.Background(), "8.8.8.8") }()
	time.Sleep(20 * time.Millisecond)
	cancelA()

	if a := <-resultA; a.Resolved() || a.Reason != models.ReasonTimeout {
		t.Errorf("cancelled caller = %+v, want timed out", a)
	}
	b := <-resultB
	if !b.Resolved() || *b.CountryCode != "US" {
		t.Errorf("live caller = %+v, want US", b)
	}
	if got := source.callCount("8.8.8.8"); got != 1 {
		t.Errorf("upstream calls = %d, want 1", got)
	}
}
