package wiki

import (
	"context"
	"errors"
	"log/slog"
	"net/netip"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"wikidash/internal/cache"
	models "wikidash/internal/domain/models/wiki"
	wikiSvc "wikidash/internal/domain/services/wiki"
	"wikidash/internal/retry"
)

var _ wikiSvc.GeoResolver = (*GeoResolver)(nil)

// GeoSource answers single-IP country lookups. found is false when the
// source has no country for the address.
type GeoSource interface {
	Country(ctx context.Context, ip string) (code string, found bool, err error)
}

// reservedPrefixes are special-purpose ranges netip has no predicate for
var reservedPrefixes = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("100.64.0.0/10"), // carrier-grade NAT
	netip.MustParsePrefix("192.0.0.0/24"),
	netip.MustParsePrefix("192.0.2.0/24"),
	netip.MustParsePrefix("198.18.0.0/15"),
	netip.MustParsePrefix("198.51.100.0/24"),
	netip.MustParsePrefix("203.0.113.0/24"),
	netip.MustParsePrefix("240.0.0.0/4"),
	netip.MustParsePrefix("2001:db8::/32"),
	netip.MustParsePrefix("100::/64"),
}

// defaultLookupTimeout bounds a shared lookup when the retry policy sets no
// per-attempt deadline
const defaultLookupTimeout = 30 * time.Second

// GeoResolver maps anonymous editor IPs to countries through a shared,
// expiring cache. Concurrent lookups of one IP share a single upstream call.
type GeoResolver struct {
	source      GeoSource
	cache       *cache.TTL[models.CountryEstimate]
	policy      retry.Policy
	limiter     *rate.Limiter
	concurrency int
	lookupLimit time.Duration
	now         func() time.Time
	logger      *slog.Logger
}

// NewGeoResolver creates a resolver. limiter may be nil for no rate limit.
func NewGeoResolver(
	source GeoSource,
	c *cache.TTL[models.CountryEstimate],
	policy retry.Policy,
	limiter *rate.Limiter,
	concurrency int,
	logger *slog.Logger,
) *GeoResolver {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &GeoResolver{
		source:      source,
		cache:       c,
		policy:      policy,
		limiter:     limiter,
		concurrency: concurrency,
		lookupLimit: lookupTimeout(policy),
		now:         time.Now,
		logger:      logger,
	}
}

// Resolve never fails. Invalid and reserved addresses are answered locally;
// an upstream "unknown" answer is cached like a country; a lookup that keeps
// failing is returned unresolved and not cached, so a later call retries it.
func (r *GeoResolver) Resolve(ctx context.Context, ip string) models.CountryEstimate {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return models.UnresolvedCountry(ip, models.ReasonInvalid)
	}
	addr = addr.Unmap()
	if isReserved(addr) {
		return models.UnresolvedCountry(ip, models.ReasonReserved)
	}

	key := addr.String()
	if est, ok := r.cache.Get(key); ok {
		est.IP = ip
		return est
	}

	est, shared, err := r.cache.Coalesce(ctx, key, func() (models.CountryEstimate, error) {
		// another caller may have stored it between Get and Coalesce
		if est, ok := r.cache.Get(key); ok {
			return est, nil
		}
		// shared by every waiter, so it outlives the caller that started it
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.lookupLimit)
		defer cancel()
		est, err := r.lookup(loadCtx, key)
		if err != nil {
			return est, err
		}
		r.cache.Put(key, est)
		return est, nil
	})
	if shared {
		r.logger.Debug("geolocation lookup coalesced", "ip", key)
	}
	if err != nil {
		reason := models.ReasonFailed
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			reason = models.ReasonTimeout
		}
		r.logger.Warn("geolocation lookup failed", "ip", key, "reason", reason, "error", err)
		return models.UnresolvedCountry(ip, reason)
	}
	est.IP = ip
	return est
}

func (r *GeoResolver) lookup(ctx context.Context, ip string) (models.CountryEstimate, error) {
	var (
		code  string
		found bool
	)
	err := r.policy.Do(ctx, func(ctx context.Context) error {
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		var err error
		code, found, err = r.source.Country(ctx, ip)
		return err
	})
	if err != nil {
		return models.CountryEstimate{}, err
	}

	est := models.UnresolvedCountry(ip, models.ReasonUnknown)
	if found {
		est = models.ResolvedCountry(ip, code)
	}
	est.ResolvedAt = r.now()
	return est, nil
}

// lookupTimeout is the longest a full retry sequence can take under policy
func lookupTimeout(policy retry.Policy) time.Duration {
	if policy.AttemptTimeout <= 0 {
		return defaultLookupTimeout
	}
	attempts := time.Duration(max(policy.MaxAttempts, 1))
	return attempts*policy.AttemptTimeout + (attempts-1)*policy.MaxDelay
}

// ResolveAll resolves the distinct ips with bounded parallelism. complete is
// false when any lookup failed or timed out; unknown and reserved addresses
// are normal outcomes and leave it true.
func (r *GeoResolver) ResolveAll(ctx context.Context, ips []string) (models.CountryMap, bool) {
	distinct := make([]string, 0, len(ips))
	seen := make(map[string]bool, len(ips))
	for _, ip := range ips {
		if !seen[ip] {
			seen[ip] = true
			distinct = append(distinct, ip)
		}
	}

	estimates := make([]models.CountryEstimate, len(distinct))
	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, ip := range distinct {
		g.Go(func() error {
			if ctx.Err() != nil {
				estimates[i] = models.UnresolvedCountry(ip, models.ReasonTimeout)
				return nil
			}
			estimates[i] = r.Resolve(ctx, ip)
			return nil
		})
	}
	_ = g.Wait()

	result := make(models.CountryMap, len(distinct))
	complete := true
	for _, est := range estimates {
		result[est.IP] = est
		if est.Reason == models.ReasonFailed || est.Reason == models.ReasonTimeout {
			complete = false
		}
	}
	return result, complete
}

func isReserved(addr netip.Addr) bool {
	if addr.IsPrivate() || addr.IsLoopback() || addr.IsUnspecified() ||
		addr.IsMulticast() || addr.IsLinkLocalUnicast() || addr.IsLinkLocalMulticast() ||
		addr.IsInterfaceLocalMulticast() {
		return true
	}
	for _, p := range reservedPrefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
