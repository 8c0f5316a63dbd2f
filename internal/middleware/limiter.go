package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"donasi-be/internal/logger"
	"donasi-be/internal/utils"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// rateTier is one quota policy. Buckets are per tier and per identity.
type rateTier struct {
	name  string
	limit rate.Limit
	burst int
}

var (
	// Backend callers creating payments.
	tierService = rateTier{name: "service", limit: 100, burst: 200}

	// Provider callbacks, bucketed per gateway and source address. Providers
	// deliver from a handful of IPs and redeliver in bursts after an outage,
	// so the bucket is deep.
	tierProvider = rateTier{name: "provider", limit: 20, burst: 100}

	// Admin actions on manual payments.
	tierAdmin = rateTier{name: "admin", limit: 2, burst: 5}

	// Anonymous reads such as payer instructions.
	tierPublic = rateTier{name: "public", limit: 10, burst: 20}
)

const (
	visitorIdleTTL  = 3 * time.Minute
	janitorInterval = time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterStore keeps one token bucket per key and forgets idle keys.
type limiterStore struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	now      func() time.Time
}

func newLimiterStore() *limiterStore {
	return &limiterStore{visitors: make(map[string]*visitor), now: time.Now}
}

func (s *limiterStore) get(key string, t rateTier) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.visitors[key]; ok {
		v.lastSeen = s.now()
		return v.limiter
	}

	l := rate.NewLimiter(t.limit, t.burst)
	s.visitors[key] = &visitor{limiter: l, lastSeen: s.now()}
	return l
}

func (s *limiterStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, v := range s.visitors {
		if s.now().Sub(v.lastSeen) > visitorIdleTTL {
			delete(s.visitors, key)
		}
	}
}

func (s *limiterStore) janitor() {
	for {
		time.Sleep(janitorInterval)
		s.sweep()
	}
}

var defaultStore = newLimiterStore()

func init() {
	go defaultStore.janitor()
}

// RateLimitMiddleware applies the quota of the request's tier.
func RateLimitMiddleware(next http.Handler) http.Handler {
	return rateLimit(defaultStore, next)
}

func rateLimit(store *limiterStore, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tier, identity := resolveRateTier(r)

		if !store.get(tier.name+":"+identity, tier).Allow() {
			logger.FromCtx(r.Context()).Warn("Rate limit exceeded",
				zap.String("tier", tier.name),
				zap.String("identity", identity),
			)
			w.Header().Set("Retry-After", "1")
			utils.WriteJSONError(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// resolveRateTier picks the policy and the bucket identity for a request.
func resolveRateTier(r *http.Request) (rateTier, string) {
	ip := clientIP(r)

	switch {
	case utils.IsServiceCaller(r.Context()):
		return tierService, "service"
	case strings.HasPrefix(r.URL.Path, "/webhook/"):
		gateway := r.PathValue("gateway")
		if gateway == "" {
			gateway = strings.TrimPrefix(r.URL.Path, "/webhook/")
		}
		return tierProvider, strings.ToLower(gateway) + ":" + ip
	case strings.HasPrefix(r.URL.Path, "/admin/"):
		if adminID, ok := utils.GetUserIDFromContext(r.Context()); ok {
			return tierAdmin, "user:" + adminID
		}
		return tierAdmin, "ip:" + ip
	default:
		return tierPublic, "ip:" + ip
	}
}

func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
