package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"content-marketplace/internal/domain/ports/adapter"
	"content-marketplace/internal/domain/ports/repository"
	"content-marketplace/internal/infra/logging"
	"content-marketplace/internal/usecase"
)

// RateLimiter is the window-counter surface the server needs; the Redis
// implementation satisfies it.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// Locker serializes duplicate webhook deliveries; best effort only.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (string, error)
	Unlock(ctx context.Context, key, token string) error
}

type Server struct {
	checkoutUC   usecase.CheckoutUseCase
	couponUC     usecase.CouponUseCase
	entitlements usecase.EntitlementUseCase
	transactions repository.TransactionRepository
	products     repository.ProductRepository
	gateway      adapter.PaymentGateway
	auth         *AuthManager
	limiter      RateLimiter
	locker       Locker
	checkoutRate int
	log          *zerolog.Logger
}

func NewServer(
	checkoutUC usecase.CheckoutUseCase,
	couponUC usecase.CouponUseCase,
	entitlements usecase.EntitlementUseCase,
	transactions repository.TransactionRepository,
	products repository.ProductRepository,
	gateway adapter.PaymentGateway,
	auth *AuthManager,
	limiter RateLimiter,
	locker Locker,
	checkoutRate int,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		checkoutUC:   checkoutUC,
		couponUC:     couponUC,
		entitlements: entitlements,
		transactions: transactions,
		products:     products,
		gateway:      gateway,
		auth:         auth,
		limiter:      limiter,
		locker:       locker,
		checkoutRate: checkoutRate,
		log:          logger,
	}
}

// Router builds the chi router with all routes and middleware attached.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(TraceID())
	r.Use(Recover(s.log))
	r.Use(RequestLog(s.log))
	r.Use(Timeout(15 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", s.handleListProducts)

		// Provider callback: both verbs are delivered in the wild.
		r.Get("/payment/notify", s.handleWebhook)
		r.Post("/payment/notify", s.handleWebhook)

		r.Group(func(r chi.Router) {
			r.Use(s.requireBuyer)
			r.Post("/checkout", s.handleCheckout)
			r.Post("/coupons/validate", s.handleValidateCoupon)
		})
	})

	return r
}

type ctxKey string

const buyerIDKey ctxKey = "buyer_id"

// requireBuyer authenticates the request and stores the buyer id in
// the context.
func (s *Server) requireBuyer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.auth.ParseFromRequest(r)
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), buyerIDKey, claims.Subject)
		ctx = logging.WithBuyerID(ctx, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func buyerID(ctx context.Context) string {
	if v, ok := ctx.Value(buyerIDKey).(string); ok {
		return v
	}
	return ""
}
