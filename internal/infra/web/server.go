package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"captive-wifi-billing/internal/usecase"
)

type Server struct {
	purchaseUC usecase.PurchaseUseCase
	callbackUC usecase.CallbackUseCase
	planUC     usecase.PlanUseCase
	jwtSecret  string
	log        *zerolog.Logger
}

func NewServer(
	purchaseUC usecase.PurchaseUseCase,
	callbackUC usecase.CallbackUseCase,
	planUC usecase.PlanUseCase,
	jwtSecret string,
	logger *zerolog.Logger,
) *Server {
	srvLog := logger.With().Str("component", "web").Logger()
	return &Server{
		purchaseUC: purchaseUC,
		callbackUC: callbackUC,
		planUC:     planUC,
		jwtSecret:  jwtSecret,
		log:        &srvLog,
	}
}

// Routes builds the HTTP routing tree. The provider callback and the plan
// catalog are public; purchasing requires a bearer token.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/api/plans", plansListHandler(s.planUC))
	r.Post("/api/mpesa/callback", callbackHandler(s.callbackUC, s.log))

	r.Group(func(pr chi.Router) {
		pr.Use(jwtGuard(s.jwtSecret, s.log))
		pr.Post("/api/payments/purchase", purchaseHandler(s.purchaseUC, s.log))
	})

	return r
}
