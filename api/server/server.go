package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/auth"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/config"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/court"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/notify"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/storage"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/validation"
)

type Server struct {
	court      *court.Service
	auth       *auth.Authorizer
	validator  *validation.Validator
	hub        *notify.Hub
	store      *storage.Storage
	cfg        config.ServerConfig
	limiter    *loginLimiter
	ListenAddr string
	startTime  time.Time
	httpServer *http.Server
}

func NewServer(svc *court.Service, authz *auth.Authorizer, v *validation.Validator, hub *notify.Hub, store *storage.Storage, cfg config.ServerConfig) *Server {
	s := &Server{
		court:      svc,
		auth:       authz,
		validator:  v,
		hub:        hub,
		store:      store,
		cfg:        cfg,
		limiter:    newLoginLimiter(cfg.LoginRateLimit, store),
		ListenAddr: cfg.ListenAddr,
		startTime:  time.Now(),
	}
	s.httpServer = &http.Server{
		Addr:              s.ListenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler builds the routing table. Every route is also served under /api
// for the web frontend.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	for _, prefix := range []string{"", "/api"} {
		route := func(pattern string, h http.HandlerFunc) {
			method, path, _ := strings.Cut(pattern, " ")
			mux.HandleFunc(method+" "+prefix+path, h)
		}

		// Health and node status are public.
		route("GET /health", s.HandleHealth)
		route("GET /health/liveness", s.HandleLiveness)
		route("GET /health/readiness", s.HandleReadiness)
		route("GET /status", s.HandleStatus)

		route("POST /auth/login", s.throttle(s.handleLogin))
		route("POST /auth/register", s.protect(s.handleRegister, auth.RoleAdmin))
		route("GET /auth/me", s.protect(s.handleMe))

		route("POST /cases", s.guard(s.handleCreateCase))
		route("GET /cases", s.guard(s.handleListCases))
		route("GET /cases/{id}", s.guard(s.handleGetCase))
		route("POST /cases/{id}/documents", s.guard(s.handleAddDocument))
		route("POST /cases/{id}/hearings", s.guard(s.handleScheduleHearing))
		route("POST /cases/{id}/judgment", s.guard(s.handleIssueJudgment))
		route("POST /documents/verify", s.guard(s.handleVerifyDocument))

		route("GET /judges", s.guard(s.handleListJudges))
		route("POST /judges", s.guard(s.handleRegisterJudge, auth.RoleAdmin))

		route("GET /blockchain/chain", s.guard(s.handleChain))
		route("GET /blockchain/verify", s.guard(s.handleVerify))
		route("GET /blockchain/statistics", s.guard(s.handleStatistics))
		route("GET /blockchain/export", s.guard(s.handleExport))
		route("GET /blockchain/pending", s.guard(s.handlePending))
		route("GET /blockchain/subscribe", s.guard(s.handleSubscribe))
	}
	return s.withCORS(withRequestLog(mux))
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	log.Println("[API] server listening at", s.ListenAddr)

	var err error
	if s.cfg.EnableHTTPS {
		log.Println("[HTTPS] Enabled. Using cert:", s.cfg.TLSCertPath, "key:", s.cfg.TLSKeyPath)
		err = s.httpServer.ListenAndServeTLS(s.cfg.TLSCertPath, s.cfg.TLSKeyPath)
	} else {
		log.Println("[HTTPS] Disabled. Serving HTTP only!")
		err = s.httpServer.ListenAndServe()
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
