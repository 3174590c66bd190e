// Package stubserver 是一个本地替身后端：实现与线上后端一致的
// JSON-over-HTTP 接口，用于离线演示与端到端测试。回复是剧本化的，
// 不接任何模型。
package stubserver

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/emobotplus/emobot-client/internal/api"
	"github.com/emobotplus/emobot-client/pkg/utils"
)

type contextKey string

const recordKey contextKey = "stubserver.record"

// userRecord 是一个已登录用户的全部服务端状态。
type userRecord struct {
	User        api.User
	Assessment  *api.MBTISnapshot
	SelectedBot string
}

// Server holds the in-memory state behind the stub routes.
type Server struct {
	mu     sync.Mutex
	users  map[string]*userRecord
	nextID int64
	log    *logrus.Logger
	now    func() time.Time
}

// New builds an empty stub backend.
func New(log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.New()
	}
	return &Server{
		users: make(map[string]*userRecord),
		log:   log,
		now:   time.Now,
	}
}

// Router wires the stub routes with the usual middleware stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(corsMiddleware)

	r.Post("/api/auth/join", s.handleJoin)
	r.Get("/api/health", s.handleHealth)

	r.Group(func(authed chi.Router) {
		authed.Use(s.requireAuth)
		authed.Get("/api/user/profile", s.handleProfile)
		authed.Post("/api/assessments/upsert", s.handleUpsert)
		authed.Post("/api/match/recommend", s.handleRecommend)
		authed.Post("/api/match/choose", s.handleChoose)
		authed.Post("/api/chat/send", s.handleSend)
	})

	return r
}

// requireAuth 校验 Bearer Token 并把用户记录挂到请求上下文。
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if token == "" || token == header {
			utils.RespondDetail(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		s.mu.Lock()
		record, ok := s.users[token]
		s.mu.Unlock()
		if !ok {
			utils.RespondDetail(w, http.StatusUnauthorized, "invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), recordKey, record)))
	})
}

func recordFrom(r *http.Request) *userRecord {
	record, _ := r.Context().Value(recordKey).(*userRecord)
	return record
}

// requestLogger 以结构化字段记录每个请求。
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := s.now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.WithFields(logrus.Fields{
			"method":  r.Method,
			"path":    r.URL.Path,
			"status":  ww.Status(),
			"elapsed": time.Since(start).String(),
		}).Info("request")
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-User-Id")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
