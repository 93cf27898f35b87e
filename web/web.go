package web

import (
	"context"
	"crypto/rand"
	"net"
	"net/http"

	"github.com/ZKyNetOfficial/zkynet-client/api"
	"github.com/ZKyNetOfficial/zkynet-client/config"
	"github.com/ZKyNetOfficial/zkynet-client/logger"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

// Server is the local control surface: a small authenticated HTTP API the
// presentation layer drives the orchestrator through.
type Server struct {
	httpServer *http.Server
	listener   net.Listener

	apiService *api.ApiService

	ctx    context.Context
	cancel context.CancelFunc
}

func NewServer(apiService *api.ApiService) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		apiService: apiService,
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (s *Server) initRouter() (*gin.Engine, error) {
	if config.IsDebug() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.DefaultWriter = nil
		gin.DefaultErrorWriter = nil
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, err
	}
	store := cookie.NewStore(secret)
	engine.Use(sessions.Sessions("zkynet", store))
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	group := engine.Group("/api")
	api.NewAPIHandler(group, s.apiService)

	return engine, nil
}

func (s *Server) Start() error {
	engine, err := s.initRouter()
	if err != nil {
		return err
	}

	listenAddr := config.GetListenAddr()
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}
	s.listener = listener

	s.httpServer = &http.Server{
		Addr:    listenAddr,
		Handler: engine,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Error("web server:", err)
		}
	}()
	logger.Infof("web server listening on %s", listenAddr)

	return nil
}

func (s *Server) Stop() error {
	s.cancel()
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(s.ctx)
}
