package server

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/emilythestrangee/blogposts/backend/internal/auth"
	"github.com/emilythestrangee/blogposts/backend/internal/config"
	"github.com/emilythestrangee/blogposts/backend/internal/database"
	"github.com/emilythestrangee/blogposts/backend/internal/handlers"
	"github.com/emilythestrangee/blogposts/backend/internal/logger"
	"github.com/emilythestrangee/blogposts/backend/internal/middleware"
	"github.com/emilythestrangee/blogposts/backend/internal/monitoring"
	"github.com/emilythestrangee/blogposts/backend/internal/services"
)

type Server struct {
	cfg     config.Config
	db      database.Service
	authn   *services.AuthService
	handler *handlers.Handler
}

type route struct {
	method  string
	path    string
	handler gin.HandlerFunc
	auth    bool
}

// New wires the services and handlers on top of an open database.
func New(cfg config.Config, db database.Service) *Server {
	gormDB := db.GetDB()

	hasher := auth.NewPasswordHasher(cfg.BcryptCost)
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiry)

	users := services.NewUserService(gormDB, hasher)
	posts := services.NewPostService(gormDB)
	votes := services.NewVoteService(gormDB)
	authn := services.NewAuthService(users, hasher, tokens)

	return &Server{
		cfg:     cfg,
		db:      db,
		authn:   authn,
		handler: handlers.NewHandler(users, posts, votes, authn),
	}
}

// HTTPServer returns the configured *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

func (s *Server) routes() []route {
	h := s.handler
	return []route{
		{http.MethodGet, "/", s.welcome, false},
		{http.MethodGet, "/health", s.health, false},
		{http.MethodGet, "/metrics", gin.WrapH(promhttp.Handler()), false},

		{http.MethodPost, "/users/register", h.Auth.Register, false},
		{http.MethodPost, "/users/login", h.Auth.Login, false},
		{http.MethodGet, "/users/", h.User.ListUsers, false},
		{http.MethodGet, "/users/me", h.Auth.GetMe, true},
		{http.MethodPut, "/users/me", h.User.UpdateMe, true},
		{http.MethodGet, "/users/search", h.User.SearchUsers, false},
		{http.MethodGet, "/users/:id", h.User.GetUser, false},
		{http.MethodGet, "/users/:id/posts", h.User.GetUserPosts, false},
		{http.MethodDelete, "/users/:id", h.User.DeleteUser, true},

		{http.MethodPost, "/posts/", h.Post.CreatePost, true},
		{http.MethodGet, "/posts/", h.Post.GetPosts, false},
		{http.MethodGet, "/posts/search", h.Post.SearchPosts, false},
		{http.MethodGet, "/posts/:id", h.Post.GetPost, false},
		{http.MethodPut, "/posts/:id", h.Post.UpdatePost, true},
		{http.MethodDelete, "/posts/:id", h.Post.DeletePost, true},
		{http.MethodGet, "/posts/:id/votes", h.Post.GetVotes, false},
		{http.MethodGet, "/posts/:id/my-vote", h.Post.GetMyVote, true},
		{http.MethodPost, "/posts/:id/vote", h.Post.VotePost, true},
	}
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger.Log))
	r.Use(monitoring.Instrument())

	corsCfg := cors.Config{
		AllowOrigins:     s.cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if slices.Contains(s.cfg.CORSOrigins, "*") {
		// credentials cannot be combined with a wildcard origin
		corsCfg.AllowOrigins = nil
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	}
	r.Use(cors.New(corsCfg))

	requireAuth := middleware.AuthMiddleware(s.authn)
	for _, rt := range s.routes() {
		if rt.auth {
			r.Handle(rt.method, rt.path, requireAuth, rt.handler)
		} else {
			r.Handle(rt.method, rt.path, rt.handler)
		}
	}

	return r
}

func (s *Server) welcome(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Welcome to the Blog API!"})
}

func (s *Server) health(c *gin.Context) {
	stats := s.db.Health()
	if stats["status"] != "up" {
		c.JSON(http.StatusServiceUnavailable, stats)
		return
	}
	c.JSON(http.StatusOK, stats)
}
