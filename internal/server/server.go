package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	suggestresponse "realty-crm/internal/api/ai/suggest-response"
	dashboardmetrics "realty-crm/internal/api/dashboard/dashboard-metrics"
	listleads "realty-crm/internal/api/leads/list-leads"
	searchproperties "realty-crm/internal/api/properties/search-properties"
	"realty-crm/internal/common/config"
	"realty-crm/internal/common/llm"
	"realty-crm/internal/common/logger"
	"realty-crm/internal/common/observability"
)

// Dependencies are the clients the API handlers run against. Any of the
// backing clients may be nil when the handlers that need them are disabled.
type Dependencies struct {
	Config        *config.Config
	Logger        logger.Logger
	DB            *sql.DB
	Redis         redis.Cmdable
	Search        *elasticsearch.Client
	Provider      llm.Completer
	Observability *observability.Observability
	Checks        []HealthCheck
}

type Server struct {
	engine *gin.Engine
	http   *http.Server
	logger logger.Logger
}

func New(deps Dependencies) (*Server, error) {
	cfg := deps.Config
	log := deps.Logger.WithFields(map[string]interface{}{"component": "server"})

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	// Recovery sits inside AccessLog and Metrics so recovered panics are
	// still logged and counted as 500s.
	engine.Use(
		RequestID(),
		AccessLog(log),
		otelgin.Middleware(cfg.Observability.ServiceName),
		Metrics(deps.Observability),
		Recovery(log, suggestFallback),
		CORS(cfg.Server.AllowOrigins),
		BodyLimit(cfg.Server.MaxBodyBytes),
	)

	engine.GET("/health", healthHandler)
	engine.GET("/ready", readyHandler(deps.Checks))
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if err := registerRoutes(engine, deps, log); err != nil {
		return nil, err
	}

	return &Server{
		engine: engine,
		http: &http.Server{
			Addr:         cfg.Server.Address,
			Handler:      engine,
			ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
			WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
		},
		logger: log,
	}, nil
}

func registerRoutes(engine *gin.Engine, deps Dependencies, log logger.Logger) error {
	cfg := deps.Config

	if config.IsHandlerEnabled(cfg, config.HandlerSuggestResponse) {
		h, err := suggestresponse.NewHandler(suggestresponse.LoadConfig(cfg), deps.Provider, deps.Logger)
		if err != nil {
			return fmt.Errorf("create %s handler: %w", config.HandlerSuggestResponse, err)
		}
		engine.POST(suggestresponse.Route, h.Handle)
		log.Info("route registered", map[string]interface{}{"route": suggestresponse.Route})
	}

	if config.IsHandlerEnabled(cfg, config.HandlerListLeads) {
		if deps.DB == nil {
			return fmt.Errorf("%s requires a database", config.HandlerListLeads)
		}
		h := listleads.NewHandler(listleads.LoadConfig(cfg), deps.DB, deps.Redis, deps.Logger)
		engine.GET(listleads.Route, h.Handle)
		log.Info("route registered", map[string]interface{}{"route": listleads.Route})
	}

	if config.IsHandlerEnabled(cfg, config.HandlerDashboardMetrics) {
		if deps.DB == nil {
			return fmt.Errorf("%s requires a database", config.HandlerDashboardMetrics)
		}
		h := dashboardmetrics.NewHandler(dashboardmetrics.LoadConfig(cfg), deps.DB, deps.Redis, deps.Logger)
		engine.GET(dashboardmetrics.Route, h.Handle)
		log.Info("route registered", map[string]interface{}{"route": dashboardmetrics.Route})
	}

	if config.IsHandlerEnabled(cfg, config.HandlerSearchProperties) {
		if deps.Search == nil {
			return fmt.Errorf("%s requires elasticsearch", config.HandlerSearchProperties)
		}
		h := searchproperties.NewHandler(searchproperties.LoadConfig(cfg), deps.Search, deps.Logger)
		engine.GET(searchproperties.Route, h.Handle)
		log.Info("route registered", map[string]interface{}{"route": searchproperties.Route})
	}

	return nil
}

// suggestFallback keeps the suggestion endpoint's 500 body renderable even
// when a panic escapes the handler.
func suggestFallback(c *gin.Context) interface{} {
	if c.FullPath() == suggestresponse.Route {
		return suggestresponse.FallbackResponse()
	}
	return nil
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start blocks until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("http server listening", map[string]interface{}{"address": s.http.Addr})
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
