package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	agentdomain "github.com/agentbill/agentbill/internal/agent/domain"
	catalogdomain "github.com/agentbill/agentbill/internal/catalog/domain"
	"github.com/agentbill/agentbill/internal/config"
	creditdomain "github.com/agentbill/agentbill/internal/credits/domain"
	customerdomain "github.com/agentbill/agentbill/internal/customer/domain"
	feedomain "github.com/agentbill/agentbill/internal/fees/domain"
	linkdomain "github.com/agentbill/agentbill/internal/link/domain"
	meteringdomain "github.com/agentbill/agentbill/internal/metering/domain"
	obsmetrics "github.com/agentbill/agentbill/internal/observability/metrics"
	profitabilitydomain "github.com/agentbill/agentbill/internal/profitability/domain"
	"github.com/agentbill/agentbill/internal/ratelimit"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(RequestLogMiddleware(log))
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(log, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine *gin.Engine
	cfg    config.Config
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node

	customerSvc      customerdomain.Service
	agentSvc         agentdomain.Service
	catalogSvc       catalogdomain.Service
	creditSvc        creditdomain.Service
	feeSvc           feedomain.Service
	linkSvc          linkdomain.Service
	meteringSvc      meteringdomain.Service
	profitabilitySvc profitabilitydomain.Service

	ingestLimiter *ratelimit.IngestLimiter
}

type ServerParams struct {
	fx.In

	Gin   *gin.Engine
	Cfg   config.Config
	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node

	CustomerSvc      customerdomain.Service
	AgentSvc         agentdomain.Service
	CatalogSvc       catalogdomain.Service
	CreditSvc        creditdomain.Service
	FeeSvc           feedomain.Service
	LinkSvc          linkdomain.Service
	MeteringSvc      meteringdomain.Service
	ProfitabilitySvc profitabilitydomain.Service

	IngestLimiter *ratelimit.IngestLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:           p.Gin,
		cfg:              p.Cfg,
		db:               p.DB,
		log:              p.Log.Named("server"),
		genID:            p.GenID,
		customerSvc:      p.CustomerSvc,
		agentSvc:         p.AgentSvc,
		catalogSvc:       p.CatalogSvc,
		creditSvc:        p.CreditSvc,
		feeSvc:           p.FeeSvc,
		linkSvc:          p.LinkSvc,
		meteringSvc:      p.MeteringSvc,
		profitabilitySvc: p.ProfitabilitySvc,
		ingestLimiter:    p.IngestLimiter,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Customers --------
	api.GET("/customers", s.ListCustomers)
	api.POST("/customers", s.CreateCustomer)
	api.GET("/customers/:id", s.GetCustomerByID)
	api.PATCH("/customers/:id", s.UpdateCustomer)
	api.DELETE("/customers/:id", s.DeleteCustomer)
	api.GET("/customers/:id/links", s.ListCustomerLinks)
	api.GET("/customers/:id/credits", s.ListCustomerCredits)

	// -------- Agents --------
	api.GET("/agents", s.ListAgents)
	api.POST("/agents", s.CreateAgent)
	api.GET("/agents/:id", s.GetAgentByID)
	api.PATCH("/agents/:id", s.UpdateAgent)
	api.DELETE("/agents/:id", s.DeleteAgent)
	api.GET("/agents/:id/links", s.ListAgentLinks)

	// -------- Model catalog --------
	api.GET("/models", s.ListModels)
	api.POST("/models", s.CreateModel)
	api.GET("/models/:id", s.GetModelByID)
	api.PATCH("/models/:id", s.UpdateModel)
	api.DELETE("/models/:id", s.DeleteModel)

	// -------- Links --------
	api.POST("/links", s.CreateLink)
	api.DELETE("/links", s.DeleteLink)

	// -------- Credits --------
	api.POST("/credits/topup", s.TopUpCredits)
	api.GET("/credits/balance", s.GetCreditBalance)

	// -------- Metering --------
	api.POST("/usage/tokens", s.IngestRateLimit(), s.RecordTokenUsage)
	api.POST("/usage/tokens/batch", s.IngestRateLimit(), s.RecordTokenUsageBatch)
	api.POST("/usage/signals", s.IngestRateLimit(), s.RecordSignalCall)
	api.GET("/usage/tokens", s.ListTokenUsage)
	api.GET("/usage/signals", s.ListSignalCalls)

	// -------- Fees --------
	api.GET("/fees", s.ListFees)
	api.POST("/fees/renew", s.RenewDueFees)

	// -------- Profitability --------
	api.GET("/profitability", s.GetProfitability)
}
