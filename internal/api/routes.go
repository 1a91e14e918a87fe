package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/madhukiran65/arni-medica-backend-sub001/internal/auth"
)

// RouterConfig bundles the dependencies the HTTP router needs.
type RouterConfig struct {
	DB             *gorm.DB
	Validator      *auth.KeycloakTokenValidator
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
	EnforceHTTPS   bool

	CAPA          *CAPAController
	ChangeControl *ChangeControlController
	Deviation     *DeviationController
	Document      *DocumentController
	Risk          *RiskController
	Signature     *SignatureController
	Workflow      *WorkflowController
	Statistics    *StatisticsController
	Backup        *BackupController
}

// SetupRoutes builds the gin engine with middleware and all routes.
func SetupRoutes(cfg *RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(HTTPSRedirectMiddlewareWithConfig(cfg.EnforceHTTPS))
	router.Use(RequestIDMiddleware())
	router.Use(RequestLogMiddleware())
	router.Use(ErrorHandlerMiddleware())
	router.Use(SecurityHeadersMiddleware())
	router.Use(VersionMiddleware())
	router.Use(SLAMonitorMiddleware(nil))

	if len(cfg.AllowedOrigins) > 0 {
		router.Use(CORSMiddleware(cfg.AllowedOrigins))
	}
	if cfg.RateLimitRPS > 0 {
		router.Use(RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst))
	}

	healthController := NewHealthController(cfg.DB)
	router.GET("/health", healthController.Check)
	router.GET("/metrics", MetricsHandler)

	v1 := router.Group("/api/v1")
	if cfg.Validator != nil {
		v1.Use(auth.KeycloakAuthMiddleware(cfg.Validator))
	}
	{
		capas := v1.Group("/capas")
		{
			capas.POST("", cfg.CAPA.Create)
			capas.GET("", cfg.CAPA.List)
			capas.GET("/:id", cfg.CAPA.Get)
			capas.PUT("/:id", cfg.CAPA.Update)
			capas.DELETE("/:id", cfg.CAPA.Delete)
			capas.GET("/by-capa-id/:capa_id", cfg.CAPA.GetByBusinessID)
			capas.POST("/:id/transition", cfg.CAPA.Transition)
			capas.GET("/:id/transitions", cfg.CAPA.AvailableTransitions)
			capas.GET("/:id/history", cfg.CAPA.History)
			capas.GET("/:id/approvals", cfg.CAPA.Approvals)
			capas.POST("/:id/approvals/respond", cfg.CAPA.RespondApproval)
		}

		ccs := v1.Group("/change-controls")
		{
			ccs.POST("", cfg.ChangeControl.Create)
			ccs.GET("", cfg.ChangeControl.List)
			ccs.GET("/:id", cfg.ChangeControl.Get)
			ccs.PUT("/:id", cfg.ChangeControl.Update)
			ccs.DELETE("/:id", cfg.ChangeControl.Delete)
			ccs.POST("/:id/transition", cfg.ChangeControl.Transition)
			ccs.GET("/:id/transitions", cfg.ChangeControl.AvailableTransitions)
			ccs.GET("/:id/history", cfg.ChangeControl.History)
			ccs.GET("/:id/approvals", cfg.ChangeControl.Approvals)
			ccs.POST("/:id/approvals/respond", cfg.ChangeControl.RespondApproval)
			ccs.POST("/:id/tasks", cfg.ChangeControl.AddTask)
			ccs.GET("/:id/tasks", cfg.ChangeControl.Tasks)
			ccs.PUT("/:id/tasks/:task_id", cfg.ChangeControl.UpdateTask)
		}

		deviations := v1.Group("/deviations")
		{
			deviations.POST("", cfg.Deviation.Create)
			deviations.GET("", cfg.Deviation.List)
			deviations.GET("/:id", cfg.Deviation.Get)
			deviations.PUT("/:id", cfg.Deviation.Update)
			deviations.DELETE("/:id", cfg.Deviation.Delete)
			deviations.POST("/:id/transition", cfg.Deviation.Transition)
			deviations.GET("/:id/transitions", cfg.Deviation.AvailableTransitions)
			deviations.GET("/:id/history", cfg.Deviation.History)
			deviations.GET("/:id/approvals", cfg.Deviation.Approvals)
			deviations.POST("/:id/approvals/respond", cfg.Deviation.RespondApproval)
			deviations.POST("/:id/spawn-capa", cfg.Deviation.SpawnCAPA)
		}

		documents := v1.Group("/documents")
		{
			documents.POST("", cfg.Document.Create)
			documents.GET("", cfg.Document.List)
			documents.GET("/:id", cfg.Document.Get)
			documents.PUT("/:id", cfg.Document.Update)
			documents.DELETE("/:id", cfg.Document.Delete)
			documents.POST("/:id/submit-review", cfg.Document.SubmitForReview)
			documents.POST("/:id/review-response", cfg.Document.RespondReview)
			documents.POST("/:id/make-effective", cfg.Document.MakeEffective)
			documents.POST("/:id/transition", cfg.Document.Transition)
			documents.GET("/:id/transitions", cfg.Document.AvailableTransitions)
			documents.GET("/:id/history", cfg.Document.History)
			documents.GET("/:id/approvals", cfg.Document.Approvals)
		}

		hazards := v1.Group("/hazards")
		{
			hazards.POST("", cfg.Risk.CreateHazard)
			hazards.GET("", cfg.Risk.ListHazards)
			hazards.GET("/:id", cfg.Risk.GetHazard)
			hazards.PUT("/:id", cfg.Risk.UpdateHazard)
			hazards.DELETE("/:id", cfg.Risk.DeleteHazard)
			hazards.POST("/:id/assessments", cfg.Risk.SaveAssessment)
			hazards.POST("/:id/mitigations", cfg.Risk.SaveMitigation)
		}

		fmea := v1.Group("/fmea")
		{
			fmea.POST("", cfg.Risk.CreateWorksheet)
			fmea.GET("/:id", cfg.Risk.GetWorksheet)
			fmea.POST("/:id/records", cfg.Risk.SaveFMEARecord)
		}

		signatures := v1.Group("/signatures")
		{
			signatures.POST("", cfg.Signature.Sign)
			signatures.GET("/:id", cfg.Signature.Get)
		}

		workflows := v1.Group("/workflows")
		{
			workflows.GET("/entities", cfg.Workflow.Entities)
			workflows.GET("/:entity/phases/:phase/transitions", cfg.Workflow.Transitions)
		}

		statistics := v1.Group("/statistics")
		{
			statistics.GET("/records/:entity/by-phase", cfg.Statistics.RecordsByPhase)
			statistics.GET("/records/:entity/by-time", cfg.Statistics.RecordsByTime)
			statistics.GET("/approvals", cfg.Statistics.Approvals)
			statistics.GET("/overdue-capas", cfg.Statistics.OverdueCAPAs)
		}

		backups := v1.Group("/backups")
		{
			backups.POST("", cfg.Backup.CreateBackup)
			backups.GET("", cfg.Backup.ListBackups)
			backups.POST("/:filename/restore", cfg.Backup.RestoreBackup)
			backups.DELETE("/:filename", cfg.Backup.DeleteBackup)
		}
	}

	return router
}
