package container

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/madhukiran65/arni-medica-backend-sub001/internal/api"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/auth"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/config"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/database"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/repository"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/sequence"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/service"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/workflow"
)

// Container wires the application dependencies together.
type Container struct {
	db                *gorm.DB
	registry          *workflow.Registry
	engine            *workflow.Engine
	keycloakValidator *auth.KeycloakTokenValidator

	capaService          service.CAPAService
	changeControlService service.ChangeControlService
	deviationService     service.DeviationService
	documentService      service.DocumentService
	riskService          service.RiskService
	signatureService     service.SignatureService
	auditLogService      service.AuditLogService
	statisticsService    service.StatisticsService
	backupService        *service.BackupService
}

// NewContainer builds the dependency graph from the configuration.
func NewContainer(cfg *config.Config) (*Container, error) {
	// Three connection attempts with exponential backoff.
	db, err := database.ConnectWithRetry(cfg.Database, 3, time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger := api.GetLogger()

	registry := workflow.NewRegistry()
	gates := workflow.DefaultGates()

	capaRepo := repository.NewCAPARepository(db)
	ccRepo := repository.NewChangeControlRepository(db)
	devRepo := repository.NewDeviationRepository(db)
	docRepo := repository.NewDocumentRepository(db)
	approvalRepo := repository.NewApprovalRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	auditLogRepo := repository.NewAuditLogRepository(db)
	riskRepo := repository.NewRiskRepository(db)

	engine := workflow.NewEngine(db, registry, gates, approvalRepo, logger)
	generator := sequence.NewGenerator(db)

	auditLogSvc := service.NewAuditLogService(auditLogRepo)

	capaSvc := service.NewCAPAService(capaRepo, approvalRepo, historyRepo, engine, generator, db, auditLogSvc)
	ccSvc := service.NewChangeControlService(ccRepo, approvalRepo, historyRepo, engine, generator, db, auditLogSvc)
	devSvc := service.NewDeviationService(devRepo, approvalRepo, historyRepo, capaSvc, engine, generator, db, auditLogSvc)
	docSvc := service.NewDocumentService(docRepo, approvalRepo, historyRepo, engine, generator, db, auditLogSvc)
	riskSvc := service.NewRiskService(riskRepo, generator, db, auditLogSvc)

	verifier := service.NewBcryptVerifier(cfg.Signature.Credentials)
	signatureSvc := service.NewSignatureService(approvalRepo, verifier, auditLogSvc)

	statisticsSvc := service.NewStatisticsService(db)
	backupSvc := service.NewBackupService(db, "./backups")

	var keycloakValidator *auth.KeycloakTokenValidator
	if cfg.Keycloak.Issuer != "" {
		keycloakValidator = auth.NewKeycloakTokenValidator(cfg.Keycloak.Issuer)
	}

	return &Container{
		db:                   db,
		registry:             registry,
		engine:               engine,
		keycloakValidator:    keycloakValidator,
		capaService:          capaSvc,
		changeControlService: ccSvc,
		deviationService:     devSvc,
		documentService:      docSvc,
		riskService:          riskSvc,
		signatureService:     signatureSvc,
		auditLogService:      auditLogSvc,
		statisticsService:    statisticsSvc,
		backupService:        backupSvc,
	}, nil
}

// DB returns the database handle.
func (c *Container) DB() *gorm.DB {
	return c.db
}

// Registry returns the workflow phase graph registry.
func (c *Container) Registry() *workflow.Registry {
	return c.registry
}

// Engine returns the workflow engine.
func (c *Container) Engine() *workflow.Engine {
	return c.engine
}

// KeycloakValidator returns the token validator, nil when auth is
// not configured.
func (c *Container) KeycloakValidator() *auth.KeycloakTokenValidator {
	return c.keycloakValidator
}

// CAPAService returns the CAPA application service.
func (c *Container) CAPAService() service.CAPAService {
	return c.capaService
}

// ChangeControlService returns the change control application service.
func (c *Container) ChangeControlService() service.ChangeControlService {
	return c.changeControlService
}

// DeviationService returns the deviation application service.
func (c *Container) DeviationService() service.DeviationService {
	return c.deviationService
}

// DocumentService returns the document application service.
func (c *Container) DocumentService() service.DocumentService {
	return c.documentService
}

// RiskService returns the risk management service.
func (c *Container) RiskService() service.RiskService {
	return c.riskService
}

// SignatureService returns the electronic signature service.
func (c *Container) SignatureService() service.SignatureService {
	return c.signatureService
}

// AuditLogService returns the audit trail service.
func (c *Container) AuditLogService() service.AuditLogService {
	return c.auditLogService
}

// StatisticsService returns the quality metrics service.
func (c *Container) StatisticsService() service.StatisticsService {
	return c.statisticsService
}

// BackupService returns the database backup service.
func (c *Container) BackupService() *service.BackupService {
	return c.backupService
}

// Close releases the container's resources.
func (c *Container) Close() error {
	if c.db != nil {
		sqlDB, err := c.db.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	return nil
}
