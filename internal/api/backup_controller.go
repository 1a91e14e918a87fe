package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/madhukiran65/arni-medica-backend-sub001/internal/service"
)

// BackupController exposes database backup management for retention audits.
type BackupController struct {
	backupService *service.BackupService
}

// NewBackupController creates a backup controller.
func NewBackupController(backupService *service.BackupService) *BackupController {
	return &BackupController{
		backupService: backupService,
	}
}

// CreateBackup creates a point-in-time copy of the QMS database.
func (c *BackupController) CreateBackup(ctx *gin.Context) {
	backupPath, err := c.backupService.CreateBackup(ctx.Request.Context())
	if err != nil {
		Error(ctx, http.StatusInternalServerError, "failed to create backup", err.Error())
		return
	}

	backups, err := c.backupService.ListBackups(ctx.Request.Context())
	if err != nil {
		Error(ctx, http.StatusInternalServerError, "failed to list backups", err.Error())
		return
	}

	var backupInfo *service.BackupInfo
	for _, b := range backups {
		if b.Path == backupPath {
			backupInfo = &b
			break
		}
	}

	if backupInfo == nil {
		Error(ctx, http.StatusInternalServerError, "backup created but not found", "")
		return
	}

	Created(ctx, backupInfo)
}

// ListBackups lists all backup files with their sizes and timestamps.
func (c *BackupController) ListBackups(ctx *gin.Context) {
	backups, err := c.backupService.ListBackups(ctx.Request.Context())
	if err != nil {
		Error(ctx, http.StatusInternalServerError, "failed to list backups", err.Error())
		return
	}

	Success(ctx, backups)
}

// RestoreBackup restores the database from a named backup file.
func (c *BackupController) RestoreBackup(ctx *gin.Context) {
	filename := ctx.Param("filename")
	if filename == "" {
		Error(ctx, http.StatusBadRequest, "invalid filename", "filename is required")
		return
	}

	backups, err := c.backupService.ListBackups(ctx.Request.Context())
	if err != nil {
		Error(ctx, http.StatusInternalServerError, "failed to list backups", err.Error())
		return
	}

	var backupPath string
	for _, b := range backups {
		if b.Filename == filename {
			backupPath = b.Path
			break
		}
	}

	if backupPath == "" {
		Error(ctx, http.StatusNotFound, "backup not found", "")
		return
	}

	if err := c.backupService.RestoreBackup(ctx.Request.Context(), backupPath); err != nil {
		Error(ctx, http.StatusInternalServerError, "failed to restore backup", err.Error())
		return
	}

	Success(ctx, nil)
}

// DeleteBackup removes a named backup file.
func (c *BackupController) DeleteBackup(ctx *gin.Context) {
	filename := ctx.Param("filename")
	if filename == "" {
		Error(ctx, http.StatusBadRequest, "invalid filename", "filename is required")
		return
	}

	if err := c.backupService.DeleteBackup(ctx.Request.Context(), filename); err != nil {
		Error(ctx, http.StatusInternalServerError, "failed to delete backup", err.Error())
		return
	}

	Success(ctx, nil)
}
