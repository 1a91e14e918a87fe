package service

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// BackupScheduler runs periodic backups and prunes old archives.
type BackupScheduler struct {
	backupService *BackupService
	config        *BackupScheduleConfig
	stopChan      chan struct{}
}

// BackupScheduleConfig controls the backup cadence and retention.
type BackupScheduleConfig struct {
	FullBackupEnabled       bool
	FullBackupSchedule      string // cron format, e.g. "0 0 * * *"
	FullBackupRetentionDays int

	IncrementalBackupEnabled       bool
	IncrementalBackupInterval      time.Duration
	IncrementalBackupRetentionDays int

	VerifyBackup bool
}

// NewBackupScheduler creates a scheduler. A nil config gets daily full
// backups retained for 30 days.
func NewBackupScheduler(backupService *BackupService, config *BackupScheduleConfig) *BackupScheduler {
	if config == nil {
		config = &BackupScheduleConfig{
			FullBackupEnabled:              true,
			FullBackupSchedule:             "0 0 * * *",
			FullBackupRetentionDays:        30,
			IncrementalBackupEnabled:       false,
			IncrementalBackupInterval:      time.Hour,
			IncrementalBackupRetentionDays: 7,
			VerifyBackup:                   true,
		}
	}

	return &BackupScheduler{
		backupService: backupService,
		config:        config,
		stopChan:      make(chan struct{}),
	}
}

// Start launches the scheduled backup loops.
func (s *BackupScheduler) Start(ctx context.Context) error {
	if s.config.FullBackupEnabled {
		go s.scheduleFullBackup(ctx)
	}

	if s.config.IncrementalBackupEnabled {
		go s.scheduleIncrementalBackup(ctx)
	}

	go s.scheduleBackupCleanup(ctx)

	return nil
}

// Stop ends the scheduled loops.
func (s *BackupScheduler) Stop() {
	close(s.stopChan)
}

// Config returns the active schedule configuration.
func (s *BackupScheduler) Config() *BackupScheduleConfig {
	return s.config
}

func (s *BackupScheduler) scheduleFullBackup(ctx context.Context) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	s.performFullBackup(ctx)

	for {
		select {
		case <-ticker.C:
			s.performFullBackup(ctx)
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *BackupScheduler) scheduleIncrementalBackup(ctx context.Context) {
	ticker := time.NewTicker(s.config.IncrementalBackupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.performIncrementalBackup(ctx)
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *BackupScheduler) scheduleBackupCleanup(ctx context.Context) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.CleanupOldBackups(ctx)
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *BackupScheduler) performFullBackup(ctx context.Context) {
	backupPath, err := s.backupService.CreateBackup(ctx)
	if err != nil {
		fmt.Printf("Failed to create full backup: %v\n", err)
		return
	}

	fmt.Printf("Full backup created: %s\n", backupPath)
}

func (s *BackupScheduler) performIncrementalBackup(ctx context.Context) {
	backupPath, err := s.backupService.CreateBackup(ctx)
	if err != nil {
		fmt.Printf("Failed to create incremental backup: %v\n", err)
		return
	}

	fmt.Printf("Incremental backup created: %s\n", backupPath)
}

// CleanupOldBackups deletes archives past their retention window.
func (s *BackupScheduler) CleanupOldBackups(ctx context.Context) {
	backups, err := s.backupService.ListBackups(ctx)
	if err != nil {
		fmt.Printf("Failed to list backups: %v\n", err)
		return
	}

	now := time.Now()
	fullRetention := time.Duration(s.config.FullBackupRetentionDays) * 24 * time.Hour
	incrementalRetention := time.Duration(s.config.IncrementalBackupRetentionDays) * 24 * time.Hour

	for _, backup := range backups {
		age := now.Sub(backup.CreatedAt)

		var retention time.Duration
		if !s.config.IncrementalBackupEnabled {
			retention = fullRetention
		} else if strings.Contains(backup.Filename, "incremental") {
			retention = incrementalRetention
		} else {
			retention = fullRetention
		}

		if age > retention {
			if err := s.backupService.DeleteBackup(ctx, backup.Filename); err != nil {
				fmt.Printf("Failed to delete old backup %s: %v\n", backup.Filename, err)
			} else {
				fmt.Printf("Deleted old backup: %s\n", backup.Filename)
			}
		}
	}
}
