package service

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/gorm"
)

// BackupService exports and restores quality record data. Regulated
// sites keep point-in-time copies of the QMS database for retention
// audits.
type BackupService struct {
	db          *gorm.DB
	backupDir   string
	compression bool
}

// BackupInfo describes one backup archive on disk.
type BackupInfo struct {
	Filename     string    `json:"filename"`
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	CreatedAt    time.Time `json:"created_at"`
	DatabaseType string    `json:"database_type"`
}

// NewBackupService creates a backup service writing into backupDir.
func NewBackupService(db *gorm.DB, backupDir string) *BackupService {
	if err := os.MkdirAll(backupDir, 0755); err != nil {
		backupDir = os.TempDir()
	}

	return &BackupService{
		db:          db,
		backupDir:   backupDir,
		compression: true,
	}
}

// CreateBackup exports the database into a timestamped archive and
// returns its path.
func (s *BackupService) CreateBackup(ctx context.Context) (string, error) {
	dialector := s.db.Dialector.Name()

	timestamp := time.Now().Format("20060102_150405")
	var ext string
	if s.compression {
		ext = ".tar.gz"
	} else {
		ext = ".sql"
	}
	filename := fmt.Sprintf("backup_%s_%s%s", dialector, timestamp, ext)
	backupPath := filepath.Join(s.backupDir, filename)

	switch dialector {
	case "postgres", "sqlite", "sqlite3":
		return s.exportSQLBackup(ctx, backupPath)
	default:
		return "", fmt.Errorf("unsupported database type: %s", dialector)
	}
}

func (s *BackupService) exportSQLBackup(ctx context.Context, backupPath string) (string, error) {
	var writer io.Writer
	var file *os.File
	var err error

	if s.compression {
		file, err = os.Create(backupPath)
		if err != nil {
			return "", fmt.Errorf("failed to create backup file: %w", err)
		}
		defer file.Close()

		gzWriter := gzip.NewWriter(file)
		defer gzWriter.Close()

		tarWriter := tar.NewWriter(gzWriter)
		defer tarWriter.Close()

		sqlFilename := filepath.Base(backupPath[:len(backupPath)-len(filepath.Ext(backupPath))]) + ".sql"
		header := &tar.Header{
			Name: sqlFilename,
			Mode: 0644,
			Size: 0,
		}
		if err := tarWriter.WriteHeader(header); err != nil {
			return "", fmt.Errorf("failed to write tar header: %w", err)
		}

		writer = tarWriter
	} else {
		file, err = os.Create(backupPath)
		if err != nil {
			return "", fmt.Errorf("failed to create backup file: %w", err)
		}
		defer file.Close()
		writer = file
	}

	if err := s.exportTables(ctx, writer); err != nil {
		return "", fmt.Errorf("failed to export tables: %w", err)
	}

	return backupPath, nil
}

func (s *BackupService) exportTables(ctx context.Context, writer io.Writer) error {
	var tables []string
	dialector := s.db.Dialector.Name()

	if dialector == "sqlite" || dialector == "sqlite3" {
		if err := s.db.Raw("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'").Scan(&tables).Error; err != nil {
			return fmt.Errorf("failed to get table names: %w", err)
		}
	} else if dialector == "postgres" {
		if err := s.db.Raw("SELECT tablename FROM pg_tables WHERE schemaname='public'").Scan(&tables).Error; err != nil {
			return fmt.Errorf("failed to get table names: %w", err)
		}
	} else {
		return fmt.Errorf("unsupported database type: %s", dialector)
	}

	for _, table := range tables {
		if err := s.exportTable(ctx, writer, table); err != nil {
			return fmt.Errorf("failed to export table %s: %w", table, err)
		}
	}

	return nil
}

// exportTable writes the schema for one table. Production deployments
// should prefer pg_dump or sqlite3 .dump for full fidelity.
func (s *BackupService) exportTable(ctx context.Context, writer io.Writer, tableName string) error {
	_, err := fmt.Fprintf(writer, "-- Table: %s\n", tableName)
	if err != nil {
		return err
	}

	dialector := s.db.Dialector.Name()
	var createTableSQL string

	if dialector == "sqlite" || dialector == "sqlite3" {
		if err := s.db.Raw("SELECT sql FROM sqlite_master WHERE type='table' AND name=?", tableName).Scan(&createTableSQL).Error; err != nil {
			return fmt.Errorf("failed to get table schema: %w", err)
		}
	} else {
		createTableSQL = fmt.Sprintf("-- CREATE TABLE %s (...);", tableName)
	}

	_, err = fmt.Fprintf(writer, "%s\n\n", createTableSQL)
	return err
}

// RestoreBackup replays a backup archive into the database.
func (s *BackupService) RestoreBackup(ctx context.Context, backupPath string) error {
	if _, err := os.Stat(backupPath); os.IsNotExist(err) {
		return fmt.Errorf("backup file not found: %s", backupPath)
	}

	file, err := os.Open(backupPath)
	if err != nil {
		return fmt.Errorf("failed to open backup file: %w", err)
	}
	defer file.Close()

	var reader io.Reader = file

	if filepath.Ext(backupPath) == ".gz" {
		gzReader, err := gzip.NewReader(file)
		if err != nil {
			return fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gzReader.Close()

		tarReader := tar.NewReader(gzReader)

		for {
			header, err := tarReader.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				return fmt.Errorf("failed to read tar: %w", err)
			}

			if filepath.Ext(header.Name) == ".sql" {
				reader = tarReader
				break
			}
		}
	}

	sqlBytes, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("failed to read SQL: %w", err)
	}

	if err := s.db.Exec(string(sqlBytes)).Error; err != nil {
		return fmt.Errorf("failed to restore database: %w", err)
	}

	return nil
}

// ListBackups returns the backup archives in the backup directory.
func (s *BackupService) ListBackups(ctx context.Context) ([]BackupInfo, error) {
	var backups []BackupInfo

	entries, err := os.ReadDir(s.backupDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		if !isBackupFile(entry.Name()) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		backups = append(backups, BackupInfo{
			Filename:     entry.Name(),
			Path:         filepath.Join(s.backupDir, entry.Name()),
			Size:         info.Size(),
			CreatedAt:    info.ModTime(),
			DatabaseType: detectDatabaseType(entry.Name()),
		})
	}

	return backups, nil
}

// BackupDir returns the backup directory path.
func (s *BackupService) BackupDir() string {
	return s.backupDir
}

// DeleteBackup removes a backup archive. The filename must resolve
// inside the backup directory.
func (s *BackupService) DeleteBackup(ctx context.Context, filename string) error {
	backupPath := filepath.Join(s.backupDir, filename)

	absBackupDir, err := filepath.Abs(s.backupDir)
	if err != nil {
		return fmt.Errorf("failed to get absolute backup directory: %w", err)
	}

	absBackupPath, err := filepath.Abs(backupPath)
	if err != nil {
		return fmt.Errorf("failed to get absolute backup path: %w", err)
	}

	if !strings.HasPrefix(absBackupPath, absBackupDir) {
		return fmt.Errorf("invalid backup path: %s", filename)
	}

	if err := os.Remove(backupPath); err != nil {
		return fmt.Errorf("failed to delete backup: %w", err)
	}

	return nil
}

func isBackupFile(filename string) bool {
	if strings.HasSuffix(filename, ".tar.gz") {
		return true
	}
	ext := filepath.Ext(filename)
	return ext == ".sql" || ext == ".gz" || strings.HasPrefix(filename, "backup_")
}

func detectDatabaseType(filename string) string {
	if strings.Contains(filename, "postgres") {
		return "postgres"
	}
	if strings.Contains(filename, "sqlite") {
		return "sqlite"
	}
	return "unknown"
}
