package gormstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ica/internal/portfolio"
	"ica/internal/store"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// Store persists per-agent portfolio documents using Gorm + SQLite.
type Store struct {
	db *gorm.DB
}

var _ store.PortfolioStore = (*Store)(nil)

type portfolioModel struct {
	ID            int64          `gorm:"column:id;primaryKey"`
	AgentID       string         `gorm:"column:agent_id;uniqueIndex"`
	Details       datatypes.JSON `gorm:"column:portfolio_details"`
	Metrics       datatypes.JSON `gorm:"column:portfolio_metrics"`
	CreatedAtUnix int64          `gorm:"column:created_at"`
	UpdatedAtUnix int64          `gorm:"column:updated_at"`
}

func (portfolioModel) TableName() string { return "agent_portfolios" }

// New opens (or creates) the SQLite database at path and migrates the schema.
func New(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("gorm store: database path is required")
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&portfolioModel{}); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite + WAL: allow a small amount of parallelism for concurrent HTTP reads
	// while keeping lock contention low.
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) FindByAgent(ctx context.Context, agentID string) (store.PortfolioDocument, bool, error) {
	if s == nil || s.db == nil {
		return store.PortfolioDocument{}, false, fmt.Errorf("gorm store not initialized")
	}
	agentID = strings.TrimSpace(agentID)
	if agentID == "" {
		return store.PortfolioDocument{}, false, fmt.Errorf("agent_id is required")
	}
	var model portfolioModel
	if err := s.db.WithContext(ctx).Where("agent_id = ?", agentID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return store.PortfolioDocument{}, false, nil
		}
		return store.PortfolioDocument{}, false, err
	}
	doc, err := modelToDocument(model)
	if err != nil {
		return store.PortfolioDocument{}, false, err
	}
	return doc, true, nil
}

func (s *Store) Upsert(ctx context.Context, agentID string, details map[string]portfolio.Holding, metrics []portfolio.MetricsRow) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("gorm store not initialized")
	}
	agentID = strings.TrimSpace(agentID)
	if agentID == "" {
		return fmt.Errorf("agent_id is required")
	}
	if details == nil {
		details = map[string]portfolio.Holding{}
	}
	detailBytes, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("gorm store: encoding portfolio details failed: %w", err)
	}
	now := time.Now().UnixMilli()
	model := portfolioModel{
		AgentID:       agentID,
		Details:       datatypes.JSON(detailBytes),
		CreatedAtUnix: now,
		UpdatedAtUnix: now,
	}
	cols := []string{"portfolio_details", "updated_at"}
	if metrics != nil {
		metricBytes, err := json.Marshal(metrics)
		if err != nil {
			return fmt.Errorf("gorm store: encoding portfolio metrics failed: %w", err)
		}
		model.Metrics = datatypes.JSON(metricBytes)
		cols = append(cols, "portfolio_metrics")
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "agent_id"}},
			DoUpdates: clause.AssignmentColumns(cols),
		}).
		Create(&model).Error
}

func modelToDocument(m portfolioModel) (store.PortfolioDocument, error) {
	doc := store.PortfolioDocument{
		AgentID: m.AgentID,
		Details: map[string]portfolio.Holding{},
	}
	if len(m.Details) > 0 {
		if err := json.Unmarshal(m.Details, &doc.Details); err != nil {
			return store.PortfolioDocument{}, fmt.Errorf("gorm store: decoding portfolio details failed: %w", err)
		}
	}
	if len(m.Metrics) > 0 {
		if err := json.Unmarshal(m.Metrics, &doc.Metrics); err != nil {
			return store.PortfolioDocument{}, fmt.Errorf("gorm store: decoding portfolio metrics failed: %w", err)
		}
	}
	return doc, nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
