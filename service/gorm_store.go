package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/fleetdesk/contracts/config"
	"github.com/fleetdesk/contracts/model"
)

// GormStore is a ContractRepository backed by a SQL database through gorm
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// OpenDatabase connects to the database named by the store config
func OpenDatabase(cfg *config.StoreConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("driver %q is not a SQL driver", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	slog.Info("database connected", "driver", cfg.Driver)
	return db, nil
}

// Migrate creates or updates the contract tables
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&model.Contract{}, &model.StatusChange{})
}

func (s *GormStore) Create(ctx context.Context, contract *model.Contract, entry *model.StatusChange) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&model.Contract{}).
			Where("tenant_id = ? AND contract_number = ?", contract.TenantID, contract.ContractNumber).
			Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return ErrDuplicateNumber
		}

		contract.Revision = 1
		if err := tx.Create(contract).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateNumber
			}
			return err
		}
		return appendEntry(tx, contract, entry)
	})
}

func (s *GormStore) Get(ctx context.Context, tenantID, id string) (*model.Contract, error) {
	var c model.Contract
	err := s.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *GormStore) Update(ctx context.Context, contract *model.Contract, expectedRevision int64, entry *model.StatusChange) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := contract.Clone()
		row.Revision = expectedRevision + 1
		row.UpdatedAt = time.Now()

		res := tx.Model(&model.Contract{}).
			Where("id = ? AND tenant_id = ? AND revision = ?", contract.ID, contract.TenantID, expectedRevision).
			Select("*").
			Omit("id", "tenant_id", "contract_number", "created_at", "created_by").
			Updates(row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var exists int64
			if err := tx.Model(&model.Contract{}).
				Where("id = ? AND tenant_id = ?", contract.ID, contract.TenantID).
				Count(&exists).Error; err != nil {
				return err
			}
			if exists == 0 {
				return ErrNotFound
			}
			return ErrRevisionConflict
		}

		contract.Revision = row.Revision
		contract.UpdatedAt = row.UpdatedAt
		return appendEntry(tx, contract, entry)
	})
}

func (s *GormStore) List(ctx context.Context, tenantID string, filter model.ContractFilter) ([]*model.Contract, error) {
	q := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if filter.OrganisationID != "" {
		q = q.Where("organisation_id = ?", filter.OrganisationID)
	}
	if filter.DealID != "" {
		q = q.Where("deal_id = ?", filter.DealID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.EndDateFrom != nil {
		q = q.Where("end_date >= ?", *filter.EndDateFrom)
	}
	if filter.EndDateTo != nil {
		q = q.Where("end_date <= ?", *filter.EndDateTo)
	}

	var contracts []*model.Contract
	if err := q.Order("created_at, id").Find(&contracts).Error; err != nil {
		return nil, err
	}
	if contracts == nil {
		contracts = make([]*model.Contract, 0)
	}
	return contracts, nil
}

func (s *GormStore) History(ctx context.Context, tenantID, contractID string) ([]*model.StatusChange, error) {
	if _, err := s.Get(ctx, tenantID, contractID); err != nil {
		return nil, err
	}
	var entries []*model.StatusChange
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND contract_id = ?", tenantID, contractID).
		Order("id").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func appendEntry(tx *gorm.DB, contract *model.Contract, entry *model.StatusChange) error {
	if entry == nil {
		return nil
	}
	entry.TenantID = contract.TenantID
	entry.ContractID = contract.ID
	return tx.Create(entry).Error
}
