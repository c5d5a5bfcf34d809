package savedsearch

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"homefinder/internal/domain"
)

type savedSearchModel struct {
	ID                   int64     `gorm:"column:id;primaryKey"`
	OwnerID              int64     `gorm:"column:owner_id;not null;index"`
	Name                 string    `gorm:"column:name;size:120"`
	CenterLat            float64   `gorm:"column:center_lat;not null"`
	CenterLon            float64   `gorm:"column:center_lon;not null"`
	RadiusKm             float64   `gorm:"column:radius_km;not null"`
	TransactionType      string    `gorm:"column:transaction_type;size:16;not null;index:idx_saved_searches_notify,priority:2"`
	MinPrice             *int64    `gorm:"column:min_price"`
	MaxPrice             *int64    `gorm:"column:max_price"`
	NotificationsEnabled bool      `gorm:"column:notifications_enabled;not null"`
	Active               bool      `gorm:"column:active;not null;index:idx_saved_searches_notify,priority:1"`
	CreatedAt            time.Time `gorm:"column:created_at"`
}

func (savedSearchModel) TableName() string { return "saved_searches" }

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&savedSearchModel{})
}

func toModel(s *SavedSearch) savedSearchModel {
	return savedSearchModel{
		ID:                   s.ID,
		OwnerID:              s.OwnerID,
		Name:                 s.Name,
		CenterLat:            s.CenterLat,
		CenterLon:            s.CenterLon,
		RadiusKm:             s.RadiusKm,
		TransactionType:      string(s.TransactionType),
		MinPrice:             s.MinPrice,
		MaxPrice:             s.MaxPrice,
		NotificationsEnabled: s.NotificationsEnabled,
		Active:               s.Active,
		CreatedAt:            s.CreatedAt,
	}
}

func toEntity(m savedSearchModel) *SavedSearch {
	return &SavedSearch{
		ID:                   m.ID,
		OwnerID:              m.OwnerID,
		Name:                 m.Name,
		CenterLat:            m.CenterLat,
		CenterLon:            m.CenterLon,
		RadiusKm:             m.RadiusKm,
		TransactionType:      domain.TransactionType(m.TransactionType),
		MinPrice:             m.MinPrice,
		MaxPrice:             m.MaxPrice,
		NotificationsEnabled: m.NotificationsEnabled,
		Active:               m.Active,
		CreatedAt:            m.CreatedAt,
	}
}

func toEntities(rows []savedSearchModel) []*SavedSearch {
	out := make([]*SavedSearch, 0, len(rows))
	for _, row := range rows {
		out = append(out, toEntity(row))
	}
	return out
}

type SavedSearchRepository struct {
	db *gorm.DB
}

func NewSavedSearchRepository(db *gorm.DB) *SavedSearchRepository {
	return &SavedSearchRepository{db: db}
}

func (r *SavedSearchRepository) Create(ctx context.Context, s *SavedSearch) error {
	m := toModel(s)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	s.ID = m.ID
	s.CreatedAt = m.CreatedAt
	return nil
}

func (r *SavedSearchRepository) GetByID(ctx context.Context, id int64) (*SavedSearch, error) {
	var m savedSearchModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSavedSearchNotFound
		}
		return nil, err
	}
	return toEntity(m), nil
}

func (r *SavedSearchRepository) ListActiveByOwner(ctx context.Context, ownerID int64) ([]*SavedSearch, error) {
	var rows []savedSearchModel
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND active = ?", ownerID, true).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toEntities(rows), nil
}

// ListNotifiable returns active searches with notifications enabled for
// the transaction type.
func (r *SavedSearchRepository) ListNotifiable(ctx context.Context, txType domain.TransactionType) ([]*SavedSearch, error) {
	var rows []savedSearchModel
	err := r.db.WithContext(ctx).
		Where("active = ? AND notifications_enabled = ? AND transaction_type = ?", true, true, string(txType)).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toEntities(rows), nil
}

// Deactivate soft-deletes the search. It reports false when nothing
// active and owned by ownerID matched.
func (r *SavedSearchRepository) Deactivate(ctx context.Context, id, ownerID int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&savedSearchModel{}).
		Where("id = ? AND owner_id = ? AND active = ?", id, ownerID, true).
		Update("active", false)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
