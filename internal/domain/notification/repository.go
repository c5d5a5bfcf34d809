package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type notificationModel struct {
	ID         int64      `gorm:"column:id;primaryKey"`
	UserID     int64      `gorm:"column:user_id;not null;index:idx_notifications_user_created,priority:1"`
	Kind       string     `gorm:"column:kind;size:64;not null"`
	TargetType string     `gorm:"column:target_type;size:32;not null"`
	TargetID   *int64     `gorm:"column:target_id"`
	Title      string     `gorm:"column:title;size:255;not null"`
	Body       string     `gorm:"column:body;type:text"`
	IsRead     bool       `gorm:"column:is_read;not null;index"`
	ReadAt     *time.Time `gorm:"column:read_at"`
	DedupKey   *string    `gorm:"column:dedup_key;size:191;uniqueIndex"`
	CreatedAt  time.Time  `gorm:"column:created_at;index:idx_notifications_user_created,priority:2"`
}

func (notificationModel) TableName() string { return "notifications" }

// AutoMigrate creates or updates the notifications table.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&notificationModel{})
}

func toModel(n *Notification) notificationModel {
	m := notificationModel{
		ID:         n.ID,
		UserID:     n.RecipientID,
		Kind:       string(n.Kind),
		TargetType: string(n.Target.Type()),
		Title:      n.Title,
		Body:       n.Body,
		IsRead:     n.Read,
		ReadAt:     n.ReadAt,
		CreatedAt:  n.CreatedAt,
	}
	if n.Target.Type() != TargetNone {
		id := n.Target.ID()
		m.TargetID = &id
	}
	if n.DedupKey != "" {
		key := n.DedupKey
		m.DedupKey = &key
	}
	return m
}

func toEntity(m notificationModel) (*Notification, error) {
	kind, err := ParseKind(m.Kind)
	if err != nil {
		return nil, fmt.Errorf("notification %d: %w", m.ID, err)
	}

	var target Target
	switch TargetType(m.TargetType) {
	case TargetListing:
		target = ListingTarget(derefID(m.TargetID))
	case TargetSavedSearch:
		target = SavedSearchTarget(derefID(m.TargetID))
	case TargetAppointment:
		target = AppointmentTarget(derefID(m.TargetID))
	case TargetNone, "":
		target = NoTarget()
	default:
		return nil, fmt.Errorf("notification %d: unknown target type %q", m.ID, m.TargetType)
	}

	n := &Notification{
		ID:          m.ID,
		RecipientID: m.UserID,
		Kind:        kind,
		Target:      target,
		Title:       m.Title,
		Body:        m.Body,
		Read:        m.IsRead,
		ReadAt:      m.ReadAt,
		CreatedAt:   m.CreatedAt,
	}
	if m.DedupKey != nil {
		n.DedupKey = *m.DedupKey
	}
	return n, nil
}

func derefID(id *int64) int64 {
	if id == nil {
		return 0
	}
	return *id
}

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *Notification) error {
	m := toModel(n)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	n.ID = m.ID
	n.CreatedAt = m.CreatedAt
	return nil
}

func (r *NotificationRepository) ExistsByDedupKey(ctx context.Context, key string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&notificationModel{}).
		Where("dedup_key = ?", key).
		Count(&count).Error
	return count > 0, err
}

func (r *NotificationRepository) GetByID(ctx context.Context, id, userID int64) (*Notification, error) {
	var m notificationModel
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Take(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}
	return toEntity(m)
}

func (r *NotificationRepository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*Notification, error) {
	q := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC")

	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}

	var rows []notificationModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]*Notification, 0, len(rows))
	for _, row := range rows {
		n, err := toEntity(row)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func (r *NotificationRepository) CountByUser(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&notificationModel{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&notificationModel{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

func (r *NotificationRepository) MarkAsRead(ctx context.Context, id, userID int64, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&notificationModel{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]any{"is_read": true, "read_at": at})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *NotificationRepository) MarkAllAsRead(ctx context.Context, userID int64, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&notificationModel{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]any{"is_read": true, "read_at": at})
	return res.RowsAffected, res.Error
}
