package appointment

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type appointmentModel struct {
	ID                  int64     `gorm:"column:id;primaryKey"`
	RequesterID         int64     `gorm:"column:requester_id;not null;index"`
	ListingID           int64     `gorm:"column:listing_id;not null;index"`
	Title               string    `gorm:"column:title;size:255;not null"`
	Description         *string   `gorm:"column:description;type:text"`
	ScheduledAt         time.Time `gorm:"column:scheduled_at;not null;index:idx_appointments_reminder,priority:3"`
	ReminderLeadMinutes int       `gorm:"column:reminder_lead_minutes;not null"`
	Status              string    `gorm:"column:status;size:16;not null;index:idx_appointments_reminder,priority:1"`
	Notified            bool      `gorm:"column:notified;not null;index:idx_appointments_reminder,priority:2"`
	CreatedAt           time.Time `gorm:"column:created_at"`
	UpdatedAt           time.Time `gorm:"column:updated_at"`
}

func (appointmentModel) TableName() string { return "appointments" }

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&appointmentModel{})
}

func toModel(a *Appointment) appointmentModel {
	var desc *string
	if a.Description != "" {
		v := a.Description
		desc = &v
	}
	return appointmentModel{
		ID:                  a.ID,
		RequesterID:         a.RequesterID,
		ListingID:           a.ListingID,
		Title:               a.Title,
		Description:         desc,
		ScheduledAt:         a.ScheduledAt,
		ReminderLeadMinutes: a.ReminderLeadMinutes,
		Status:              string(a.Status),
		Notified:            a.Notified,
		CreatedAt:           a.CreatedAt,
		UpdatedAt:           a.UpdatedAt,
	}
}

func toEntity(m appointmentModel) *Appointment {
	var desc string
	if m.Description != nil {
		desc = *m.Description
	}
	return &Appointment{
		ID:                  m.ID,
		RequesterID:         m.RequesterID,
		ListingID:           m.ListingID,
		Title:               m.Title,
		Description:         desc,
		ScheduledAt:         m.ScheduledAt,
		ReminderLeadMinutes: m.ReminderLeadMinutes,
		Status:              Status(m.Status),
		Notified:            m.Notified,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}

func toEntities(rows []appointmentModel) []*Appointment {
	out := make([]*Appointment, 0, len(rows))
	for _, row := range rows {
		out = append(out, toEntity(row))
	}
	return out
}

type AppointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

func (r *AppointmentRepository) Create(ctx context.Context, a *Appointment) error {
	m := toModel(a)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	a.ID = m.ID
	a.CreatedAt = m.CreatedAt
	a.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *AppointmentRepository) GetByID(ctx context.Context, id int64) (*Appointment, error) {
	var m appointmentModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	return toEntity(m), nil
}

// Transition moves a pending appointment to status. A row that is no
// longer pending is left alone and ErrAppointmentNotFound is returned,
// so of two racing transitions only one wins.
func (r *AppointmentRepository) Transition(ctx context.Context, id int64, to Status, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&appointmentModel{}).
		Where("id = ? AND status = ?", id, string(StatusPending)).
		Updates(map[string]any{"status": string(to), "updated_at": at})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

// ListReminderCandidates returns accepted, unreminded appointments
// scheduled at or before horizon. The lead time differs per row, so the
// exact due check happens in Go.
func (r *AppointmentRepository) ListReminderCandidates(ctx context.Context, horizon time.Time) ([]*Appointment, error) {
	var rows []appointmentModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND notified = ? AND scheduled_at <= ?", string(StatusAccepted), false, horizon).
		Order("scheduled_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toEntities(rows), nil
}

func (r *AppointmentRepository) MarkNotified(ctx context.Context, id int64, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&appointmentModel{}).
		Where("id = ?", id).
		Updates(map[string]any{"notified": true, "updated_at": at})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *AppointmentRepository) ListByRequester(ctx context.Context, requesterID int64) ([]*Appointment, error) {
	var rows []appointmentModel
	err := r.db.WithContext(ctx).
		Where("requester_id = ?", requesterID).
		Order("scheduled_at DESC").
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toEntities(rows), nil
}

// ListByListingOwner returns appointments on listings owned by ownerID,
// optionally narrowed to one status.
func (r *AppointmentRepository) ListByListingOwner(ctx context.Context, ownerID int64, status *Status) ([]*Appointment, error) {
	q := r.db.WithContext(ctx).
		Where("listing_id IN (?)", r.db.Table("listings").Select("id").Where("owner_id = ?", ownerID))
	if status != nil {
		q = q.Where("status = ?", string(*status))
	}

	var rows []appointmentModel
	if err := q.Order("scheduled_at ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toEntities(rows), nil
}
