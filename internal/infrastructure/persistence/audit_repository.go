package persistence

import (
	"context"

	"github.com/fieldservice/backend/internal/domain/audit"
	"github.com/fieldservice/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// notificationBatchSize bounds a single multi-row insert
const notificationBatchSize = 100

// GormActivityRecorder implements audit.ActivityRecorder using GORM
type GormActivityRecorder struct {
	db *gorm.DB
}

// NewGormActivityRecorder creates a new GormActivityRecorder
func NewGormActivityRecorder(db *gorm.DB) *GormActivityRecorder {
	return &GormActivityRecorder{db: db}
}

// RecordActivity inserts an activity
func (r *GormActivityRecorder) RecordActivity(ctx context.Context, a *audit.Activity) error {
	return r.db.WithContext(ctx).Create(models.ActivityModelFromDomain(a)).Error
}

// FindByEstimate lists the activities linked to an estimate, oldest first
func (r *GormActivityRecorder) FindByEstimate(ctx context.Context, tenantID, estimateID uuid.UUID) ([]audit.Activity, error) {
	var rows []models.ActivityModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND estimate_id = ?", tenantID, estimateID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]audit.Activity, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToDomain())
	}
	return out, nil
}

// GormNotifier implements audit.Notifier by storing one notification row per
// recipient
type GormNotifier struct {
	db *gorm.DB
}

// NewGormNotifier creates a new GormNotifier
func NewGormNotifier(db *gorm.DB) *GormNotifier {
	return &GormNotifier{db: db}
}

// Notify persists the message for every recipient
func (n *GormNotifier) Notify(ctx context.Context, tenantID uuid.UUID, userIDs []uuid.UUID, msg audit.Message) error {
	notifications := audit.FanOut(tenantID, userIDs, msg)
	if len(notifications) == 0 {
		return nil
	}
	rows := make([]*models.NotificationModel, 0, len(notifications))
	for i := range notifications {
		rows = append(rows, models.NotificationModelFromDomain(&notifications[i]))
	}
	return n.db.WithContext(ctx).CreateInBatches(rows, notificationBatchSize).Error
}

// FindUnread lists a user's unread notifications, newest first
func (n *GormNotifier) FindUnread(ctx context.Context, tenantID, userID uuid.UUID) ([]audit.Notification, error) {
	var rows []models.NotificationModel
	if err := n.db.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ? AND is_read = ?", tenantID, userID, false).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]audit.Notification, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToDomain())
	}
	return out, nil
}

var (
	_ audit.ActivityRecorder = (*GormActivityRecorder)(nil)
	_ audit.Notifier         = (*GormNotifier)(nil)
)
