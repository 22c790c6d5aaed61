package repository

import (
	"time"

	"github.com/juridiskporten/portal/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// paymentEventRepository implements the PaymentEventRepository interface
type paymentEventRepository struct {
	db *gorm.DB
}

// NewPaymentEventRepository creates a new payment event repository instance
func NewPaymentEventRepository(db *gorm.DB) PaymentEventRepository {
	return &paymentEventRepository{db: db}
}

// CreateIfNotExists inserts the event unless the (provider, event id) pair
// was already recorded. The bool reports whether this call created the row.
func (r *paymentEventRepository) CreateIfNotExists(event *models.PaymentEvent) (bool, *models.PaymentEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.PaymentEvent
	if err := r.db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

// MarkProcessed marks an event as processed and stores an optional error.
func (r *paymentEventRepository) MarkProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.PaymentEvent{}).Where("id = ?", id).Updates(updates).Error
}
