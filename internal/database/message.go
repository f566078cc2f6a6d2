package database

import (
	"github.com/acadmate/livechat/internal/models"
	"gorm.io/gorm"
)

// SaveMessage inserts one message inside a short-lived transaction. The
// transaction is released on every exit path; any failure comes back as a
// *PersistenceError and leaves zero rows behind.
func (d *Database) SaveMessage(message *models.Message) error {
	err := d.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(message).Error
	})
	if err != nil {
		return &PersistenceError{Err: err}
	}
	return nil
}
