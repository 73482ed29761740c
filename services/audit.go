package services

import (
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"annlin/logger"
	"annlin/models"
)

// Actor identifies who triggered a mutation.
type Actor struct {
	UserID   string
	Username string
	IP       string
}

// Auditor writes change records for every mutation.
type Auditor struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAuditor(db *gorm.DB, log *logger.Logger) *Auditor {
	return &Auditor{db: db, log: log}
}

func newEntry(actor Actor, action models.AuditAction, entityType, entityID string, changes interface{}) (*models.AuditLog, error) {
	entry := &models.AuditLog{
		UserID:     actor.UserID,
		Username:   actor.Username,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		IPAddress:  actor.IP,
	}
	if changes != nil {
		raw, err := json.Marshal(changes)
		if err != nil {
			return nil, err
		}
		entry.Changes = datatypes.JSON(raw)
	}
	return entry, nil
}

// Record writes an entry through tx so it commits or rolls back together with
// the change it describes.
func (a *Auditor) Record(tx *gorm.DB, actor Actor, action models.AuditAction, entityType, entityID string, changes interface{}) error {
	entry, err := newEntry(actor, action, entityType, entityID, changes)
	if err != nil {
		return err
	}
	return tx.Create(entry).Error
}

// Log writes an entry in the background. Failures are logged and dropped.
func (a *Auditor) Log(actor Actor, action models.AuditAction, entityType, entityID string, changes interface{}) {
	entry, err := newEntry(actor, action, entityType, entityID, changes)
	if err != nil {
		a.log.Op("audit.log").WithError(err).Error("could not encode audit changes")
		return
	}

	go func() {
		if err := a.db.Create(entry).Error; err != nil {
			a.log.Op("audit.log").WithError(err).WithField("action", action).Error("could not write audit entry")
		}
	}()
}
