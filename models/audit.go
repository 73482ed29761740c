package models

import (
	"time"

	"gorm.io/datatypes"
)

type AuditAction string

const (
	AuditActionLogin          AuditAction = "login"
	AuditActionEventCreate    AuditAction = "event_create"
	AuditActionEventUpdate    AuditAction = "event_update"
	AuditActionEventDelete    AuditAction = "event_delete"
	AuditActionSeriesCreate   AuditAction = "series_create"
	AuditActionSeriesDelete   AuditAction = "series_delete"
	AuditActionCategoryCreate AuditAction = "category_create"
	AuditActionCategoryUpdate AuditAction = "category_update"
	AuditActionCategoryDelete AuditAction = "category_delete"
	AuditActionUserCreate     AuditAction = "user_create"
	AuditActionUserUpdate     AuditAction = "user_update"
	AuditActionUserDelete     AuditAction = "user_delete"
	AuditActionSettingsUpdate AuditAction = "settings_update"
)

// AuditActions lists every action in display order.
var AuditActions = []AuditAction{
	AuditActionLogin,
	AuditActionEventCreate,
	AuditActionEventUpdate,
	AuditActionEventDelete,
	AuditActionSeriesCreate,
	AuditActionSeriesDelete,
	AuditActionCategoryCreate,
	AuditActionCategoryUpdate,
	AuditActionCategoryDelete,
	AuditActionUserCreate,
	AuditActionUserUpdate,
	AuditActionUserDelete,
	AuditActionSettingsUpdate,
}

const (
	EntityEvent    = "Event"
	EntityCategory = "Category"
	EntityUser     = "User"
	EntitySettings = "Settings"
)

type AuditLog struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	UserID     string         `gorm:"size:36;index" json:"userId"`
	Username   string         `json:"username"`
	Action     AuditAction    `gorm:"index" json:"action"`
	EntityType string         `gorm:"index:idx_audit_entity" json:"entityType"`
	EntityID   string         `gorm:"size:36;index:idx_audit_entity" json:"entityId"`
	Changes    datatypes.JSON `json:"changes,omitempty"`
	IPAddress  string         `json:"ipAddress"`
	CreatedAt  time.Time      `gorm:"index" json:"createdAt"`
}
