package models

import (
	"time"
)

const DefaultCategoryColor = "#3b82f6"

type Category struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Name        string    `gorm:"uniqueIndex;not null" json:"name"`
	Color       string    `gorm:"size:7;not null;default:#3b82f6" json:"color"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type CategoryInput struct {
	Name        string `json:"name" validate:"omitempty,max=100"`
	Color       string `json:"color" validate:"omitempty,hexcolor6"`
	Description string `json:"description" validate:"max=500"`
}
