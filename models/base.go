package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// newID assigns a uuid to an empty primary key before insert.
func newID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	newID(&u.ID)
	return nil
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	newID(&c.ID)
	return nil
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	newID(&e.ID)
	return nil
}
