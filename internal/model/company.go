package model

import "time"

// Company is a tenant. One company is bound to each session.
type Company struct {
	ID         string    `gorm:"primaryKey;size:64" json:"id"`
	Name       string    `gorm:"size:128;not null" json:"name"`
	Icon       string    `gorm:"size:64" json:"icon"`
	ThemeColor string    `gorm:"size:32" json:"theme_color"`
	CreatedAt  time.Time `json:"-"`
	UpdatedAt  time.Time `json:"-"`
}
