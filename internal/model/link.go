package model

import "gorm.io/gorm"

type Link struct {
	gorm.Model
	Title        string `gorm:"size:255" json:"title"`
	ShortCode    string `gorm:"uniqueIndex;size:32;not null" json:"shortCode"`
	OriginalURL  string `gorm:"size:2048;not null" json:"originalUrl"`
	RedirectCode int    `gorm:"default:302" json:"redirectCode"`
}
