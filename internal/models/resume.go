package models

import "time"

// Template is a resume layout in the gallery
type Template struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	Name         string    `gorm:"type:varchar(255);not null" json:"name"`
	Description  string    `gorm:"type:text" json:"description"`
	Images       []string  `gorm:"serializer:json" json:"images"`
	DownloadLink string    `gorm:"type:text" json:"downloadLink"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Resume is an account's resume built from a template
type Resume struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	OwnerID    string    `gorm:"type:varchar(128);index;not null" json:"ownerId"`
	TemplateID uint      `gorm:"index" json:"templateId"`
	Template   Template  `gorm:"foreignKey:TemplateID" json:"template"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// DefaultTemplates seeds the gallery
var DefaultTemplates = []Template{
	{
		ID:          7999,
		Name:        "Rez ATS Resume Template 1",
		Description: "This is a template for an ATS resume.",
		Images: []string{
			"/images/templates/rez-template-1/page-1.jpg",
			"/images/templates/rez-template-1/page-2.jpg",
		},
		DownloadLink: "/images/templates/rez-template-1/pdf-out.pdf",
	},
}
