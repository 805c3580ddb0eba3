package models

import "time"

// UserRole represents the role of an account
type UserRole string

const (
	UserRoleAdmin  UserRole = "Admin"
	UserRoleMember UserRole = "Member"
)

// EmailAddress is one address linked to an account at the identity provider
type EmailAddress struct {
	Email string `json:"email"`
	OAuth string `json:"oauth,omitempty"`
}

// User is a local account, keyed by the identity provider's account ID.
// Rows are hard-deleted so an account can be provisioned again later.
type User struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	AuthID   string         `gorm:"type:varchar(128);uniqueIndex;not null" json:"clerkId"`
	Emails   []EmailAddress `gorm:"serializer:json" json:"email"`
	FullName string         `gorm:"type:varchar(255)" json:"FullName"`
	Username string         `gorm:"type:varchar(255)" json:"username"`
	Avatar   string         `gorm:"type:text" json:"avatar"`
	Role     UserRole       `gorm:"type:varchar(20);default:'Member'" json:"role"`

	// Credits is only ever changed through services.Ledger
	Credits int64 `gorm:"not null;default:0" json:"credits"`

	// Profile sections
	Educations       []Education      `gorm:"foreignKey:OwnerID;references:AuthID" json:"educations"`
	Experiences      []Experience     `gorm:"foreignKey:OwnerID;references:AuthID" json:"experiences"`
	Projects         []Project        `gorm:"foreignKey:OwnerID;references:AuthID" json:"projects"`
	Certifications   []Certification  `gorm:"foreignKey:OwnerID;references:AuthID" json:"certifications"`
	Publications     []Publication    `gorm:"foreignKey:OwnerID;references:AuthID" json:"publications"`
	Achievements     []Achievement    `gorm:"foreignKey:OwnerID;references:AuthID" json:"achievements"`
	Responsibilities []Responsibility `gorm:"foreignKey:OwnerID;references:AuthID" json:"responsibilities"`
	Interests        []Interest       `gorm:"foreignKey:OwnerID;references:AuthID" json:"interests"`
	Languages        []Language       `gorm:"foreignKey:OwnerID;references:AuthID" json:"languages"`
	Skills           []SkillSet       `gorm:"foreignKey:OwnerID;references:AuthID" json:"skills"`
	Resumes          []Resume         `gorm:"foreignKey:OwnerID;references:AuthID" json:"resumes"`
}

// PrimaryEmail returns the first linked email address, if any
func (u User) PrimaryEmail() string {
	if len(u.Emails) == 0 {
		return ""
	}
	return u.Emails[0].Email
}

// IsAdmin reports whether the account has the admin role
func (u User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}
