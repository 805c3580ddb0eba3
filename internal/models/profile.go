package models

import (
	"strings"
	"time"
)

// FieldError describes one invalid form field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is returned by Section.Validate when required fields are missing
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, fe := range v {
		msgs = append(msgs, fe.Message)
	}
	return strings.Join(msgs, "; ")
}

func (v ValidationErrors) orNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

func (v *ValidationErrors) requireText(field, value, msg string) {
	if strings.TrimSpace(value) == "" {
		*v = append(*v, FieldError{Field: field, Message: msg})
	}
}

func (v *ValidationErrors) requireDate(field string, value time.Time, msg string) {
	if value.IsZero() {
		*v = append(*v, FieldError{Field: field, Message: msg})
	}
}

// Section is implemented by every profile section row
type Section interface {
	Validate() error
	Owner() string
	SetOwner(ownerID string)
	PrimaryKey() uint
}

// SectionBase holds the columns shared by all profile sections
type SectionBase struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	OwnerID   string    `gorm:"type:varchar(128);index;not null" json:"ownerId"`
	ResumeID  *uint     `gorm:"index" json:"resumeId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (b *SectionBase) Owner() string           { return b.OwnerID }
func (b *SectionBase) SetOwner(ownerID string) { b.OwnerID = ownerID }
func (b *SectionBase) PrimaryKey() uint        { return b.ID }

type Education struct {
	SectionBase
	SchoolName string    `gorm:"type:varchar(255)" json:"school_name"`
	Degree     string    `gorm:"type:varchar(255)" json:"degree"`
	Place      string    `gorm:"type:varchar(255)" json:"place"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	Marks      *float64  `json:"marks,omitempty"`
	MarksOutOf *float64  `json:"marksOutof,omitempty"`
}

func (e *Education) Validate() error {
	var errs ValidationErrors
	errs.requireText("school_name", e.SchoolName, "School name is required")
	errs.requireText("degree", e.Degree, "Degree is required")
	errs.requireText("place", e.Place, "Place is required")
	errs.requireDate("start_date", e.StartDate, "Start date is required")
	errs.requireDate("end_date", e.EndDate, "End date is required")
	if e.Marks != nil && e.MarksOutOf != nil && *e.Marks > *e.MarksOutOf {
		errs = append(errs, FieldError{Field: "marks", Message: "Marks cannot exceed the maximum"})
	}
	return errs.orNil()
}

type Experience struct {
	SectionBase
	CompanyName string    `gorm:"type:varchar(255)" json:"company_name"`
	Position    string    `gorm:"type:varchar(255)" json:"position"`
	Place       string    `gorm:"type:varchar(255)" json:"place"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
}

func (e *Experience) Validate() error {
	var errs ValidationErrors
	errs.requireText("company_name", e.CompanyName, "Company name is required")
	errs.requireText("position", e.Position, "Position is required")
	errs.requireText("place", e.Place, "Place is required")
	errs.requireDate("start_date", e.StartDate, "Start date is required")
	errs.requireDate("end_date", e.EndDate, "End date is required")
	return errs.orNil()
}

type Project struct {
	SectionBase
	Name        string    `gorm:"type:varchar(255)" json:"name"`
	BuiltFor    string    `gorm:"type:varchar(255)" json:"built_for"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
}

func (p *Project) Validate() error {
	var errs ValidationErrors
	errs.requireText("name", p.Name, "Project name is required")
	errs.requireText("built_for", p.BuiltFor, "Built for is required")
	errs.requireDate("start_date", p.StartDate, "Start date is required")
	errs.requireDate("end_date", p.EndDate, "End date is required")
	return errs.orNil()
}

type Certification struct {
	SectionBase
	Name      string    `gorm:"type:varchar(255)" json:"name"`
	Issuer    string    `gorm:"type:varchar(255)" json:"issuer"`
	IssueDate time.Time `json:"issue_date"`
}

func (c *Certification) Validate() error {
	var errs ValidationErrors
	errs.requireText("name", c.Name, "Certification name is required")
	errs.requireText("issuer", c.Issuer, "Issuer is required")
	errs.requireDate("issue_date", c.IssueDate, "Issue date is required")
	return errs.orNil()
}

type Publication struct {
	SectionBase
	Title       string `gorm:"type:varchar(255)" json:"title"`
	Author      string `gorm:"type:varchar(255)" json:"author"`
	Publisher   string `gorm:"type:varchar(255)" json:"publisher"`
	Year        int    `json:"year"`
	Description string `gorm:"type:text" json:"description,omitempty"`
}

func (p *Publication) Validate() error {
	var errs ValidationErrors
	errs.requireText("title", p.Title, "Title is required")
	errs.requireText("author", p.Author, "Author is required")
	errs.requireText("publisher", p.Publisher, "Publisher is required")
	if p.Year < 1900 || p.Year > time.Now().Year()+1 {
		errs = append(errs, FieldError{Field: "year", Message: "Year is invalid"})
	}
	return errs.orNil()
}

type Achievement struct {
	SectionBase
	Name     string    `gorm:"type:varchar(255)" json:"name"`
	Position string    `gorm:"type:varchar(255)" json:"position"`
	Place    string    `gorm:"type:varchar(255)" json:"place"`
	Issuer   string    `gorm:"type:varchar(255)" json:"issuer"`
	Date     time.Time `json:"date"`
}

func (a *Achievement) Validate() error {
	var errs ValidationErrors
	errs.requireText("name", a.Name, "Achievement name is required")
	errs.requireText("position", a.Position, "Position is required")
	errs.requireText("place", a.Place, "Place is required")
	errs.requireText("issuer", a.Issuer, "Issuer is required")
	errs.requireDate("date", a.Date, "Date is required")
	return errs.orNil()
}

type Responsibility struct {
	SectionBase
	Name     string    `gorm:"type:varchar(255)" json:"name"`
	Position string    `gorm:"type:varchar(255)" json:"position"`
	Type     string    `gorm:"type:varchar(100)" json:"type"`
	Date     time.Time `json:"date"`
}

func (r *Responsibility) Validate() error {
	var errs ValidationErrors
	errs.requireText("name", r.Name, "Responsibility name is required")
	errs.requireText("position", r.Position, "Position is required")
	errs.requireText("type", r.Type, "Type is required")
	errs.requireDate("date", r.Date, "Date is required")
	return errs.orNil()
}

type Interest struct {
	SectionBase
	Name string `gorm:"type:varchar(255)" json:"name"`
}

func (i *Interest) Validate() error {
	var errs ValidationErrors
	errs.requireText("name", i.Name, "Interest name is required")
	return errs.orNil()
}

type Language struct {
	SectionBase
	Name        string `gorm:"type:varchar(100)" json:"name"`
	Proficiency string `gorm:"type:varchar(100)" json:"proficiency"`
}

func (l *Language) Validate() error {
	var errs ValidationErrors
	errs.requireText("name", l.Name, "Language name is required")
	errs.requireText("proficiency", l.Proficiency, "Proficiency level is required")
	return errs.orNil()
}

// SkillSet groups skills under one category, e.g. "Languages: Go, SQL"
type SkillSet struct {
	SectionBase
	Category string   `gorm:"type:varchar(255)" json:"category"`
	Skills   []string `gorm:"serializer:json" json:"skills"`
}

func (SkillSet) TableName() string { return "skills" }

func (s *SkillSet) Validate() error {
	var errs ValidationErrors
	errs.requireText("category", s.Category, "Category is required")
	nonEmpty := 0
	for _, skill := range s.Skills {
		if strings.TrimSpace(skill) != "" {
			nonEmpty++
		}
	}
	if nonEmpty == 0 {
		errs = append(errs, FieldError{Field: "skills", Message: "At least one skill is required"})
	}
	return errs.orNil()
}
