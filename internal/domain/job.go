package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// JobType is the canonical employment-type vocabulary exposed to consumers
// of ingested postings.
type JobType string

const (
	JobTypeFullTime   JobType = "full-time"
	JobTypePartTime   JobType = "part-time"
	JobTypeContract   JobType = "contract"
	JobTypeFreelance  JobType = "freelance"
	JobTypeInternship JobType = "internship"
	JobTypeRemote     JobType = "remote"
	JobTypeHybrid     JobType = "hybrid"
	JobTypeOther      JobType = "other"
)

// ExperienceLevel is the canonical seniority vocabulary.
type ExperienceLevel string

const (
	ExperienceIntern       ExperienceLevel = "intern"
	ExperienceFresher      ExperienceLevel = "fresher"
	ExperienceJunior       ExperienceLevel = "junior"
	ExperienceMiddle       ExperienceLevel = "middle"
	ExperienceSenior       ExperienceLevel = "senior"
	ExperienceLead         ExperienceLevel = "lead"
	ExperienceManager      ExperienceLevel = "manager"
	ExperienceDirector     ExperienceLevel = "director"
	ExperienceNotSpecified ExperienceLevel = "not-specified"
)

// SalaryRange is a parsed salary. Min and Max are zero when the raw text is
// absent or negotiable.
type SalaryRange struct {
	Min      int64  `json:"min"`
	Max      int64  `json:"max"`
	Currency string `json:"currency"`
}

// StringArray stores a string slice as JSON text in the database.
type StringArray []string

// Value implements driver.Valuer.
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = StringArray{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan StringArray")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, a)
}

// JobPosting is a canonical, normalized job listing record. It is created on
// the first successful normalization + dedup miss and updated in place on
// later encounters that match by external ID or content hash.
type JobPosting struct {
	ID             string          `gorm:"type:text;primaryKey" json:"id"`
	Source         string          `gorm:"type:text;not null;index:idx_jobs_source_external,unique" json:"source"`
	ExternalID     string          `gorm:"type:text;index:idx_jobs_source_external,unique,where:external_id <> ''" json:"external_id,omitempty"`
	Title          string          `gorm:"type:text;not null" json:"title"`
	Company        string          `gorm:"type:text;not null;index:idx_jobs_company" json:"company"`
	City           string          `gorm:"type:text;index:idx_jobs_city" json:"city"`
	SalaryMin      int64           `json:"salary_min"`
	SalaryMax      int64           `json:"salary_max"`
	SalaryCurrency string          `gorm:"type:text" json:"salary_currency"`
	Description    string          `gorm:"type:text" json:"description"`
	Requirements   string          `gorm:"type:text" json:"requirements"`
	Benefits       string          `gorm:"type:text" json:"benefits"`
	JobType        JobType         `gorm:"type:text;index:idx_jobs_type" json:"job_type"`
	Experience     ExperienceLevel `gorm:"type:text" json:"experience_level"`
	Skills         StringArray     `gorm:"type:text" json:"skills"`
	PostedAt       *time.Time      `json:"posted_at,omitempty"`
	Deadline       *time.Time      `json:"deadline,omitempty"`
	ContentHash    string          `gorm:"type:text;index:idx_jobs_content_hash" json:"content_hash"`
	URL            string          `gorm:"type:text" json:"url"`
	LogoURL        string          `gorm:"type:text" json:"logo_url,omitempty"`
	Tags           StringArray     `gorm:"type:text" json:"tags"`
	Categories     StringArray     `gorm:"type:text" json:"categories"`
	IsVerified     bool            `json:"is_verified"`
	IsBranded      bool            `json:"is_branded"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// TableName returns the database table name for JobPosting.
func (JobPosting) TableName() string {
	return "job_postings"
}

// Salary returns the posting's salary as a SalaryRange.
func (j *JobPosting) Salary() SalaryRange {
	return SalaryRange{Min: j.SalaryMin, Max: j.SalaryMax, Currency: j.SalaryCurrency}
}
