// Package domain defines the persistence models for users, generated surveys
// and the token ledger, plus the value types exchanged with the AI provider,
// the survey platform and the payment processor. Models are mapped with GORM
// and shared by the repository and service layers.
package domain

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// User is an account holder with a token quota and optional Qualtrics
// credentials. TokenBalance is never negative; the check constraint backs up
// the conditional updates performed by the ledger.
//
// Fields:
//   - ID: numeric autoincrement primary key.
//   - Username: unique login name.
//   - PasswordHash: bcrypt hash; nil for accounts created through OAuth.
//   - GoogleID / Email: optional unique identifiers from an OAuth provider.
//   - Qualtrics*: platform credentials, all three required for generation.
//   - TokenBalance: remaining quota.
type User struct {
	ID                  uint      `json:"id"                  gorm:"primaryKey;autoIncrement"`
	Username            string    `json:"username"            gorm:"type:varchar(64);not null;uniqueIndex"`
	PasswordHash        *string   `json:"-"                   gorm:"type:varchar(255)"`
	GoogleID            *string   `json:"-"                   gorm:"type:varchar(255);uniqueIndex"`
	Email               *string   `json:"email,omitempty"     gorm:"type:varchar(255);uniqueIndex"`
	QualtricsAPIToken   *string   `json:"-"                   gorm:"type:varchar(255)"`
	QualtricsDatacenter *string   `json:"qualtricsDatacenter,omitempty" gorm:"type:varchar(64)"`
	QualtricsBrandID    *string   `json:"qualtricsBrandId,omitempty"    gorm:"type:varchar(128)"`
	TokenBalance        int64     `json:"tokenBalance"        gorm:"not null;default:0;check:token_balance >= 0"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// HasQualtricsCredentials reports whether token, datacenter and brand id are
// all present and non-blank.
func (u *User) HasQualtricsCredentials() bool {
	return nonBlank(u.QualtricsAPIToken) && nonBlank(u.QualtricsDatacenter) && nonBlank(u.QualtricsBrandID)
}

// Credentials returns the stored platform credentials. Callers should check
// HasQualtricsCredentials first.
func (u *User) Credentials() QualtricsCredentials {
	return QualtricsCredentials{
		APIToken:   deref(u.QualtricsAPIToken),
		Datacenter: deref(u.QualtricsDatacenter),
		BrandID:    deref(u.QualtricsBrandID),
	}
}

// QualtricsCredentials is the triple needed to call the platform on a user's behalf.
type QualtricsCredentials struct {
	APIToken   string
	Datacenter string
	BrandID    string
}

// Survey records a survey that was successfully created on the platform.
// Rows are created once and never updated.
type Survey struct {
	ID          uint           `json:"id"          gorm:"primaryKey;autoIncrement"`
	UserID      uint           `json:"userId"      gorm:"not null;index:idx_user_surveys,priority:1"`
	QualtricsID string         `json:"qualtricsId" gorm:"type:varchar(128);not null"`
	Name        string         `json:"name"        gorm:"type:varchar(255);not null"`
	Document    datatypes.JSON `json:"surveyData,omitempty" swaggertype:"object"`
	CreatedAt   time.Time      `json:"createdAt"   gorm:"index:idx_user_surveys,priority:2"`

	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Survey.
func (Survey) TableName() string { return "surveys" }

func nonBlank(p *string) bool { return p != nil && strings.TrimSpace(*p) != "" }

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
