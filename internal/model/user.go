package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fs25hub/internal/policy"
)

// User represents a registered account: a player by default, promotable to
// dot_officer, supervisor or admin. Password is empty for accounts created
// through Discord login.
type User struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Username         string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	Email            string          `gorm:"type:varchar(120);uniqueIndex;not null" json:"email"`
	Password         string          `gorm:"type:varchar(200)" json:"-"`
	Role             policy.Role     `gorm:"type:varchar(20);not null;default:'player'" json:"role"`
	Balance          decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"balance"`
	DiscordUserID    *string         `gorm:"type:varchar(50);uniqueIndex" json:"discord_user_id,omitempty"`
	LoginTime        *time.Time      `json:"login_time,omitempty"`
	LogoutTime       *time.Time      `json:"logout_time,omitempty"`
	TotalLoggedHours float64         `gorm:"not null;default:0" json:"total_logged_hours"`
	CompanyID        *uuid.UUID      `gorm:"type:uuid;index" json:"company_id,omitempty"`
	Company          *Company        `gorm:"foreignKey:CompanyID" json:"-"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// RefreshToken stores long-lived tokens allowing users to request new access tokens
type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Token     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"token"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (t *RefreshToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
