package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Customer is a billable end user of the platform. The slug is the stable
// external identifier used by metering API callers.
type Customer struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	Slug      string            `gorm:"type:text;not null;uniqueIndex:ux_customers_slug" json:"slug"`
	Name      string            `gorm:"not null;index" json:"name"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Customer) TableName() string { return "customers" }
