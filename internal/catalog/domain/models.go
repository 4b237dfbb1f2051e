package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// ValidModel is a priced LLM model. Rates are integer cents per one million
// tokens so cost math stays exact.
type ValidModel struct {
	ID    snowflake.ID `gorm:"primaryKey" json:"id"`
	Model string       `gorm:"type:text;not null;uniqueIndex:ux_valid_models_model" json:"model"`

	// The column tags pin the snake_case names the migrations and raw
	// queries use; the default naming splits the 1M segment differently.
	InputCostPer1MTokensCents  int64 `gorm:"column:input_cost_per_1m_tokens_cents;not null" json:"input_cost_per_1m_tokens_cents"`
	OutputCostPer1MTokensCents int64 `gorm:"column:output_cost_per_1m_tokens_cents;not null" json:"output_cost_per_1m_tokens_cents"`

	Active    bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (ValidModel) TableName() string { return "valid_models" }
