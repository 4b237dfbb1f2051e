package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// CustomerAgentLink grants a customer access to a restricted agent.
type CustomerAgentLink struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	CustomerID snowflake.ID `gorm:"not null;uniqueIndex:ux_customer_agent_links,priority:1" json:"customer_id"`
	AgentID    snowflake.ID `gorm:"not null;uniqueIndex:ux_customer_agent_links,priority:2" json:"agent_id"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (CustomerAgentLink) TableName() string { return "customer_agent_links" }
