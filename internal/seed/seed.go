package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	catalogdomain "github.com/agentbill/agentbill/internal/catalog/domain"
)

// demoModels mirror common LLM price points, in cents per one million
// tokens.
var demoModels = []struct {
	Model       string
	InputCents  int64
	OutputCents int64
}{
	{"gpt-4o", 250, 1000},
	{"gpt-4o-mini", 15, 60},
	{"claude-sonnet-4", 300, 1500},
	{"claude-haiku-3-5", 80, 400},
}

// EnsureDemoData seeds the model catalog so a fresh local deployment can
// record usage immediately. Existing rows are left untouched.
func EnsureDemoData(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, demo := range demoModels {
			var existing catalogdomain.ValidModel
			err := tx.WithContext(ctx).
				Where("model = ?", demo.Model).
				First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			now := time.Now().UTC()
			model := catalogdomain.ValidModel{
				ID:                         node.Generate(),
				Model:                      demo.Model,
				InputCostPer1MTokensCents:  demo.InputCents,
				OutputCostPer1MTokensCents: demo.OutputCents,
				Active:                     true,
				CreatedAt:                  now,
				UpdatedAt:                  now,
			}
			if err := tx.WithContext(ctx).Create(&model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
