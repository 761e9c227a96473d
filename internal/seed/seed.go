// Package seed populates default settings on startup bootstrap.
package seed

import (
	"context"
	"errors"
	"time"

	settingsdomain "github.com/smallbiznis/partsentry/internal/settings/domain"
	"gorm.io/gorm"
)

type defaultSetting struct {
	key         string
	value       string
	dataType    settingsdomain.DataType
	category    string
	description string
}

var defaults = []defaultSetting{
	{settingsdomain.KeyValidationMode, settingsdomain.ModePartsBased, settingsdomain.TypeString, "validation", "parts_based or threshold_based"},
	{settingsdomain.KeyPriceTolerance, "0.001", settingsdomain.TypeNumber, "validation", "max absolute price difference for PASSED"},
	{settingsdomain.KeyPriceThreshold, "1000", settingsdomain.TypeNumber, "validation", "price cutoff for threshold_based mode"},
	{settingsdomain.KeyDiscoveryMode, settingsdomain.DiscoveryBatch, settingsdomain.TypeString, "discovery", "interactive or batch"},
	{settingsdomain.KeyDiscoveryAutoAdd, "false", settingsdomain.TypeBoolean, "discovery", "auto-add unknown parts at discovered price in batch mode"},
	{settingsdomain.KeyBatchWorkers, "4", settingsdomain.TypeNumber, "processing", "worker pool size for directory batches"},
	{settingsdomain.KeyReportFormat, "txt", settingsdomain.TypeString, "reporting", "default report format: txt, csv or json"},
}

// EnsureDefaultSettings inserts missing settings without touching values
// the operator has already changed.
func EnsureDefaultSettings(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	ctx := context.Background()
	now := time.Now().UTC()

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, def := range defaults {
			var count int64
			if err := tx.Model(&settingsdomain.ConfigEntry{}).
				Where("key = ?", def.key).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}

			description := def.description
			entry := settingsdomain.ConfigEntry{
				Key:         def.key,
				Value:       def.value,
				DataType:    def.dataType,
				Category:    def.category,
				Description: &description,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
