/**
 * @description
 * Core configuration database model.
 * Maps to the singleton 'core_config' row in PostgreSQL: administrative
 * parameters set once by Init and rotated field-by-field by the admin.
 *
 * @dependencies
 * - gorm.io/gorm
 */

package models

import "time"

// CoreConfigID is the primary key of the single core_config row.
const CoreConfigID = 1

// CoreConfig holds the administrative parameters of the betting engine
type CoreConfig struct {
	ID          uint      `gorm:"primaryKey" json:"-"`
	Admin       string    `gorm:"column:admin;not null" json:"admin"`
	FeeTaker    string    `gorm:"column:fee_taker;not null" json:"fee_taker"`
	FeeRate     uint64    `gorm:"column:fee_rate;not null" json:"fee_rate"` // fixed point, 10,000,000 = 100%
	PayingAsset string    `gorm:"column:paying_asset;not null" json:"paying_asset"`
	Oracle      string    `gorm:"column:oracle;not null" json:"oracle"`
	CodeHash    string    `gorm:"column:code_hash" json:"code_hash"` // release hash recorded by Upgrade
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName overrides the table name used by CoreConfig to `core_config`
func (CoreConfig) TableName() string {
	return "core_config"
}
