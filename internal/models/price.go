/**
 * @description
 * Price History database model.
 * Maps to the 'price_history' table in PostgreSQL; appended by the worker's
 * feed ingester as oracle observations arrive.
 *
 * @dependencies
 * - gorm.io/gorm
 */

package models

import "time"

// PriceHistory represents one oracle observation for an asset
type PriceHistory struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Asset      string    `gorm:"column:asset;index:idx_price_history_asset_time" json:"asset"`
	Price      uint64    `gorm:"column:price;not null" json:"price"` // smallest units
	ObservedAt int64     `gorm:"column:observed_at;index:idx_price_history_asset_time" json:"observed_at"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName overrides the table name used by PriceHistory to `price_history`
func (PriceHistory) TableName() string {
	return "price_history"
}
