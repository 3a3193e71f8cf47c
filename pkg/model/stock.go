package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockBar 单个交易周期的OHLCV数据
type StockBar struct {
	ID         string    `gorm:"type:uuid;primaryKey" json:"id"`
	Datetime   time.Time `gorm:"not null;uniqueIndex" json:"datetime"`
	Open       float64   `gorm:"not null" json:"open"`
	High       float64   `gorm:"not null" json:"high"`
	Low        float64   `gorm:"not null" json:"low"`
	Close      float64   `gorm:"not null" json:"close"`
	Volume     int64     `gorm:"not null" json:"volume"`
	Instrument string    `gorm:"type:varchar(50);not null;index" json:"instrument"`
	CreatedAt  time.Time `json:"created_at"`
}

func (StockBar) TableName() string {
	return "stock_data"
}

func (b *StockBar) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return nil
}
