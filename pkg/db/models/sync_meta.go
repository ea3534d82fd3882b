package models

import "time"

// SyncMeta is a one-row-per-key scalar store in the cache database. Today it
// holds only the last successful full-fetch timestamp.
type SyncMeta struct {
	Key       string    `gorm:"column:key;primaryKey"`
	Value     string    `gorm:"column:value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (SyncMeta) TableName() string {
	return "sync_meta"
}

// SyncMetaLastSync is the key under which the last-sync timestamp is stored.
const SyncMetaLastSync = "last_sync_at"
