package model

type SyncKV struct {
	ID        uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	Key       string `gorm:"column:key;type:text;uniqueIndex;not null"`
	Value     string `gorm:"column:value;type:text;not null"`
	UpdatedAt string `gorm:"column:updated_at;type:text;not null"`
}

func (SyncKV) TableName() string {
	return "sync_kv"
}
