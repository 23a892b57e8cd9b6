package models

// KeyValue is an expiring entry of the gorm-backed fiber storage.
type KeyValue struct {
	Key   string `gorm:"primaryKey;column:kv_key;size:255"`
	Value []byte `gorm:"type:blob"`
	// ExpiresAt is a unix timestamp, 0 means the entry never expires.
	ExpiresAt int64 `gorm:"index"`
}

// TableName specifies the database table name for the KeyValue model.
func (KeyValue) TableName() string {
	return "kv_store"
}
