// Package store implements fiber.Storage on top of gorm for engines without a
// dedicated gofiber storage driver.
package store

import (
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/configurator-admin/configurator-admin/internal/db/models"
)

// Storage is a fiber.Storage backed by the kv_store table.
type Storage struct {
	db   *gorm.DB
	now  func() time.Time
	done chan struct{}
}

// New returns a storage on db and starts a collector that removes expired
// entries every gcInterval. A zero interval disables the collector.
func New(db *gorm.DB, gcInterval time.Duration) (*Storage, error) {
	if err := db.AutoMigrate(&models.KeyValue{}); err != nil {
		return nil, err
	}

	s := &Storage{db: db, now: time.Now, done: make(chan struct{})}

	if gcInterval > 0 {
		go s.gc(gcInterval)
	}

	return s, nil
}

// Get returns the value of key, or nil when it is missing or expired.
func (s *Storage) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}

	var kv models.KeyValue

	err := s.db.Where("kv_key = ?", key).First(&kv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	if kv.ExpiresAt != 0 && kv.ExpiresAt <= s.now().Unix() {
		return nil, nil
	}

	return kv.Value, nil
}

// Set stores val under key. A zero exp keeps the entry forever.
func (s *Storage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}

	kv := models.KeyValue{Key: key, Value: val}
	if exp > 0 {
		kv.ExpiresAt = s.now().Add(exp).Unix()
	}

	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "kv_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at"}),
	}).Create(&kv).Error
}

// Delete removes key.
func (s *Storage) Delete(key string) error {
	if key == "" {
		return nil
	}

	return s.db.Where("kv_key = ?", key).Delete(&models.KeyValue{}).Error
}

// Reset removes every entry.
func (s *Storage) Reset() error {
	return s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.KeyValue{}).Error
}

// Close stops the collector. The database handle is owned by the caller.
func (s *Storage) Close() error {
	select {
	case <-s.done:
	default:
		close(s.done)
	}

	return nil
}

func (s *Storage) gc(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if err := s.collect(); err != nil {
				log.Warn().Err(err).Msg("kv store gc failed")
			}
		}
	}
}

func (s *Storage) collect() error {
	return s.db.Where("expires_at <> 0 AND expires_at <= ?", s.now().Unix()).Delete(&models.KeyValue{}).Error
}
