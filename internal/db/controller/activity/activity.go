// Package activity stores and queries the activity log of configurator users.
package activity

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/configurator-admin/configurator-admin/internal/db/models"
)

// Actions with special handling.
const (
	ActionTextureApplied       = "TEXTURE_APPLIED"
	ActionGlobalTextureApplied = "Global Texture Applied"
	ActionModelLoaded          = "MODEL_LOADED"
	ActionModelChange          = "model-change"
)

// DefaultLimit is the page size used when none is given.
const DefaultLimit = 15

const maxLimit = 200

// noise lists actions recorded for analytics but never listed.
var noise = []string{ActionModelLoaded, ActionModelChange} //nolint:gochecknoglobals

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrActionEmpty is returned when recording a log without an action.
	ErrActionEmpty = errors.New("activity action cannot be empty")
)

// Filter narrows a log listing. Zero values do not filter.
type Filter struct {
	Action    string
	UserID    string
	ModelName string
	Start     time.Time
	End       time.Time
	Page      int
	Limit     int
}

// Page is one page of consolidated log entries.
type Page struct {
	Logs       []models.ActivityLog `json:"logs"`
	Total      int64                `json:"total"`
	Page       int                  `json:"page"`
	TotalPages int                  `json:"totalPages"`
}

// Stats summarises the activity log.
type Stats struct {
	Total       int64            `json:"total"`
	LastDay     int64            `json:"lastDay"`
	UniqueUsers int64            `json:"uniqueUsers"`
	ByAction    map[string]int64 `json:"byAction"`
}

// Record stores a log entry.
func Record(db *gorm.DB, entry *models.ActivityLog) error {
	if db == nil {
		return ErrDBNil
	}

	if entry.Action == "" {
		return ErrActionEmpty
	}

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	return db.Create(entry).Error
}

func (f *Filter) normalize() {
	if f.Page < 1 {
		f.Page = 1
	}

	if f.Limit < 1 {
		f.Limit = DefaultLimit
	}

	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
}

func (f Filter) apply(q *gorm.DB) *gorm.DB {
	q = q.Where("action NOT IN ?", noise)

	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}

	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}

	if f.ModelName != "" {
		q = q.Where("model_name = ?", f.ModelName)
	}

	if !f.Start.IsZero() {
		q = q.Where("timestamp >= ?", f.Start)
	}

	if !f.End.IsZero() {
		q = q.Where("timestamp <= ?", f.End)
	}

	return q
}

// List returns one page of logs matching f, newest first, with texture
// events of the same batch consolidated.
func List(db *gorm.DB, f Filter) (*Page, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	f.normalize()

	var total int64
	if err := f.apply(db.Model(&models.ActivityLog{})).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count activity logs: %w", err)
	}

	var logs []models.ActivityLog

	err := f.apply(db.Model(&models.ActivityLog{})).
		Order("timestamp DESC").
		Offset((f.Page - 1) * f.Limit).
		Limit(f.Limit).
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("list activity logs: %w", err)
	}

	return &Page{
		Logs:       Consolidate(logs),
		Total:      total,
		Page:       f.Page,
		TotalPages: int(math.Ceil(float64(total) / float64(f.Limit))),
	}, nil
}

// Consolidate merges TEXTURE_APPLIED entries sharing model, texture source
// and timestamp into a single "Global Texture Applied" entry listing the
// affected parts. Lone texture events are kept as they are. The result is
// sorted newest first.
func Consolidate(logs []models.ActivityLog) []models.ActivityLog {
	type batch struct {
		logs []models.ActivityLog
	}

	out := make([]models.ActivityLog, 0, len(logs))
	batches := map[string]*batch{}
	order := []string{}

	for _, l := range logs {
		source, _ := l.Details["textureSource"].(string)
		if l.Action != ActionTextureApplied || source == "" {
			out = append(out, l)
			continue
		}

		key := fmt.Sprintf("%s_%s_%d", l.ModelName, source, l.Timestamp.UnixMilli())
		if _, ok := batches[key]; !ok {
			batches[key] = &batch{}
			order = append(order, key)
		}

		batches[key].logs = append(batches[key].logs, l)
	}

	for _, key := range order {
		b := batches[key]
		if len(b.logs) == 1 {
			out = append(out, b.logs[0])
			continue
		}

		first := b.logs[0]
		parts := make([]any, 0, len(b.logs))

		for _, l := range b.logs {
			parts = append(parts, l.Details["partName"])
		}

		merged := first
		merged.ID = "consolidated_" + first.ID
		merged.Action = ActionGlobalTextureApplied
		merged.Details = map[string]any{
			"textureSource": first.Details["textureSource"],
			"appliedParts":  parts,
			"partCount":     len(b.logs),
			"mappingConfig": first.Details["mappingConfig"],
			"widgetType":    "texture",
		}
		out = append(out, merged)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})

	return out
}

// Summarize computes counters over the whole log, noise included.
func Summarize(db *gorm.DB, now time.Time) (*Stats, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	st := &Stats{ByAction: map[string]int64{}}
	base := func() *gorm.DB { return db.Model(&models.ActivityLog{}) }

	if err := base().Count(&st.Total).Error; err != nil {
		return nil, err
	}

	if err := base().Where("timestamp >= ?", now.Add(-24*time.Hour)).Count(&st.LastDay).Error; err != nil {
		return nil, err
	}

	if err := base().Distinct("user_id").Count(&st.UniqueUsers).Error; err != nil {
		return nil, err
	}

	var rows []struct {
		Action string
		Count  int64
	}

	if err := base().Select("action, count(*) as count").Group("action").Scan(&rows).Error; err != nil {
		return nil, err
	}

	for _, r := range rows {
		st.ByAction[r.Action] = r.Count
	}

	return st, nil
}

// Clear deletes every log of the user and returns the number removed.
func Clear(db *gorm.DB, userID string) (int64, error) {
	if db == nil {
		return 0, ErrDBNil
	}

	result := db.Where("user_id = ?", userID).Delete(&models.ActivityLog{})

	return result.RowsAffected, result.Error
}
