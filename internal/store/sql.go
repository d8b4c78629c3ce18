package store

import (
	"context"
	"errors"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/i474232898/weather-shortcode/internal/weather"
)

var _ weather.KVStore = (*SQLStore)(nil)

// CacheRow is one stored entry. A nil ExpiresAt never expires.
type CacheRow struct {
	Key       string     `gorm:"column:cache_key;primaryKey;size:191"`
	Value     []byte     `gorm:"not null"`
	ExpiresAt *time.Time `gorm:"index"`
}

func (CacheRow) TableName() string { return "weather_cache" }

// SQLStore keeps entries in a relational table. Expired rows are invisible
// to Get and removed by DeleteExpired.
type SQLStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewSQLStore migrates the cache table on db.
func NewSQLStore(db *gorm.DB) (*SQLStore, error) {
	if err := db.AutoMigrate(&CacheRow{}); err != nil {
		return nil, pkgerrors.Wrap(err, "migrate weather_cache")
	}
	return &SQLStore{db: db, now: time.Now}, nil
}

// OpenSQLite opens (creating if needed) a SQLite database at dsn and
// returns a migrated SQLStore on it.
func OpenSQLite(dsn string) (*SQLStore, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "open sqlite %s", dsn)
	}
	return NewSQLStore(db)
}

func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var row CacheRow
	err := s.db.WithContext(ctx).
		Where("cache_key = ? AND (expires_at IS NULL OR expires_at > ?)", key, s.now().UTC()).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, pkgerrors.Wrapf(err, "select %s", key)
	}
	return row.Value, true, nil
}

func (s *SQLStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	row := CacheRow{Key: key, Value: value}
	if ttl > 0 {
		exp := s.now().UTC().Add(ttl)
		row.ExpiresAt = &exp
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "cache_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at"}),
		}).
		Create(&row).Error
	return pkgerrors.Wrapf(err, "upsert %s", key)
}

func (s *SQLStore) DeleteByPrefix(ctx context.Context, prefix string) (int, error) {
	res := s.db.WithContext(ctx).
		Where(`cache_key LIKE ? ESCAPE '\'`, escapeLike(prefix)+"%").
		Delete(&CacheRow{})
	if res.Error != nil {
		return 0, pkgerrors.Wrapf(res.Error, "delete prefix %s", prefix)
	}
	return int(res.RowsAffected), nil
}

func (s *SQLStore) DeleteExpired(ctx context.Context) (int, error) {
	res := s.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ?", s.now().UTC()).
		Delete(&CacheRow{})
	if res.Error != nil {
		return 0, pkgerrors.Wrap(res.Error, "delete expired")
	}
	return int(res.RowsAffected), nil
}

func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
