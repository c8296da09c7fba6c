// Package archive is the optional append-only trade archive: a sink, not
// a source of truth. The engine's correctness never depends on it being
// present or caught up.
package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Archive is the dual sqlite/postgres trade sink and impact-job queue.
type Archive struct {
	db *gorm.DB
}

// Trade is one archived venue trade.
type Trade struct {
	TradeID       string `gorm:"primaryKey"`
	Venue         string
	MarketID      string `gorm:"index"`
	TraderID      string `gorm:"index"`
	Side          string
	Outcome       string
	PriceCents    int64
	Size          decimal.Decimal `gorm:"type:decimal(20,6)"`
	NotionalCents int64
	MidAtTradeCents int64
	Timestamp     time.Time `gorm:"index"`
	CreatedAt     time.Time
}

// MarketSnapshot is a per-minute price/volume snapshot for a market.
type MarketSnapshot struct {
	ID        uint `gorm:"primaryKey;autoIncrement"`
	MarketID  string `gorm:"index"`
	PriceCents int64
	Volume    decimal.Decimal `gorm:"type:decimal(20,6)"`
	Timestamp time.Time `gorm:"index"`
}

// ImpactJob is a retryable job to compute a truth event's realized price
// impact once enough time has elapsed.
type ImpactJob struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	EventID  string `gorm:"index"`
	MarketID string `gorm:"index"`
	Status   string `gorm:"index"` // pending|done|failed
	Tries    int
	RunAt    time.Time `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

const maxImpactRetries = 3

// New opens a sqlite or postgres database depending on the DSN prefix,
// mirroring the teacher's dispatch, and migrates the archive's tables.
func New(dsn string) (*Archive, error) {
	var db *gorm.DB
	var err error

	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return nil, err
		}
		log.Info().Msg("archive connected (PostgreSQL)")
	} else {
		dir := filepath.Dir(dsn)
		if dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, err
			}
		}
		db, err = gorm.Open(sqlite.Open(dsn), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", dsn).Msg("archive initialized (SQLite)")
	}

	if err := db.AutoMigrate(&Trade{}, &MarketSnapshot{}, &ImpactJob{}); err != nil {
		return nil, err
	}

	return &Archive{db: db}, nil
}

// TradeID builds the deterministic trade ID format marketId-addrPrefix-ts-seq.
func TradeID(marketID, address string, ts time.Time, seq int) string {
	prefix := address
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return fmt.Sprintf("%s-%s-%d-%d", marketID, prefix, ts.Unix(), seq)
}

// AppendTrade stores a trade synchronously. Callers log and continue on
// error, so a failing archive never stops ingestion.
func (a *Archive) AppendTrade(t *Trade) error {
	return a.db.Create(t).Error
}

// AppendSnapshot stores a per-minute market snapshot.
func (a *Archive) AppendSnapshot(s *MarketSnapshot) error {
	return a.db.Create(s).Error
}

// EnqueueImpactJob schedules an impact computation for an event, to run
// at runAt (typically now + the event's freshness horizon).
func (a *Archive) EnqueueImpactJob(eventID, marketID string, runAt time.Time) error {
	return a.db.Create(&ImpactJob{
		EventID:  eventID,
		MarketID: marketID,
		Status:   "pending",
		RunAt:    runAt,
	}).Error
}

// DueImpactJobs returns pending jobs whose RunAt has passed.
func (a *Archive) DueImpactJobs(now time.Time) ([]ImpactJob, error) {
	var jobs []ImpactJob
	err := a.db.Where("status = ? AND run_at <= ?", "pending", now).Find(&jobs).Error
	return jobs, err
}

// CompleteImpactJob marks a job done.
func (a *Archive) CompleteImpactJob(id uint) error {
	return a.db.Model(&ImpactJob{}).Where("id = ?", id).Update("status", "done").Error
}

// FailImpactJob increments the retry counter, marking the job failed once
// the retry budget (3 tries) is exhausted.
func (a *Archive) FailImpactJob(id uint) error {
	var job ImpactJob
	if err := a.db.First(&job, id).Error; err != nil {
		return err
	}
	job.Tries++
	if job.Tries >= maxImpactRetries {
		job.Status = "failed"
	}
	return a.db.Save(&job).Error
}

// TradeCount returns the number of archived trades for a market since
// the given time.
func (a *Archive) TradeCount(marketID string, since time.Time) (int64, error) {
	var count int64
	err := a.db.Model(&Trade{}).Where("market_id = ? AND timestamp >= ?", marketID, since).Count(&count).Error
	return count, err
}
