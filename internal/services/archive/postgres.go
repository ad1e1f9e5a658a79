package archive

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mcoot/tworoomsboom/internal/model"
)

type gameRecord struct {
	ID          uint   `gorm:"primaryKey"`
	PIN         string `gorm:"size:5;index"`
	Winner      string `gorm:"size:8"`
	PlayerCount int
	CreatedAt   time.Time
	FinishedAt  time.Time      `gorm:"index"`
	Players     []playerRecord `gorm:"foreignKey:GameID;constraint:OnDelete:CASCADE"`
}

func (gameRecord) TableName() string { return "game_results" }

type playerRecord struct {
	ID       uint `gorm:"primaryKey"`
	GameID   uint `gorm:"index"`
	Position int
	Key      string `gorm:"size:32"`
	Name     string
	Team     string `gorm:"size:8"`
	Role     string `gorm:"size:16"`
	Room0    int
	Room1    int
	Room2    int
	Room3    int
}

func (playerRecord) TableName() string { return "game_result_players" }

// Postgres persists summaries through gorm
type Postgres struct {
	db *gorm.DB
}

var _ Archive = (*Postgres)(nil)

// OpenPostgres connects with retries and migrates the archive tables
func OpenPostgres(dsn string, log *slog.Logger) (*Postgres, error) {
	const maxRetries = 3
	const retryInterval = 2 * time.Second

	var db *gorm.DB
	var err error
	for i := 0; i <= maxRetries; i++ {
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
		if err == nil {
			break
		}
		log.Warn("archive database connect failed",
			slog.Int("attempt", i+1),
			slog.String("error", err.Error()),
		)
		if i < maxRetries {
			time.Sleep(retryInterval)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect archive database: %w", err)
	}

	return NewPostgres(db)
}

// NewPostgres wraps an open gorm connection and migrates the archive tables
func NewPostgres(db *gorm.DB) (*Postgres, error) {
	if err := db.AutoMigrate(&gameRecord{}, &playerRecord{}); err != nil {
		return nil, fmt.Errorf("migrate archive: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Record(ctx context.Context, summary *model.GameSummary) error {
	rec := toRecord(summary)
	return p.db.WithContext(ctx).Create(&rec).Error
}

func (p *Postgres) Recent(ctx context.Context, limit int) ([]model.GameSummary, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	var records []gameRecord
	err := p.db.WithContext(ctx).
		Preload("Players", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Order("finished_at desc").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	out := make([]model.GameSummary, 0, len(records))
	for _, rec := range records {
		out = append(out, fromRecord(rec))
	}
	return out, nil
}

// Close releases the underlying connection pool
func (p *Postgres) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toRecord(s *model.GameSummary) gameRecord {
	rec := gameRecord{
		PIN:         string(s.PIN),
		Winner:      string(s.Winner),
		PlayerCount: s.PlayerCount,
		CreatedAt:   s.CreatedAt,
		FinishedAt:  s.FinishedAt,
	}
	for i, p := range s.Players {
		rec.Players = append(rec.Players, playerRecord{
			Position: i,
			Key:      string(p.Key),
			Name:     p.Name,
			Team:     string(p.Team),
			Role:     string(p.Role),
			Room0:    int(p.Rooms[0]),
			Room1:    int(p.Rooms[1]),
			Room2:    int(p.Rooms[2]),
			Room3:    int(p.Rooms[3]),
		})
	}
	return rec
}

func fromRecord(rec gameRecord) model.GameSummary {
	s := model.GameSummary{
		PIN:         model.PIN(rec.PIN),
		Winner:      model.Team(rec.Winner),
		PlayerCount: rec.PlayerCount,
		CreatedAt:   rec.CreatedAt,
		FinishedAt:  rec.FinishedAt,
	}
	for _, p := range rec.Players {
		s.Players = append(s.Players, model.PlayerOutcome{
			Key:   model.PlayerKey(p.Key),
			Name:  p.Name,
			Team:  model.Team(p.Team),
			Role:  model.Role(p.Role),
			Rooms: model.RoomHistory{model.Room(p.Room0), model.Room(p.Room1), model.Room(p.Room2), model.Room(p.Room3)},
		})
	}
	return s
}
