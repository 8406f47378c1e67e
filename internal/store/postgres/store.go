// Package postgres is the PostgreSQL record store.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/vpl/internal/config"
	"github.com/JonMunkholm/vpl/internal/core"
)

// Store implements core.Store on a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

var _ core.Store = (*Store)(nil)

// New wraps an existing pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Connect opens and pings a pool configured from cfg.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// NextSequence draws from the players id sequence. Values are never handed
// out twice, even across concurrent transactions.
func (s *Store) NextSequence(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx,
		`SELECT nextval(pg_get_serial_sequence('players', 'id'))`,
	).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}

const insertPlayer = `
INSERT INTO players (
    id, vpl_id, full_name, age, phone, ch_reg_same, ch_mobile, ch_name,
    current_team, prev_team, role, style, photo, shirt_name, shirt_number,
    shirt_size, sleeves, comments, status
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19
) RETURNING created_at`

// Insert writes p with its pre-assigned id. Errors are returned as pgx
// reports them, so a duplicate surfaces with Postgres' own wording.
func (s *Store) Insert(ctx context.Context, p *core.Player) error {
	return s.pool.QueryRow(ctx, insertPlayer,
		p.ID,
		p.PublicID,
		p.FullName,
		p.Age,
		p.Phone,
		optionalText(p.GuardianPhoneSame),
		p.GuardianMobile,
		p.GuardianName,
		p.CurrentTeam,
		optionalText(p.PreviousTeam),
		p.Role,
		p.Style,
		p.PhotoFilename,
		p.ShirtName,
		p.ShirtNumber,
		p.ShirtSize,
		p.SleevePreference,
		optionalText(p.Comments),
		p.Status,
	).Scan(&p.CreatedAt)
}

type playerRow struct {
	ID          int64       `db:"id"`
	VplID       string      `db:"vpl_id"`
	FullName    string      `db:"full_name"`
	Age         int32       `db:"age"`
	Phone       string      `db:"phone"`
	ChRegSame   pgtype.Text `db:"ch_reg_same"`
	ChMobile    string      `db:"ch_mobile"`
	ChName      string      `db:"ch_name"`
	CurrentTeam string      `db:"current_team"`
	PrevTeam    pgtype.Text `db:"prev_team"`
	Role        string      `db:"role"`
	Style       string      `db:"style"`
	Photo       string      `db:"photo"`
	ShirtName   string      `db:"shirt_name"`
	ShirtNumber int32       `db:"shirt_number"`
	ShirtSize   string      `db:"shirt_size"`
	Sleeves     string      `db:"sleeves"`
	Comments    pgtype.Text `db:"comments"`
	Status      string      `db:"status"`
	CreatedAt   time.Time   `db:"created_at"`
}

func (r playerRow) player() core.Player {
	return core.Player{
		ID:                r.ID,
		PublicID:          r.VplID,
		FullName:          r.FullName,
		Age:               int(r.Age),
		Phone:             r.Phone,
		GuardianPhoneSame: r.ChRegSame.String,
		GuardianMobile:    r.ChMobile,
		GuardianName:      r.ChName,
		CurrentTeam:       r.CurrentTeam,
		PreviousTeam:      r.PrevTeam.String,
		Role:              r.Role,
		Style:             r.Style,
		PhotoFilename:     r.Photo,
		ShirtName:         r.ShirtName,
		ShirtNumber:       int(r.ShirtNumber),
		ShirtSize:         r.ShirtSize,
		SleevePreference:  r.Sleeves,
		Comments:          r.Comments.String,
		Status:            r.Status,
		CreatedAt:         r.CreatedAt,
	}
}

// List returns every player ordered by id.
func (s *Store) List(ctx context.Context) ([]core.Player, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, vpl_id, full_name, age, phone, ch_reg_same, ch_mobile, ch_name,
       current_team, prev_team, role, style, photo, shirt_name, shirt_number,
       shirt_size, sleeves, comments, status, created_at
FROM players
ORDER BY id`)
	if err != nil {
		return nil, err
	}

	records, err := pgx.CollectRows(rows, pgx.RowToStructByName[playerRow])
	if err != nil {
		return nil, err
	}

	players := make([]core.Player, len(records))
	for i, r := range records {
		players[i] = r.player()
	}
	return players, nil
}

// Ping checks the pool can reach the database.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// optionalText maps "" to SQL NULL.
func optionalText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}
