package trainlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/domino14/ntuple2048/stats"
)

const schema = `
CREATE TABLE IF NOT EXISTS blocks(
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	ts INTEGER NOT NULL,
	episode INTEGER NOT NULL,
	unit INTEGER NOT NULL,
	avg REAL NOT NULL,
	max_score INTEGER NOT NULL,
	epsilon REAL NOT NULL,
	tiles_json TEXT NOT NULL
)`

// SQLiteSink appends blocks to a table in a SQLite database.
type SQLiteSink struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path. ":memory:" works
// for a throwaway database.
func OpenSQLite(path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// one connection keeps :memory: databases alive and writes serial
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		log.Debug().Err(err).Msg("could-not-enable-wal")
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQLiteSink{db: db}, nil
}

func (s *SQLiteSink) Record(ctx context.Context, blk *stats.Block) error {
	tiles, err := json.Marshal(blk.Tiles)
	if err != nil {
		return err
	}
	ts := blk.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO blocks(ts, episode, unit, avg, max_score, epsilon, tiles_json) VALUES(?,?,?,?,?,?,?)",
		ts.UnixMilli(), blk.Episode, blk.Unit, blk.AvgScore, blk.MaxScore, blk.Epsilon, string(tiles))
	return err
}

// Blocks returns every recorded block, oldest first.
func (s *SQLiteSink) Blocks(ctx context.Context) ([]*stats.Block, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT ts, episode, unit, avg, max_score, epsilon, tiles_json FROM blocks ORDER BY id ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blocks []*stats.Block
	for rows.Next() {
		var (
			ts    int64
			tiles string
			blk   stats.Block
		)
		if err := rows.Scan(&ts, &blk.Episode, &blk.Unit, &blk.AvgScore, &blk.MaxScore, &blk.Epsilon, &tiles); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(tiles), &blk.Tiles); err != nil {
			return nil, fmt.Errorf("block at episode %d: %w", blk.Episode, err)
		}
		blk.Time = time.UnixMilli(ts)
		blocks = append(blocks, &blk)
	}
	return blocks, rows.Err()
}

func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
