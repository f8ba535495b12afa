package evidence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// nowUTC returns the current UTC time as an ISO 8601 string.
func nowUTC() string { return time.Now().UTC().Format(time.RFC3339) }

const schemaVersion = 1

// SqlStore implements Store with SQLite.
type SqlStore struct {
	db *sql.DB
}

// Open opens or creates a SQLite DB at path and runs migrations.
// Creates the parent directory (e.g. .orthocheck) if it does not exist.
func Open(path string) (*SqlStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	s := &SqlStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// OpenMemory opens an in-memory SQLite DB for testing.
func OpenMemory() (*SqlStore, error) {
	return Open(":memory:")
}

func (s *SqlStore) migrate() error {
	var tableCount int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableCount)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableCount == 0 {
		return s.freshInstall()
	}

	var version int
	if err := s.db.QueryRow("SELECT version FROM schema_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("unsupported schema version %d (want %d)", version, schemaVersion)
	}
	return nil
}

func (s *SqlStore) freshInstall() error {
	stmts := []string{
		`CREATE TABLE schema_version(version INTEGER NOT NULL)`,
		`CREATE TABLE pair_scores(
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			core_set TEXT NOT NULL,
			group_id TEXT NOT NULL,
			species_a TEXT NOT NULL,
			species_b TEXT NOT NULL,
			score_type TEXT NOT NULL,
			value REAL NOT NULL
		)`,
		`CREATE INDEX idx_pair_scores_group ON pair_scores(core_set, group_id)`,
		`CREATE TABLE profiles(
			core_set TEXT NOT NULL,
			group_id TEXT NOT NULL,
			length_mean REAL NOT NULL DEFAULT 0,
			length_stddev REAL NOT NULL DEFAULT 0,
			updated_at TEXT NOT NULL,
			PRIMARY KEY(core_set, group_id)
		)`,
		`CREATE TABLE thresholds(
			core_set TEXT NOT NULL,
			group_id TEXT NOT NULL,
			score_type TEXT NOT NULL,
			lower REAL NOT NULL,
			upper REAL NOT NULL,
			mean REAL NOT NULL,
			stddev REAL NOT NULL,
			samples INTEGER NOT NULL,
			PRIMARY KEY(core_set, group_id, score_type)
		)`,
		`CREATE TABLE reports(
			id TEXT PRIMARY KEY,
			core_set TEXT NOT NULL,
			query_species TEXT NOT NULL,
			mode INTEGER NOT NULL,
			created_at TEXT NOT NULL,
			payload BLOB NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	if _, err := s.db.Exec("INSERT INTO schema_version(version) VALUES(?)", schemaVersion); err != nil {
		return fmt.Errorf("set schema version: %w", err)
	}
	return nil
}

func (s *SqlStore) Close() error { return s.db.Close() }

func (s *SqlStore) SavePairScores(coreSet string, scores []PairScore) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(
		`INSERT INTO pair_scores(core_set, group_id, species_a, species_b, score_type, value)
		 VALUES(?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, sc := range scores {
		if _, err := stmt.Exec(coreSet, sc.Group, sc.SpeciesA, sc.SpeciesB, string(sc.Type), sc.Value); err != nil {
			return fmt.Errorf("insert pair score %s/%s: %w", sc.Group, sc.Type, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit pair scores: %w", err)
	}
	return nil
}

func (s *SqlStore) PairScores(coreSet, group string) ([]PairScore, error) {
	rows, err := s.db.Query(
		`SELECT group_id, species_a, species_b, score_type, value
		 FROM pair_scores WHERE core_set = ? AND group_id = ? ORDER BY id`,
		coreSet, group,
	)
	if err != nil {
		return nil, fmt.Errorf("query pair scores: %w", err)
	}
	defer rows.Close()
	return scanPairScores(rows)
}

func (s *SqlStore) AllPairScores(coreSet string) (map[string][]PairScore, error) {
	rows, err := s.db.Query(
		`SELECT group_id, species_a, species_b, score_type, value
		 FROM pair_scores WHERE core_set = ? ORDER BY id`,
		coreSet,
	)
	if err != nil {
		return nil, fmt.Errorf("query pair scores: %w", err)
	}
	defer rows.Close()
	list, err := scanPairScores(rows)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]PairScore)
	for _, sc := range list {
		out[sc.Group] = append(out[sc.Group], sc)
	}
	return out, nil
}

func scanPairScores(rows *sql.Rows) ([]PairScore, error) {
	var list []PairScore
	for rows.Next() {
		var sc PairScore
		var typ string
		if err := rows.Scan(&sc.Group, &sc.SpeciesA, &sc.SpeciesB, &typ, &sc.Value); err != nil {
			return nil, fmt.Errorf("scan pair score: %w", err)
		}
		sc.Type = ScoreType(typ)
		list = append(list, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pair scores: %w", err)
	}
	return list, nil
}

func (s *SqlStore) SaveProfile(coreSet string, p *Profile) error {
	if p == nil {
		return errors.New("profile is nil")
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(
		`INSERT INTO profiles(core_set, group_id, length_mean, length_stddev, updated_at)
		 VALUES(?, ?, ?, ?, ?)
		 ON CONFLICT(core_set, group_id) DO UPDATE SET
		   length_mean=excluded.length_mean,
		   length_stddev=excluded.length_stddev,
		   updated_at=excluded.updated_at`,
		coreSet, p.Group, p.LengthMean, p.LengthStddev, nowUTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert profile %s: %w", p.Group, err)
	}

	if _, err := tx.Exec(
		"DELETE FROM thresholds WHERE core_set = ? AND group_id = ?", coreSet, p.Group,
	); err != nil {
		return fmt.Errorf("clear thresholds %s: %w", p.Group, err)
	}
	for _, t := range ScoreTypes() {
		th, ok := p.Thresholds[t]
		if !ok {
			continue
		}
		_, err := tx.Exec(
			`INSERT INTO thresholds(core_set, group_id, score_type, lower, upper, mean, stddev, samples)
			 VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
			coreSet, p.Group, string(t), th.Lower, th.Upper, th.Mean, th.Stddev, th.Samples,
		)
		if err != nil {
			return fmt.Errorf("insert threshold %s/%s: %w", p.Group, t, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit profile: %w", err)
	}
	return nil
}

func (s *SqlStore) Profile(coreSet, group string) (*Profile, error) {
	p := &Profile{Group: group, Thresholds: make(map[ScoreType]Threshold)}
	err := s.db.QueryRow(
		"SELECT length_mean, length_stddev FROM profiles WHERE core_set = ? AND group_id = ?",
		coreSet, group,
	).Scan(&p.LengthMean, &p.LengthStddev)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	rows, err := s.db.Query(
		`SELECT score_type, lower, upper, mean, stddev, samples
		 FROM thresholds WHERE core_set = ? AND group_id = ?`,
		coreSet, group,
	)
	if err != nil {
		return nil, fmt.Errorf("query thresholds: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var typ string
		var th Threshold
		if err := rows.Scan(&typ, &th.Lower, &th.Upper, &th.Mean, &th.Stddev, &th.Samples); err != nil {
			return nil, fmt.Errorf("scan threshold: %w", err)
		}
		p.Thresholds[ScoreType(typ)] = th
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("thresholds: %w", err)
	}
	return p, nil
}

func (s *SqlStore) Profiles(coreSet string) (map[string]*Profile, error) {
	out := make(map[string]*Profile)

	rows, err := s.db.Query(
		"SELECT group_id, length_mean, length_stddev FROM profiles WHERE core_set = ?",
		coreSet,
	)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		p := &Profile{Thresholds: make(map[ScoreType]Threshold)}
		if err := rows.Scan(&p.Group, &p.LengthMean, &p.LengthStddev); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		out[p.Group] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("profiles: %w", err)
	}

	thRows, err := s.db.Query(
		`SELECT group_id, score_type, lower, upper, mean, stddev, samples
		 FROM thresholds WHERE core_set = ?`,
		coreSet,
	)
	if err != nil {
		return nil, fmt.Errorf("query thresholds: %w", err)
	}
	defer thRows.Close()
	for thRows.Next() {
		var group, typ string
		var th Threshold
		if err := thRows.Scan(&group, &typ, &th.Lower, &th.Upper, &th.Mean, &th.Stddev, &th.Samples); err != nil {
			return nil, fmt.Errorf("scan threshold: %w", err)
		}
		if p, ok := out[group]; ok {
			p.Thresholds[ScoreType(typ)] = th
		}
	}
	if err := thRows.Err(); err != nil {
		return nil, fmt.Errorf("thresholds: %w", err)
	}
	return out, nil
}

func (s *SqlStore) SaveReport(rec *ReportRecord) error {
	if rec == nil {
		return errors.New("report record is nil")
	}
	if !json.Valid(rec.Payload) {
		return fmt.Errorf("report %s: payload is not valid JSON", rec.ID)
	}
	createdAt := rec.CreatedAt
	if createdAt == "" {
		createdAt = nowUTC()
	}
	_, err := s.db.Exec(
		`INSERT INTO reports(id, core_set, query_species, mode, created_at, payload)
		 VALUES(?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.CoreSet, rec.QuerySpecies, rec.Mode, createdAt, rec.Payload,
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

func (s *SqlStore) GetReport(id string) (*ReportRecord, error) {
	var rec ReportRecord
	err := s.db.QueryRow(
		"SELECT id, core_set, query_species, mode, created_at, payload FROM reports WHERE id = ?",
		id,
	).Scan(&rec.ID, &rec.CoreSet, &rec.QuerySpecies, &rec.Mode, &rec.CreatedAt, &rec.Payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	return &rec, nil
}

func (s *SqlStore) ListReports(coreSet string) ([]*ReportRecord, error) {
	query := "SELECT id, core_set, query_species, mode, created_at, payload FROM reports"
	args := []any{}
	if coreSet != "" {
		query += " WHERE core_set = ?"
		args = append(args, coreSet)
	}
	query += " ORDER BY created_at, id"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()
	var list []*ReportRecord
	for rows.Next() {
		var rec ReportRecord
		if err := rows.Scan(&rec.ID, &rec.CoreSet, &rec.QuerySpecies, &rec.Mode, &rec.CreatedAt, &rec.Payload); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		list = append(list, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return list, nil
}
