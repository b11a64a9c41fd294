package database

import (
	"database/sql"
	"sync"

	_ "github.com/joho/godotenv/autoload"
	_ "github.com/mattn/go-sqlite3"
)

// Service persists finished game results. Game state itself is never
// persisted; a restart simply starts a fresh game.
type Service struct {
	db        *sql.DB
	m         *sync.Mutex
	tableName string
}

var tableName = "skullking_results"

// New opens (and if needed creates) the results store at the given sqlite
// data source name.
func New(dsn string) Service {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		panic(err)
	}

	sqlStmt := `
	create table if not exists skullking_results (
		id string not null primary key,
		created_at string,
		players string,
		rounds integer,
		wins string
	);
	`
	_, err = db.Exec(sqlStmt)
	if err != nil {
		panic(err)
	}

	return Service{
		db:        db,
		tableName: tableName,
		m:         &sync.Mutex{},
	}
}

func (s *Service) Close() error {
	return s.db.Close()
}

func (s *Service) TableName() string {
	return s.tableName
}

// Insert records a finished game.
func (s *Service) Insert(result GameResult) error {
	s.m.Lock()
	defer s.m.Unlock()
	_, err := s.db.Exec("INSERT INTO "+s.tableName+
		" (id, created_at, players, rounds, wins) VALUES (?, ?, ?, ?, ?)",
		result.Id,
		result.CreatedAt,
		result.playersColumn(),
		result.Rounds,
		result.Wins)
	return err
}

// GetAll returns every recorded result.
func (s *Service) GetAll() ([]GameResult, error) {
	s.m.Lock()
	defer s.m.Unlock()
	rows, err := s.db.Query("SELECT id, created_at, players, rounds, wins FROM " + s.tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanResults(rows)
}

// GetById returns a single recorded result.
func (s *Service) GetById(id string) (GameResult, error) {
	s.m.Lock()
	defer s.m.Unlock()
	var result GameResult
	var players string
	err := s.db.QueryRow("SELECT id, created_at, players, rounds, wins FROM "+s.tableName+" WHERE id = ?", id).Scan(
		&result.Id,
		&result.CreatedAt,
		&players,
		&result.Rounds,
		&result.Wins)
	if err != nil {
		return GameResult{}, err
	}
	result.Players = playersFromColumn(players)
	return result, nil
}

// GetByPlayer returns every recorded result a player took part in.
func (s *Service) GetByPlayer(playerName string) ([]GameResult, error) {
	s.m.Lock()
	defer s.m.Unlock()
	rows, err := s.db.Query("SELECT id, created_at, players, rounds, wins FROM "+s.tableName+
		" WHERE ',' || players || ',' LIKE '%,' || ? || ',%'",
		playerName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results, err := scanResults(rows)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, sql.ErrNoRows // No results found
	}
	return results, nil
}

func scanResults(rows *sql.Rows) ([]GameResult, error) {
	var results []GameResult
	for rows.Next() {
		var result GameResult
		var players string
		if err := rows.Scan(
			&result.Id,
			&result.CreatedAt,
			&players,
			&result.Rounds,
			&result.Wins); err != nil {
			return nil, err
		}
		result.Players = playersFromColumn(players)
		results = append(results, result)
	}
	return results, rows.Err()
}
