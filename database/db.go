package database

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/gmucodingclub/clubbot/models"
	_ "github.com/mattn/go-sqlite3"
)

// MemoryDSN keeps the catalog in memory; it is rebuilt from the seed content on every start
const MemoryDSN = ":memory:"

// DB is the club content catalog
type DB struct {
	conn *sql.DB
}

// New opens the catalog, creates its tables and loads the seed content
func New(dsn string) (*DB, error) {
	if dsn == "" {
		dsn = MemoryDSN
	}
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	// every connection to :memory: would see its own empty database
	conn.SetMaxOpenConns(1)

	if err = conn.Ping(); err != nil {
		conn.Close()
		return nil, err
	}

	// Create tables
	if err = createTables(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	// Load seed content
	db := &DB{conn: conn}
	if err = db.seed(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("seed catalog: %w", err)
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// createTables drops and recreates the catalog tables so a file DSN starts from the seed content too
func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		DROP TABLE IF EXISTS events;
		DROP TABLE IF EXISTS projects;
		DROP TABLE IF EXISTS team_members;
		DROP TABLE IF EXISTS club_values;
		DROP TABLE IF EXISTS features;
		DROP TABLE IF EXISTS certifications;
		DROP TABLE IF EXISTS benefits;

		CREATE TABLE events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			date TEXT NOT NULL,
			time TEXT NOT NULL,
			venue TEXT NOT NULL,
			category TEXT NOT NULL,
			attendees INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE projects (
			id INTEGER PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			technologies TEXT NOT NULL,
			contributors TEXT NOT NULL,
			demo_url TEXT NOT NULL DEFAULT '',
			github_url TEXT NOT NULL,
			category TEXT NOT NULL
		);

		CREATE TABLE team_members (
			position INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			role TEXT NOT NULL,
			bio TEXT NOT NULL
		);

		CREATE TABLE club_values (
			position INTEGER PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL
		);

		CREATE TABLE features (
			position INTEGER PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL
		);

		CREATE TABLE certifications (
			id INTEGER PRIMARY KEY,
			title TEXT NOT NULL,
			date TEXT NOT NULL,
			event TEXT NOT NULL,
			issued TEXT NOT NULL
		);

		CREATE TABLE benefits (
			position INTEGER PRIMARY KEY,
			text TEXT NOT NULL
		);
	`)
	return err
}

// seed loads the club content in one transaction
func (db *DB) seed() error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range models.SeedEvents() {
		if _, err := tx.Exec(
			"INSERT INTO events (id, title, description, date, time, venue, category, attendees) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			e.ID, e.Title, e.Description, e.Date, e.Time, e.Venue, e.Category, e.Attendees,
		); err != nil {
			return fmt.Errorf("event %d: %w", e.ID, err)
		}
	}

	// technologies and contributors are stored as JSON arrays
	for _, p := range models.SeedProjects() {
		techs, err := json.Marshal(p.Technologies)
		if err != nil {
			return err
		}
		contributors, err := json.Marshal(p.Contributors)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(
			"INSERT INTO projects (id, title, description, technologies, contributors, demo_url, github_url, category) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			p.ID, p.Title, p.Description, string(techs), string(contributors), p.DemoURL, p.GithubURL, p.Category,
		); err != nil {
			return fmt.Errorf("project %d: %w", p.ID, err)
		}
	}

	for i, m := range models.SeedTeam() {
		if _, err := tx.Exec("INSERT INTO team_members (position, name, role, bio) VALUES (?, ?, ?, ?)",
			i, m.Name, m.Role, m.Bio); err != nil {
			return fmt.Errorf("team member %s: %w", m.Name, err)
		}
	}

	for i, v := range models.SeedValues() {
		if _, err := tx.Exec("INSERT INTO club_values (position, title, description) VALUES (?, ?, ?)",
			i, v.Title, v.Description); err != nil {
			return fmt.Errorf("value %s: %w", v.Title, err)
		}
	}

	for i, f := range models.SeedFeatures() {
		if _, err := tx.Exec("INSERT INTO features (position, title, description) VALUES (?, ?, ?)",
			i, f.Title, f.Description); err != nil {
			return fmt.Errorf("feature %s: %w", f.Title, err)
		}
	}

	for _, c := range models.SeedCertifications() {
		if _, err := tx.Exec("INSERT INTO certifications (id, title, date, event, issued) VALUES (?, ?, ?, ?, ?)",
			c.ID, c.Title, c.Date, c.Event, c.Issued); err != nil {
			return fmt.Errorf("certification %d: %w", c.ID, err)
		}
	}

	for i, b := range models.SeedBenefits() {
		if _, err := tx.Exec("INSERT INTO benefits (position, text) VALUES (?, ?)", i, b); err != nil {
			return fmt.Errorf("benefit %d: %w", i, err)
		}
	}

	return tx.Commit()
}
