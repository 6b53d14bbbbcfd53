package database

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/gmucodingclub/clubbot/models"
)

// eventColumns is the column order every event query scans in
const eventColumns = "id, title, description, date, time, venue, category, attendees"

// ListEvents returns events in date order. An empty category or models.AllCategories returns every event.
func (db *DB) ListEvents(category string) ([]models.Event, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if category == "" || category == models.AllCategories {
		rows, err = db.conn.Query("SELECT " + eventColumns + " FROM events ORDER BY date, id")
	} else {
		rows, err = db.conn.Query("SELECT "+eventColumns+" FROM events WHERE category = ? COLLATE NOCASE ORDER BY date, id", category)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.Date, &e.Time, &e.Venue, &e.Category, &e.Attendees); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// UpcomingEvents returns the first limit events in date order
func (db *DB) UpcomingEvents(limit int) ([]models.Event, error) {
	events, err := db.ListEvents("")
	if err != nil {
		return nil, err
	}
	if limit >= 0 && limit < len(events) {
		events = events[:limit]
	}
	return events, nil
}

// GetEvent returns the event with the given ID, or sql.ErrNoRows
func (db *DB) GetEvent(id int) (models.Event, error) {
	var e models.Event
	err := db.conn.QueryRow("SELECT "+eventColumns+" FROM events WHERE id = ?", id).
		Scan(&e.ID, &e.Title, &e.Description, &e.Date, &e.Time, &e.Venue, &e.Category, &e.Attendees)
	return e, err
}

// AddEvent validates e and adds it with no attendees. It lives until the catalog is closed.
func (db *DB) AddEvent(e models.Event) (models.Event, error) {
	if err := e.Validate(); err != nil {
		return models.Event{}, err
	}
	e.Attendees = 0
	res, err := db.conn.Exec(
		"INSERT INTO events (title, description, date, time, venue, category, attendees) VALUES (?, ?, ?, ?, ?, ?, 0)",
		e.Title, e.Description, e.Date, e.Time, e.Venue, e.Category,
	)
	if err != nil {
		return models.Event{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Event{}, err
	}
	e.ID = int(id)
	return e, nil
}

// ListProjects returns projects by ID. An empty category or models.AllCategories returns every project.
func (db *DB) ListProjects(category string) ([]models.Project, error) {
	const cols = "id, title, description, technologies, contributors, demo_url, github_url, category"
	var (
		rows *sql.Rows
		err  error
	)
	if category == "" || category == models.AllCategories {
		rows, err = db.conn.Query("SELECT " + cols + " FROM projects ORDER BY id")
	} else {
		rows, err = db.conn.Query("SELECT "+cols+" FROM projects WHERE category = ? COLLATE NOCASE ORDER BY id", category)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		var (
			p                   models.Project
			techs, contributors string
		)
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &techs, &contributors, &p.DemoURL, &p.GithubURL, &p.Category); err != nil {
			return nil, err
		}
		// decode the JSON arrays written by seed
		if err := json.Unmarshal([]byte(techs), &p.Technologies); err != nil {
			return nil, fmt.Errorf("project %d technologies: %w", p.ID, err)
		}
		if err := json.Unmarshal([]byte(contributors), &p.Contributors); err != nil {
			return nil, fmt.Errorf("project %d contributors: %w", p.ID, err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// ProjectCategories returns "All" followed by each project category in first-seen order
func (db *DB) ProjectCategories() ([]string, error) {
	rows, err := db.conn.Query("SELECT category FROM projects GROUP BY category ORDER BY MIN(id)")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []string{models.AllCategories}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// Team returns the club officers in display order
func (db *DB) Team() ([]models.TeamMember, error) {
	rows, err := db.conn.Query("SELECT name, role, bio FROM team_members ORDER BY position")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var team []models.TeamMember
	for rows.Next() {
		var m models.TeamMember
		if err := rows.Scan(&m.Name, &m.Role, &m.Bio); err != nil {
			return nil, err
		}
		team = append(team, m)
	}
	return team, rows.Err()
}

// Values returns the club values in display order
func (db *DB) Values() ([]models.Value, error) {
	rows, err := db.conn.Query("SELECT title, description FROM club_values ORDER BY position")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []models.Value
	for rows.Next() {
		var v models.Value
		if err := rows.Scan(&v.Title, &v.Description); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// Features returns the home page highlights
func (db *DB) Features() ([]models.Feature, error) {
	rows, err := db.conn.Query("SELECT title, description FROM features ORDER BY position")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var features []models.Feature
	for rows.Next() {
		var f models.Feature
		if err := rows.Scan(&f.Title, &f.Description); err != nil {
			return nil, err
		}
		features = append(features, f)
	}
	return features, rows.Err()
}

// Certifications returns issued certificate batches by ID
func (db *DB) Certifications() ([]models.Certification, error) {
	rows, err := db.conn.Query("SELECT id, title, date, event, issued FROM certifications ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var certs []models.Certification
	for rows.Next() {
		var c models.Certification
		if err := rows.Scan(&c.ID, &c.Title, &c.Date, &c.Event, &c.Issued); err != nil {
			return nil, err
		}
		certs = append(certs, c)
	}
	return certs, rows.Err()
}

// Benefits returns the membership benefits
func (db *DB) Benefits() ([]string, error) {
	rows, err := db.conn.Query("SELECT text FROM benefits ORDER BY position")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var benefits []string
	for rows.Next() {
		var b string
		if err := rows.Scan(&b); err != nil {
			return nil, err
		}
		benefits = append(benefits, b)
	}
	return benefits, rows.Err()
}
