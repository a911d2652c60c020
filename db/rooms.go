package db

import (
	"database/sql"
	"errors"
	"time"
)

type Room struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Topic      string    `json:"topic"`
	BotEnabled bool      `json:"botEnabled"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (db *DB) CreateRoom(name, topic string, botEnabled bool) (*Room, error) {
	now := db.now()
	res, err := db.Exec(`
		INSERT INTO rooms (name, topic, bot_enabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, name, topic, botEnabled, now, now)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &Room{ID: id, Name: name, Topic: topic, BotEnabled: botEnabled, CreatedAt: now, UpdatedAt: now}, nil
}

func (db *DB) GetRoom(id int64) (*Room, error) {
	r := &Room{}
	err := db.QueryRow(`
		SELECT id, name, topic, bot_enabled, created_at, updated_at
		FROM rooms WHERE id = ?
	`, id).Scan(&r.ID, &r.Name, &r.Topic, &r.BotEnabled, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (db *DB) UpdateRoom(id int64, name, topic string, botEnabled bool) (*Room, error) {
	res, err := db.Exec(`
		UPDATE rooms SET name = ?, topic = ?, bot_enabled = ?, updated_at = ?
		WHERE id = ?
	`, name, topic, botEnabled, db.now(), id)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return db.GetRoom(id)
}

func (db *DB) DeleteRoom(id int64) error {
	_, err := db.Exec("DELETE FROM rooms WHERE id = ?", id)
	return err
}

func (db *DB) ListRooms() ([]Room, error) {
	rows, err := db.Query(`
		SELECT id, name, topic, bot_enabled, created_at, updated_at
		FROM rooms ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []Room
	for rows.Next() {
		var r Room
		if err := rows.Scan(&r.ID, &r.Name, &r.Topic, &r.BotEnabled, &r.CreatedAt, &r.UpdatedAt); err != nil {
			continue
		}
		rooms = append(rooms, r)
	}
	return rooms, rows.Err()
}
