package db

import (
	"database/sql"
	"errors"
	"time"
)

type Message struct {
	ID         int64     `json:"id"`
	ConvKey    string    `json:"-"`
	Content    string    `json:"content"`
	SenderID   int64     `json:"senderId"`
	ReceiverID *int64    `json:"receiverId,omitempty"`
	RoomID     *int64    `json:"roomId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (db *DB) InsertMessage(convKey, content string, senderID int64, receiverID, roomID *int64) (*Message, error) {
	now := db.now()
	res, err := db.Exec(`
		INSERT INTO messages (conv_key, content, sender_id, receiver_id, room_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, convKey, content, senderID, receiverID, roomID, now)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	if roomID != nil {
		db.Exec("UPDATE rooms SET updated_at = ? WHERE id = ?", now, *roomID)
	}

	return &Message{
		ID:         id,
		ConvKey:    convKey,
		Content:    content,
		SenderID:   senderID,
		ReceiverID: receiverID,
		RoomID:     roomID,
		CreatedAt:  now,
	}, nil
}

// RecentFrom returns the most recent message sent by senderID within the
// conversation no older than since, or nil if there is none.
func (db *DB) RecentFrom(convKey string, senderID int64, since time.Time) (*Message, error) {
	m := &Message{}
	err := db.QueryRow(`
		SELECT id, conv_key, content, sender_id, receiver_id, room_id, created_at
		FROM messages
		WHERE conv_key = ? AND sender_id = ? AND created_at >= ?
		ORDER BY created_at DESC, id DESC LIMIT 1
	`, convKey, senderID, since).Scan(&m.ID, &m.ConvKey, &m.Content, &m.SenderID, &m.ReceiverID, &m.RoomID, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}

// Recent returns up to limit messages of a conversation, most recent first.
// Callers reverse for chronological order.
func (db *DB) Recent(convKey string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 50
	} else if limit > 100 {
		limit = 100
	}

	rows, err := db.Query(`
		SELECT id, conv_key, content, sender_id, receiver_id, room_id, created_at
		FROM messages WHERE conv_key = ?
		ORDER BY created_at DESC, id DESC LIMIT ?
	`, convKey, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ConvKey, &m.Content, &m.SenderID, &m.ReceiverID, &m.RoomID, &m.CreatedAt); err != nil {
			continue
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// CountMessages reports how many messages a conversation holds.
func (db *DB) CountMessages(convKey string) (int64, error) {
	var n int64
	err := db.QueryRow("SELECT COUNT(*) FROM messages WHERE conv_key = ?", convKey).Scan(&n)
	return n, err
}
