package ws

import "time"

// InboundFrame is what a client sends over the socket.
type InboundFrame struct {
	Token      string `json:"token"`
	Content    string `json:"content"`
	ReceiverID int64  `json:"receiverId,omitempty"`
	RoomID     int64  `json:"roomId,omitempty"`
}

// Party identifies a message participant in an outbound frame.
type Party struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// OutboundFrame is the view delivered to connections. Receiver is null for
// room broadcasts with no direct receiver.
type OutboundFrame struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	RoomID    int64     `json:"roomId,omitempty"`
	Sender    Party     `json:"sender"`
	Receiver  *Party    `json:"receiver"`
}
