package relay

import (
	"encoding/json"
	"log/slog"

	"github.com/parleychat/parley-server/db"
	"github.com/parleychat/parley-server/ws"
)

// Mode selects the authoritative addressing scheme for a deployment:
// one-to-one messages or room broadcasts.
type Mode string

const (
	ModeDirect Mode = "direct"
	ModeRoom   Mode = "room"
)

// TokenVerifier resolves an identity token to a principal id.
type TokenVerifier interface {
	Verify(token string) (int64, error)
}

// Store is the slice of the message store the dispatcher consumes.
type Store interface {
	InsertMessage(convKey, content string, senderID int64, receiverID, roomID *int64) (*db.Message, error)
	GetUser(id int64) (*db.User, error)
	GetRoom(id int64) (*db.Room, error)
}

// Registry is the live-connection registry the dispatcher fans out through.
type Registry interface {
	Associate(c *ws.Client, roomID int64)
	Broadcast(pred func(*ws.Client) bool, payload []byte)
}

// Notice describes a successfully dispatched message, handed to the reply
// scheduler. Exchange is the post-increment conversation count.
type Notice struct {
	ConvKey    string
	SenderID   int64
	ReceiverID int64
	RoomID     int64
	Content    string
	Exchange   int64
	BotEnabled bool
}

// Listener is notified after each dispatched message.
type Listener interface {
	MessageDispatched(n Notice)
}

// Dispatcher validates an inbound frame, persists it, fans it out to the
// registry-selected connections and notifies the reply scheduler. Every
// failure degrades to drop-and-log; nothing is reported back on the socket.
type Dispatcher struct {
	Mode     Mode
	Store    Store
	Verifier TokenVerifier
	Registry Registry
	Counter  *Counter
	Listener Listener
}

func NewDispatcher(mode Mode, store Store, verifier TokenVerifier, registry Registry) *Dispatcher {
	return &Dispatcher{
		Mode:     mode,
		Store:    store,
		Verifier: verifier,
		Registry: registry,
		Counter:  NewCounter(),
	}
}

// HandleInbound processes one raw frame from a connection. Blocking calls
// in here suspend only this frame; other connections keep flowing.
func (d *Dispatcher) HandleInbound(raw []byte, c *ws.Client) {
	var frame ws.InboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		slog.Debug("malformed frame dropped", "client", c.ID(), "err", err)
		return
	}
	if frame.Content == "" {
		slog.Debug("empty content dropped", "client", c.ID())
		return
	}

	switch d.Mode {
	case ModeRoom:
		if frame.RoomID == 0 {
			slog.Debug("room frame missing roomId dropped", "client", c.ID())
			return
		}
	default:
		if frame.ReceiverID == 0 {
			slog.Debug("direct frame missing receiverId dropped", "client", c.ID())
			return
		}
	}

	senderID, err := d.Verifier.Verify(frame.Token)
	if err != nil {
		slog.Warn("token rejected, frame dropped", "client", c.ID(), "err", err)
		return
	}

	var (
		convKey    string
		receiverID *int64
		roomID     *int64
		botEnabled bool
	)
	if d.Mode == ModeRoom {
		room, err := d.Store.GetRoom(frame.RoomID)
		if err != nil {
			slog.Error("room lookup failed, frame dropped", "roomId", frame.RoomID, "err", err)
			return
		}
		if room == nil {
			slog.Warn("unknown room, frame dropped", "roomId", frame.RoomID, "sender", senderID)
			return
		}
		convKey = RoomKey(frame.RoomID)
		roomID = &frame.RoomID
		botEnabled = room.BotEnabled
	} else {
		convKey = ConversationKey(senderID, frame.ReceiverID)
		receiverID = &frame.ReceiverID
	}

	// At-most-once persistence attempt per inbound frame.
	msg, err := d.Store.InsertMessage(convKey, frame.Content, senderID, receiverID, roomID)
	if err != nil {
		slog.Error("persist failed, frame dropped", "convKey", convKey, "sender", senderID, "err", err)
		return
	}

	if roomID != nil {
		d.Registry.Associate(c, *roomID)
	}

	sender, _ := d.Store.GetUser(senderID)
	var receiver *db.User
	if receiverID != nil {
		receiver, _ = d.Store.GetUser(*receiverID)
	}
	d.Deliver(msg, sender, receiver)

	exchange := d.Counter.Inc(convKey)
	if d.Listener != nil {
		n := Notice{
			ConvKey:    convKey,
			SenderID:   senderID,
			ReceiverID: frame.ReceiverID,
			RoomID:     frame.RoomID,
			Content:    frame.Content,
			Exchange:   exchange,
			BotEnabled: botEnabled,
		}
		go d.Listener.MessageDispatched(n)
	}
}

// Deliver builds the outbound view of a persisted message and fans it out.
// Direct mode delivers to every registered connection (the relay is a
// public fan-out in direct mode); room mode delivers to the connections
// associated with the room.
func (d *Dispatcher) Deliver(m *db.Message, sender, receiver *db.User) {
	out := ws.OutboundFrame{
		ID:        m.ID,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
		Sender:    partyFor(m.SenderID, sender),
	}
	if m.RoomID != nil {
		out.RoomID = *m.RoomID
	}
	if m.ReceiverID != nil {
		p := partyFor(*m.ReceiverID, receiver)
		out.Receiver = &p
	}

	payload, err := json.Marshal(out)
	if err != nil {
		slog.Error("marshal outbound frame", "err", err)
		return
	}

	if m.RoomID != nil {
		roomID := *m.RoomID
		d.Registry.Broadcast(func(c *ws.Client) bool { return c.Room() == roomID }, payload)
	} else {
		d.Registry.Broadcast(nil, payload)
	}
}

func partyFor(id int64, u *db.User) ws.Party {
	p := ws.Party{ID: id}
	if u != nil {
		p.Name = u.Name
	}
	return p
}
