// Package bot schedules the synthetic-participant replies: a delayed
// peer-silence auto-reply in direct mode and a periodic observer comment
// in room and pair conversations.
package bot

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/parleychat/parley-server/db"
	"github.com/parleychat/parley-server/relay"
)

const (
	fallbackReply   = "Sorry, I lost my train of thought for a second. What were you saying?"
	fallbackComment = "Interesting exchange so far. Carry on!"
)

const silencePromptSuffix = ", a participant in a one-on-one chat. Your chat partner sent you a message and you have not replied yet. Write a short, natural reply in the first person. Respond with the reply text only."

const observerPrompt = "You are a thoughtful observer following a conversation. Given the transcript, add one short comment that moves the conversation along. Respond with the comment text only."

// Generator produces a reply from the external text-generation service.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userContent string) (string, error)
}

// Store is the slice of the message store the scheduler consumes.
type Store interface {
	InsertMessage(convKey, content string, senderID int64, receiverID, roomID *int64) (*db.Message, error)
	Recent(convKey string, limit int) ([]db.Message, error)
	RecentFrom(convKey string, senderID int64, since time.Time) (*db.Message, error)
	GetUser(id int64) (*db.User, error)
}

// Deliverer fans a persisted message out to live connections.
type Deliverer interface {
	Deliver(m *db.Message, sender, receiver *db.User)
}

type Config struct {
	Mode             relay.Mode
	SilenceDelay     time.Duration // peer-silence window
	ObserverDelay    time.Duration // delay before an observer comment fires
	PairPeriod       int64         // observer every Nth exchange in pair mode
	RoomPeriod       int64         // observer every Nth exchange in room mode
	ContextWindow    int           // messages handed to the observer
	GeneratorTimeout time.Duration
	BotUserID        int64 // synthetic identity; 0 disables the observer
}

// Scheduler arms one-shot delayed tasks per dispatched message. Tasks fire
// asynchronously, re-check their conditions at fire time and call the
// external generator with a bounded timeout. A generator failure degrades
// to a fixed fallback text, never a lost task.
type Scheduler struct {
	cfg     Config
	store   Store
	gen     Generator
	deliver Deliverer
}

func NewScheduler(cfg Config, store Store, gen Generator, deliver Deliverer) *Scheduler {
	if cfg.ContextWindow <= 0 {
		cfg.ContextWindow = 6
	}
	if cfg.GeneratorTimeout <= 0 {
		cfg.GeneratorTimeout = 15 * time.Second
	}
	return &Scheduler{cfg: cfg, store: store, gen: gen, deliver: deliver}
}

// MessageDispatched implements relay.Listener. Exchange carries the
// post-increment conversation count; because increments are linearized per
// key, the periodicity check below fires exactly once per true multiple.
func (s *Scheduler) MessageDispatched(n relay.Notice) {
	switch s.cfg.Mode {
	case relay.ModeRoom:
		if n.BotEnabled && s.cfg.RoomPeriod > 0 && n.Exchange%s.cfg.RoomPeriod == 0 {
			time.AfterFunc(s.cfg.ObserverDelay, func() { s.runObserver(n) })
		}
	default:
		time.AfterFunc(s.cfg.SilenceDelay, func() { s.runSilenceCheck(n) })
		if s.cfg.PairPeriod > 0 && n.Exchange%s.cfg.PairPeriod == 0 {
			time.AfterFunc(s.cfg.ObserverDelay, func() { s.runObserver(n) })
		}
	}
}

// runSilenceCheck fires once per direct message: if the receiver has not
// replied within the window, speak a generated reply on their behalf.
func (s *Scheduler) runSilenceCheck(n relay.Notice) {
	since := time.Now().UTC().Add(-s.cfg.SilenceDelay)
	prior, err := s.store.RecentFrom(n.ConvKey, n.ReceiverID, since)
	if err != nil {
		slog.Error("silence check: store query failed", "convKey", n.ConvKey, "err", err)
		return
	}
	if prior != nil {
		slog.Debug("auto-reply suppressed, peer already replied", "convKey", n.ConvKey, "receiver", n.ReceiverID)
		return
	}

	receiver, err := s.store.GetUser(n.ReceiverID)
	if err != nil {
		slog.Error("silence check: user lookup failed", "receiver", n.ReceiverID, "err", err)
		return
	}
	if receiver == nil {
		slog.Warn("auto-reply skipped, unknown receiver", "receiver", n.ReceiverID)
		return
	}

	text, fellBack := s.generate("You are "+receiver.Name+silencePromptSuffix, n.Content, fallbackReply)

	msg, err := s.store.InsertMessage(n.ConvKey, text, n.ReceiverID, &n.SenderID, nil)
	if err != nil {
		slog.Error("auto-reply persist failed, reply discarded", "convKey", n.ConvKey, "err", err)
		return
	}

	sender, _ := s.store.GetUser(n.SenderID)
	s.deliver.Deliver(msg, receiver, sender)
	slog.Info("auto-reply delivered", "convKey", n.ConvKey, "speaker", receiver.ID, "fallback", fellBack)
}

// runObserver injects a comment from the synthetic identity based on the
// recent transcript. No suppression: once the periodicity condition held,
// the task always runs.
func (s *Scheduler) runObserver(n relay.Notice) {
	if s.cfg.BotUserID == 0 {
		slog.Warn("observer skipped, no synthetic identity configured", "convKey", n.ConvKey)
		return
	}
	bot, err := s.store.GetUser(s.cfg.BotUserID)
	if err != nil {
		slog.Error("observer: user lookup failed", "botUserId", s.cfg.BotUserID, "err", err)
		return
	}
	if bot == nil {
		slog.Warn("observer skipped, synthetic identity not found", "botUserId", s.cfg.BotUserID)
		return
	}

	recent, err := s.store.Recent(n.ConvKey, s.cfg.ContextWindow)
	if err != nil {
		slog.Error("observer: history fetch failed", "convKey", n.ConvKey, "err", err)
		return
	}
	transcript := s.renderTranscript(recent)

	text, fellBack := s.generate(observerPrompt, transcript, fallbackComment)

	var (
		receiverID *int64
		roomID     *int64
	)
	if n.RoomID != 0 {
		roomID = &n.RoomID
	} else {
		receiverID = &n.SenderID
	}
	msg, err := s.store.InsertMessage(n.ConvKey, text, s.cfg.BotUserID, receiverID, roomID)
	if err != nil {
		slog.Error("observer persist failed, comment discarded", "convKey", n.ConvKey, "err", err)
		return
	}

	var receiver *db.User
	if receiverID != nil {
		receiver, _ = s.store.GetUser(*receiverID)
	}
	s.deliver.Deliver(msg, bot, receiver)
	slog.Info("observer comment delivered", "convKey", n.ConvKey, "exchange", n.Exchange, "fallback", fellBack)
}

// renderTranscript turns most-recent-first history into a speaker-labeled
// chronological transcript.
func (s *Scheduler) renderTranscript(recent []db.Message) string {
	msgs := lo.Reverse(recent)

	names := make(map[int64]string)
	speaker := func(id int64) string {
		if name, ok := names[id]; ok {
			return name
		}
		name := "User " + strconv.FormatInt(id, 10)
		if u, err := s.store.GetUser(id); err == nil && u != nil {
			name = u.Name
		}
		names[id] = name
		return name
	}

	lines := lo.Map(msgs, func(m db.Message, _ int) string {
		return speaker(m.SenderID) + ": " + m.Content
	})
	return strings.Join(lines, "\n")
}

// generate calls the external generator with a bounded timeout. Failure or
// timeout yields the fallback text; the second return reports which one.
func (s *Scheduler) generate(systemPrompt, userContent, fallback string) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.GeneratorTimeout)
	defer cancel()

	text, err := s.gen.Generate(ctx, systemPrompt, userContent)
	if err != nil {
		slog.Warn("generator failed, using fallback", "err", err)
		return fallback, true
	}
	return text, false
}
