// Package chattest provides an in-memory chat.Platform for tests.
package chattest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/light-bringer/chatsync-service/internal/chat"
)

// Platform is a scripted transcript store.
type Platform struct {
	mu        sync.Mutex
	chats     map[string]*chat.Chat
	messages  map[string][]chat.Message
	media     map[string]*chat.Media
	failMedia map[string]error

	FetchCalls    int
	DownloadCalls int
}

// NewPlatform creates an empty Platform.
func NewPlatform() *Platform {
	return &Platform{
		chats:     make(map[string]*chat.Chat),
		messages:  make(map[string][]chat.Message),
		media:     make(map[string]*chat.Media),
		failMedia: make(map[string]error),
	}
}

// AddChat registers a chat.
func (p *Platform) AddChat(id, name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.chats[id] = &chat.Chat{ID: id, Name: name, IsGroup: true}
}

// Transcript builds messages for a chat with increasing timestamps.
type Transcript struct {
	p      *Platform
	chatID string
	next   time.Time
	seq    int
	frozen bool
}

// Chat starts appending messages to chatID, registering the chat if needed.
func (p *Platform) Chat(chatID string) *Transcript {
	p.mu.Lock()
	if _, ok := p.chats[chatID]; !ok {
		p.chats[chatID] = &chat.Chat{ID: chatID, Name: chatID, IsGroup: true}
	}
	n := len(p.messages[chatID])
	p.mu.Unlock()
	return &Transcript{
		p:      p,
		chatID: chatID,
		next:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(n) * time.Minute),
		seq:    n,
	}
}

// Freeze makes the following messages share the current timestamp until
// Resume is called.
func (t *Transcript) Freeze() *Transcript {
	t.frozen = true
	return t
}

// Resume restores one minute between messages.
func (t *Transcript) Resume() *Transcript {
	if t.frozen {
		t.frozen = false
		if !t.frozen {
		t.next = t.next.Add(time.Minute)
	}
	}
	return t
}

// Text appends a text message and returns its id.
func (t *Transcript) Text(body string) string {
	return t.add(chat.TypeText, body, nil)
}

// Image appends an image message carrying data and returns its id.
func (t *Transcript) Image(data string) string {
	return t.add(chat.TypeImage, "", &chat.Media{MimeType: "image/jpeg", Data: data})
}

// ExpiredImage appends an image message whose media is no longer downloadable.
func (t *Transcript) ExpiredImage() string {
	return t.add(chat.TypeImage, "", nil)
}

func (t *Transcript) add(typ chat.MessageType, body string, media *chat.Media) string {
	t.seq++
	id := fmt.Sprintf("%s-m%03d", t.chatID, t.seq)
	msg := chat.Message{
		ID:        id,
		ChatID:    t.chatID,
		Timestamp: t.next,
		Seq:       int64(t.seq),
		Type:      typ,
		Body:      body,
		HasMedia:  typ == chat.TypeImage,
	}
	t.next = t.next.Add(time.Minute)

	t.p.mu.Lock()
	defer t.p.mu.Unlock()
	t.p.messages[t.chatID] = append(t.p.messages[t.chatID], msg)
	if media != nil {
		t.p.media[id] = media
	}
	return id
}

// FailDownload makes DownloadMedia of messageID return err.
func (p *Platform) FailDownload(messageID string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failMedia[messageID] = err
}

// GetChat implements chat.Platform.
func (p *Platform) GetChat(_ context.Context, chatID string) (*chat.Chat, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.chats[chatID]
	if !ok {
		return nil, chat.ErrChatNotFound
	}
	cp := *c
	return &cp, nil
}

// FetchMessages implements chat.Platform. Messages are returned newest first.
func (p *Platform) FetchMessages(_ context.Context, chatID string, limit int) ([]chat.Message, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.FetchCalls++

	all := p.messages[chatID]
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	out := make([]chat.Message, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

// DownloadMedia implements chat.Platform.
func (p *Platform) DownloadMedia(_ context.Context, msg chat.Message) (*chat.Media, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.DownloadCalls++

	if err, ok := p.failMedia[msg.ID]; ok {
		return nil, err
	}
	m, ok := p.media[msg.ID]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}
