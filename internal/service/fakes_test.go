package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"tarot-oracle-be/internal/entity"
	"tarot-oracle-be/internal/repository/contract"
	"tarot-oracle-be/internal/repository/specification"
	"tarot-oracle-be/internal/repository/unitofwork"
	"tarot-oracle-be/pkg/events"
	"tarot-oracle-be/pkg/oracle/memory"

	"github.com/google/uuid"
)

// fakeStore is an in-memory stand-in for the chats, messages and stored
// procedures behind the unit of work.
type fakeStore struct {
	mu sync.Mutex

	chats    map[uuid.UUID]*entity.Chat
	messages []*entity.Message

	permissions map[string]entity.ReadingPermissions
	permErr     error
	permCalls   int

	memoryContext map[string]string
	memoryErr     error

	savedEntries []savedEntry
	saveErr      error

	chatErr       error
	failMessageAt map[int]bool
	createdCount  int

	begins, commits, rollbacks int
	txChats                    map[uuid.UUID]*entity.Chat
	txMessages                 int
}

type savedEntry struct {
	UserID         string
	ConversationID string
	Entry          memory.Entry
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		chats:         map[uuid.UUID]*entity.Chat{},
		permissions:   map[string]entity.ReadingPermissions{},
		memoryContext: map[string]string{},
		failMessageAt: map[int]bool{},
	}
}

func (s *fakeStore) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &fakeUnitOfWork{store: s}
}

func (s *fakeStore) messagesFor(chatId uuid.UUID) []*entity.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.Message
	for _, m := range s.messages {
		if m.ChatId == chatId {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *fakeStore) entries() []savedEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]savedEntry(nil), s.savedEntries...)
}

type fakeUnitOfWork struct {
	store *fakeStore
}

func (u *fakeUnitOfWork) Begin(ctx context.Context) error {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	u.store.begins++
	u.store.txChats = make(map[uuid.UUID]*entity.Chat, len(u.store.chats))
	for id, c := range u.store.chats {
		u.store.txChats[id] = c
	}
	u.store.txMessages = len(u.store.messages)
	return nil
}

func (u *fakeUnitOfWork) Commit() error {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	u.store.commits++
	u.store.txChats = nil
	return nil
}

func (u *fakeUnitOfWork) Rollback() error {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	u.store.rollbacks++
	if u.store.txChats != nil {
		u.store.chats = u.store.txChats
		u.store.messages = u.store.messages[:u.store.txMessages]
		u.store.txChats = nil
	}
	return nil
}

func (u *fakeUnitOfWork) ChatRepository() contract.ChatRepository {
	return &fakeChatRepository{store: u.store}
}

func (u *fakeUnitOfWork) MessageRepository() contract.MessageRepository {
	return &fakeMessageRepository{store: u.store}
}

func (u *fakeUnitOfWork) OracleRepository() contract.OracleRepository {
	return &fakeOracleRepository{store: u.store}
}

type fakeChatRepository struct {
	store *fakeStore
}

func (r *fakeChatRepository) Create(ctx context.Context, chat *entity.Chat) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.chatErr != nil {
		return r.store.chatErr
	}
	if _, ok := r.store.chats[chat.Id]; ok {
		return errors.New("duplicate chat")
	}
	c := *chat
	c.CreatedAt = time.Now()
	r.store.chats[chat.Id] = &c
	return nil
}

func (r *fakeChatRepository) UpdateOwner(ctx context.Context, id, userId uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if c, ok := r.store.chats[id]; ok {
		c.UserId = userId
	}
	return nil
}

func (r *fakeChatRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Chat, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, c := range r.store.chats {
		if matchChat(c, specs) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func matchChat(c *entity.Chat, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			if c.Id != s.ID {
				return false
			}
		}
	}
	return true
}

type fakeMessageRepository struct {
	store *fakeStore
}

func (r *fakeMessageRepository) Create(ctx context.Context, msg *entity.Message) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	i := r.store.createdCount
	r.store.createdCount++
	if r.store.failMessageAt[i] {
		return errors.New("insert failed")
	}
	m := *msg
	if m.Id == uuid.Nil {
		m.Id = uuid.New()
	}
	r.store.messages = append(r.store.messages, &m)
	*msg = m
	return nil
}

func (r *fakeMessageRepository) UpdateOwnerByChat(ctx context.Context, chatId, userId uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, m := range r.store.messages {
		if m.ChatId == chatId {
			m.UserId = userId
		}
	}
	return nil
}

func (r *fakeMessageRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Message, error) {
	all, _ := r.FindAll(ctx, specs...)
	if len(all) == 0 {
		return nil, nil
	}
	return all[0], nil
}

func (r *fakeMessageRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.Message
	for _, m := range r.store.messages {
		if matchMessage(m, specs) {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func matchMessage(m *entity.Message, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			if m.Id != s.ID {
				return false
			}
		case specification.ByChatID:
			if m.ChatId != s.ChatID {
				return false
			}
		}
	}
	return true
}

type fakeOracleRepository struct {
	store *fakeStore
}

func (r *fakeOracleRepository) GetReadingPermissions(ctx context.Context, userID string) (entity.ReadingPermissions, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.permCalls++
	if r.store.permErr != nil {
		return entity.ReadingPermissions{}, r.store.permErr
	}
	return r.store.permissions[userID], nil
}

func (r *fakeOracleRepository) GetMemoryContext(ctx context.Context, userID string) (string, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.memoryErr != nil {
		return "", r.store.memoryErr
	}
	return r.store.memoryContext[userID], nil
}

func (r *fakeOracleRepository) SaveMemoryEntry(ctx context.Context, userID, conversationID string, entry memory.Entry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.saveErr != nil {
		return r.store.saveErr
	}
	r.store.savedEntries = append(r.store.savedEntries, savedEntry{UserID: userID, ConversationID: conversationID, Entry: entry})
	return nil
}

// recordingPublisher captures domain events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, evt events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return p.err
}

func (p *recordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

// recordingQueue captures memory jobs instead of queueing them.
type recordingQueue struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (q *recordingQueue) Publish(ctx context.Context, payload []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.payloads = append(q.payloads, payload)
	return nil
}

func (q *recordingQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.payloads)
}
