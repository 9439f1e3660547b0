package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"map-assistant/internal/config"
	"map-assistant/internal/model"
	"map-assistant/internal/normalize"
	"map-assistant/internal/storage"
	"map-assistant/pkg/logger"

	"github.com/google/uuid"
)

const WelcomeMessage = "Xin chào! Tôi là trợ lý du lịch AI của bạn. 🌟\n\n" +
	"**✨ Phase 1 Features:**\n" +
	"- 🌐 **Đa ngôn ngữ** - Hỗ trợ Tiếng Việt & English\n" +
	"- 🗺️ **Maps & Chỉ đường** - Google Maps tích hợp\n" +
	"- ⏰ **Giờ mở cửa** - Kiểm tra trạng thái real-time\n" +
	"- 💰 **Ước tính chi phí** - Lọc theo ngân sách\n\n" +
	"**Tôi có thể giúp bạn:**\n" +
	"- 🔍 Tìm kiếm địa điểm (với giá, giờ mở cửa)\n" +
	"- 📍 Tìm địa điểm gần đây (có chỉ đường)\n" +
	"- 🎯 Gợi ý địa điểm (theo ngân sách)\n" +
	"- 📊 So sánh địa điểm (so sánh giá)\n" +
	"- 🗺️ Lên lịch trình (với tổng chi phí)\n" +
	"- 💡 Chat tự nhiên bằng Tiếng Việt hoặc English\n\n" +
	"**Ví dụ:**\n" +
	"- \"Tìm quán cafe gần Hồ Gươm\"\n" +
	"- \"Find restaurants near Hoan Kiem Lake\" (English)\n" +
	"- \"Lập lịch trình 1 ngày Old Quarter với ngân sách 500k\"\n" +
	"- \"So sánh giá giữa các nhà hàng\"\n\n" +
	"Bạn muốn khám phá điều gì ở Hà Nội? 🏮"

// Transport sends one query to the backend.
type Transport interface {
	Chat(ctx context.Context, message string) (*model.Envelope, error)
}

// ChatSession is the conversation controller. It is Idle or Pending; Submit
// is the only way to move to Pending and the dispatched call is the only
// way back.
type ChatSession struct {
	ctx        context.Context
	storage    storage.Storage
	transport  Transport
	backendURL string

	mu      sync.Mutex // guards busy, closed and subs
	idle    *sync.Cond
	busy    bool
	closed  bool
	subs    map[int]chan model.Event
	nextSub int
	subBuf  int

	now   func() time.Time
	newID func() string
}

type Option func(*ChatSession)

func WithClock(now func() time.Time) Option {
	return func(s *ChatSession) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *ChatSession) { s.newID = newID }
}

// WithBackendURL sets the address quoted in connection diagnostics.
func WithBackendURL(url string) Option {
	return func(s *ChatSession) { s.backendURL = url }
}

func WithSubscriberBuffer(n int) Option {
	return func(s *ChatSession) {
		if n > 0 {
			s.subBuf = n
		}
	}
}

// NewChatSession creates an Idle session whose log holds the welcome turn.
// ctx bounds every backend call made by the session.
func NewChatSession(ctx context.Context, transport Transport, store storage.Storage, opts ...Option) (*ChatSession, error) {
	s := &ChatSession{
		ctx:        ctx,
		storage:    store,
		transport:  transport,
		backendURL: config.DefaultBackendURL,
		subs:       make(map[int]chan model.Event),
		subBuf:     16,
		now:        time.Now,
		newID:      uuid.NewString,
	}
	s.idle = sync.NewCond(&s.mu)
	for _, opt := range opts {
		opt(s)
	}

	if err := s.storage.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	welcome := model.Turn{
		ID:        s.newID(),
		Role:      model.RoleAssistant,
		Content:   WelcomeMessage,
		CreatedAt: s.now(),
	}
	if err := s.storage.AppendTurn(welcome); err != nil {
		return nil, fmt.Errorf("failed to seed welcome turn: %w", err)
	}

	return s, nil
}

// Submit appends a user turn for text and sends it to the backend in the
// background. Empty text, a call while a request is in flight or a call on a
// closed session is ignored and reported as false.
func (s *ChatSession) Submit(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	if s.busy {
		s.mu.Unlock()
		logger.Debugf("submission dropped, request in flight")
		return false
	}
	s.busy = true
	s.mu.Unlock()

	s.append(model.Turn{
		ID:        s.newID(),
		Role:      model.RoleUser,
		Content:   text,
		CreatedAt: s.now(),
	})
	s.publishState()

	go s.dispatch(text)
	return true
}

func (s *ChatSession) dispatch(text string) {
	defer s.settle()

	s.append(s.reply(text))
}

// settle returns the session to Idle, announces it and wakes Wait callers.
func (s *ChatSession) settle() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.busy = false
	s.broadcast(model.Event{State: &model.SessionState{TurnCount: s.storage.Len()}})
	s.idle.Broadcast()
}

// reply builds the assistant turn for text. It never fails: transport
// errors become a diagnostic turn.
func (s *ChatSession) reply(text string) model.Turn {
	turn := model.Turn{
		ID:   s.newID(),
		Role: model.RoleAssistant,
	}

	started := time.Now()
	env, err := s.call(text)
	if err != nil {
		logger.WithFields(logger.Fields{
			"elapsed": time.Since(started),
		}).Errorf("chat request failed: %v", err)

		turn.Content = Diagnostic(err, s.backendURL)
		turn.CreatedAt = s.now()
		return turn
	}

	turn.Content = normalize.Normalize(env)
	if env.Intent != nil {
		turn.Intent = *env.Intent
	}
	turn.Confidence = env.Confidence
	turn.CreatedAt = s.now()

	logger.WithFields(logger.Fields{
		"intent":  turn.Intent,
		"elapsed": time.Since(started),
	}).Infof("chat request settled")
	return turn
}

func (s *ChatSession) call(text string) (env *model.Envelope, err error) {
	defer func() {
		if r := recover(); r != nil {
			env, err = nil, fmt.Errorf("transport panic: %v", r)
		}
	}()

	env, err = s.transport.Chat(s.ctx, text)
	if err == nil && env == nil {
		err = fmt.Errorf("empty response from backend")
	}
	return env, err
}

// Diagnostic is the content of the turn shown when a backend call fails.
func Diagnostic(err error, backendURL string) string {
	return fmt.Sprintf("❌ Lỗi kết nối: %s\n\n"+
		"Vui lòng kiểm tra:\n"+
		"- Server đang chạy ở %s\n"+
		"- Các service (Neo4j, Qdrant, Embedding) đang hoạt động", err.Error(), backendURL)
}

func (s *ChatSession) append(turn model.Turn) {
	if err := s.storage.AppendTurn(turn); err != nil {
		logger.Errorf("failed to append %s turn: %v", turn.Role, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcast(model.Event{Turn: &turn})
}

func (s *ChatSession) publishState() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcast(model.Event{State: &model.SessionState{Busy: s.busy, TurnCount: s.storage.Len()}})
}

// broadcast must be called with mu held.
func (s *ChatSession) broadcast(ev model.Event) {
	for id, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			logger.Warnf("subscriber %d is full, event dropped", id)
		}
	}
}

// Subscribe returns a channel receiving every turn appended and every state
// change from now on, and a function that closes it. A subscriber that falls
// behind loses events.
func (s *ChatSession) Subscribe() (<-chan model.Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan model.Event, s.subBuf)
	s.subs[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(ch)
		}
	}
}

// Turns returns a copy of the log.
func (s *ChatSession) Turns() []model.Turn {
	return s.storage.Turns()
}

func (s *ChatSession) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

func (s *ChatSession) State() model.SessionState {
	return model.SessionState{
		Busy:      s.Busy(),
		TurnCount: s.storage.Len(),
	}
}

// Wait blocks until the request in flight, if any, has settled.
func (s *ChatSession) Wait() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.busy {
		s.idle.Wait()
	}
}

// Close rejects further submissions, waits for the request in flight and
// closes every subscription.
func (s *ChatSession) Close() error {
	s.mu.Lock()
	s.closed = true
	for s.busy {
		s.idle.Wait()
	}
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	s.mu.Unlock()

	return s.storage.Close()
}
