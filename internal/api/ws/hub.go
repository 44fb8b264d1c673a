package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/supervisor/internal/domain/supervisor"
	"github.com/GriffinCanCode/AgentOS/supervisor/internal/infrastructure/monitoring"
)

// DefaultBuffer is the number of frames queued per subscriber before events
// are dropped for it.
const DefaultBuffer = 64

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub fans lifecycle events out to websocket subscribers. It implements
// supervisor.EventSink: Publish never blocks, a subscriber whose buffer is
// full misses the event.
type Hub struct {
	mu      sync.RWMutex
	subs    map[string]chan []byte
	buffer  int
	metrics *monitoring.Metrics
	logger  *zap.Logger
}

// NewHub creates a hub. metrics may be nil.
func NewHub(buffer int, metrics *monitoring.Metrics, logger *zap.Logger) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		subs:    make(map[string]chan []byte),
		buffer:  buffer,
		metrics: metrics,
		logger:  logger,
	}
}

var _ supervisor.EventSink = (*Hub)(nil)

// Publish encodes e once and queues it for every subscriber.
func (h *Hub) Publish(e supervisor.Event) {
	frame, err := sonic.Marshal(frameOf("event", e))
	if err != nil {
		h.logger.Error("Failed to encode event", zap.String("type", string(e.Type)), zap.Error(err))
		return
	}
	h.broadcast(frame)
}

func (h *Hub) broadcast(frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for subID, ch := range h.subs {
		select {
		case ch <- frame:
		default:
			if h.metrics != nil {
				h.metrics.EventsDropped.Inc()
			}
			h.logger.Debug("Subscriber too slow, event dropped", zap.String("subscriber", subID))
		}
	}
}

// Subscribe registers a subscriber and returns its id and frame channel.
func (h *Hub) Subscribe() (string, <-chan []byte) {
	subID := uuid.New().String()
	ch := make(chan []byte, h.buffer)

	h.mu.Lock()
	h.subs[subID] = ch
	count := len(h.subs)
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.EventSubscribers.Set(float64(count))
	}
	return subID, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (h *Hub) Unsubscribe(subID string) {
	h.mu.Lock()
	ch, ok := h.subs[subID]
	if ok {
		delete(h.subs, subID)
		close(ch)
	}
	count := len(h.subs)
	h.mu.Unlock()

	if ok && h.metrics != nil {
		h.metrics.EventSubscribers.Set(float64(count))
	}
}

// Subscribers returns the number of live subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close drops every subscriber; their connections see a closed feed.
func (h *Hub) Close() {
	h.mu.Lock()
	for subID, ch := range h.subs {
		delete(h.subs, subID)
		close(ch)
	}
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.EventSubscribers.Set(0)
	}
}

type frame struct {
	Type      string            `json:"type"`
	Event     *supervisor.Event `json:"event,omitempty"`
	Message   string            `json:"message,omitempty"`
	Timestamp int64             `json:"timestamp"`
}

func frameOf(kind string, e supervisor.Event) frame {
	return frame{Type: kind, Event: &e, Timestamp: time.Now().Unix()}
}

type clientMessage struct {
	Type string `json:"type"`
}

// HandleConnection upgrades the request and streams events until either side
// closes.
func (h *Hub) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	subID, frames := h.Subscribe()
	log := h.logger.With(zap.String("subscriber", subID))
	log.Info("Event subscriber connected")

	replies := make(chan []byte, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer conn.Close()
		h.writeLoop(conn, frames, replies, log)
	}()

	h.send(replies, frame{Type: "system", Message: "subscribed " + subID, Timestamp: time.Now().Unix()})

	for {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("WebSocket read error", zap.Error(err))
			}
			break
		}
		switch msg.Type {
		case "ping":
			h.send(replies, frame{Type: "pong", Timestamp: time.Now().Unix()})
		default:
			h.send(replies, frame{Type: "error", Message: "unknown message type", Timestamp: time.Now().Unix()})
		}
	}

	h.Unsubscribe(subID)
	<-done
	log.Info("Event subscriber disconnected")
}

func (h *Hub) send(replies chan<- []byte, f frame) {
	data, err := sonic.Marshal(f)
	if err != nil {
		return
	}
	select {
	case replies <- data:
	default:
	}
}

// writeLoop owns every write on conn. It ends when the subscriber channel is
// closed or a write fails.
func (h *Hub) writeLoop(conn *websocket.Conn, frames <-chan []byte, replies <-chan []byte, log *zap.Logger) {
	for {
		var data []byte
		select {
		case f, ok := <-frames:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(writeWait))
				return
			}
			data = f
		case data = <-replies:
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Debug("WebSocket write failed", zap.Error(err))
			return
		}
	}
}
