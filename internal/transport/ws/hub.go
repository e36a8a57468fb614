// Package ws 清单变更实时推送：事件只投递给所属清单的成员
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 16

	queueSize     = 256
	lookupTimeout = 5 * time.Second
)

// 事件类型
const (
	ChecklistCreated = "checklist.created"
	ChecklistUpdated = "checklist.updated"
	ChecklistDeleted = "checklist.deleted"
	ItemAdded        = "item.added"
	ItemUpdated      = "item.updated"
	ItemDeleted      = "item.deleted"
)

type Event struct {
	Type        string `json:"type"`
	ChecklistID string `json:"checklist"`
	Data        any    `json:"data"`
}

// MemberLookup 查询清单当前成员 id
type MemberLookup func(ctx context.Context, checklistID string) ([]string, error)

var wsClients = prometheus.NewGauge(prometheus.GaugeOpts{
	Name: "checklist_ws_clients", Help: "Connected websocket clients",
})

func init() { prometheus.MustRegister(wsClients) }

type Hub struct {
	log      *zap.Logger
	lookup   MemberLookup
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]map[*client]struct{} // userID → 连接

	// 事件按发布顺序由单个 goroutine 投递
	queue     chan job
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

type job struct {
	ctx     context.Context
	ev      Event
	members []string
}

func NewHub(lookup MemberLookup, l *zap.Logger) *Hub {
	if l == nil {
		l = zap.NewNop()
	}
	h := &Hub{
		log:    l.Named("ws"),
		lookup: lookup,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: map[string]map[*client]struct{}{},
		queue:   make(chan job, queueSize),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go h.run()
	return h
}

type client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	send   chan []byte
	once   sync.Once
}

// Serve 升级连接并注册；读写循环在独立 goroutine 中运行，Serve 立即返回
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &client{hub: h, conn: conn, userID: userID, send: make(chan []byte, sendBuffer)}
	h.register(c)
	go c.writePump()
	go c.readPump()
	return nil
}

// Connected userID 当前连接数
func (h *Hub) Connected(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Publish 入队后立即返回；members 为空时由投递 goroutine 通过 lookup 查询成员
// （清单已删除时调用方需自带成员）。队列满则丢弃事件
func (h *Hub) Publish(ctx context.Context, ev Event, members ...string) {
	select {
	case <-h.done:
		return
	default:
	}
	select {
	case h.queue <- job{ctx: context.WithoutCancel(ctx), ev: ev, members: members}:
	default:
		h.log.Warn("event dropped, queue full", zap.String("type", ev.Type), zap.String("checklist", ev.ChecklistID))
	}
}

func (h *Hub) run() {
	defer close(h.stopped)
	for {
		select {
		case j := <-h.queue:
			h.dispatch(j)
		case <-h.done:
			for {
				select {
				case j := <-h.queue:
					h.dispatch(j)
				default:
					return
				}
			}
		}
	}
}

func (h *Hub) dispatch(j job) {
	members := j.members
	if len(members) == 0 && h.lookup != nil {
		ctx, cancel := context.WithTimeout(j.ctx, lookupTimeout)
		ids, err := h.lookup(ctx, j.ev.ChecklistID)
		cancel()
		if err != nil {
			h.log.Warn("member lookup failed", zap.String("checklist", j.ev.ChecklistID), zap.Error(err))
			return
		}
		members = ids
	}
	msg, err := json.Marshal(j.ev)
	if err != nil {
		h.log.Error("marshal event", zap.String("type", j.ev.Type), zap.Error(err))
		return
	}

	var slow []*client
	h.mu.RLock()
	for _, uid := range members {
		for c := range h.clients[uid] {
			select {
			case c.send <- msg:
			default:
				slow = append(slow, c)
			}
		}
	}
	h.mu.RUnlock()
	// 缓冲区满的连接直接断开
	for _, c := range slow {
		c.close()
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.userID]
	if !ok {
		set = map[*client]struct{}{}
		h.clients[c.userID] = set
	}
	set[c] = struct{}{}
	wsClients.Inc()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.clients[c.userID]
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
	wsClients.Dec()
}

// Close 投递完已入队的事件后断开全部连接（优雅退出时调用）
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
	<-h.stopped

	h.mu.RLock()
	var all []*client
	for _, set := range h.clients {
		for c := range set {
			all = append(all, c)
		}
	}
	h.mu.RUnlock()
	for _, c := range all {
		c.close()
	}
}

func (c *client) close() {
	c.once.Do(func() {
		c.hub.unregister(c)
		close(c.send)
	})
}

// readPump 只处理控制帧；客户端消息丢弃
func (c *client) readPump() {
	defer c.close()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.hub.log.Debug("write failed", zap.String("uid", c.userID), zap.Error(err))
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		}
	}
}
