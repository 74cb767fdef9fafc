// Package monitoring 提供训练运行事件的实时推送
package monitoring

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// MessageType 消息类型
type MessageType string

const (
	RunStarted   MessageType = "run_started"
	RunCompleted MessageType = "run_completed"
	RunFailed    MessageType = "run_failed"
	Heartbeat    MessageType = "heartbeat"
)

// Message 监控消息结构
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
	ID        string          `json:"id"`
}

// RunStartedMessage 运行开始消息
type RunStartedMessage struct {
	RunID         string  `json:"run_id"`
	DatasetName   string  `json:"dataset_name"`
	MinorityRatio float64 `json:"minority_ratio"`
	MajorityRatio float64 `json:"majority_ratio"`
	Seed          int64   `json:"seed"`
}

// RunCompletedMessage 运行完成消息
type RunCompletedMessage struct {
	RunID          string  `json:"run_id"`
	MinorityTarget int     `json:"minority_target"`
	MajorityTarget int     `json:"majority_target"`
	DerivedSeed    int64   `json:"derived_seed"`
	Accuracy       float64 `json:"accuracy"`
	DurationMs     int64   `json:"duration_ms"`
}

// RunFailedMessage 运行失败消息
type RunFailedMessage struct {
	RunID string `json:"run_id"`
	Error string `json:"error"`
}

// ClientMessage 客户端消息
type ClientMessage struct {
	Type  string `json:"type"`  // subscribe, unsubscribe, ping
	Topic string `json:"topic"`
}

// Client WebSocket客户端
type Client struct {
	conn          *websocket.Conn
	send          chan []byte
	clientID      string
	subscriptions map[string]bool // 订阅的消息类型
}

// WebSocketHub WebSocket中心
type WebSocketHub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
	upgrader   websocket.Upgrader
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewWebSocketHub 创建WebSocket中心
func NewWebSocketHub() *WebSocketHub {
	ctx, cancel := context.WithCancel(context.Background())

	return &WebSocketHub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 在生产环境中应该设置更严格的origin检查
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start 启动WebSocket中心
func (h *WebSocketHub) Start() {
	defer func() {
		log.Printf("WebSocket hub stopped")
	}()

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.Printf("Client connected: %s (total: %d)", client.clientID, len(h.clients))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			log.Printf("Client disconnected: %s (total: %d)", client.clientID, len(h.clients))

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()

		case <-h.ctx.Done():
			// 关闭所有连接
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Stop 停止WebSocket中心
func (h *WebSocketHub) Stop() {
	h.cancel()
}

// HandleWebSocket 处理WebSocket连接
func (h *WebSocketHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		conn:          conn,
		send:          make(chan []byte, 256),
		clientID:      generateClientID(),
		subscriptions: make(map[string]bool),
	}

	h.register <- client

	go client.writePump()
	go client.readPump(h)
}

// Broadcast 广播消息
func (h *WebSocketHub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		log.Printf("WebSocket broadcast queue is full, dropping message")
	}
}

// writePump WebSocket写入泵
func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(30 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("WebSocket write error: %v", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(30 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump WebSocket读取泵
func (c *Client) readPump(h *WebSocketHub) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()

	for {
		_, messageData, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		var clientMsg ClientMessage
		if err := json.Unmarshal(messageData, &clientMsg); err != nil {
			log.Printf("Failed to parse client message: %v", err)
			continue
		}

		c.handleClientMessage(clientMsg)
	}
}

// handleClientMessage 处理客户端消息
func (c *Client) handleClientMessage(msg ClientMessage) {
	switch msg.Type {
	case "subscribe":
		c.subscriptions[msg.Topic] = true
		log.Printf("Client %s subscribed to %s", c.clientID, msg.Topic)
	case "unsubscribe":
		delete(c.subscriptions, msg.Topic)
		log.Printf("Client %s unsubscribed from %s", c.clientID, msg.Topic)
	case "ping":
		log.Printf("Ping from client %s", c.clientID)
	}
}

// RunMonitor 训练运行监控器
type RunMonitor struct {
	hub     *WebSocketHub
	mu      sync.RWMutex
	running bool
}

// NewRunMonitor 创建运行监控器
func NewRunMonitor() *RunMonitor {
	return &RunMonitor{hub: NewWebSocketHub()}
}

// Start 启动监控器
func (m *RunMonitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return fmt.Errorf("monitor is already running")
	}

	go m.hub.Start()
	m.running = true

	log.Printf("Run monitor started")
	return nil
}

// Stop 停止监控器
func (m *RunMonitor) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return fmt.Errorf("monitor is not running")
	}

	m.running = false
	m.hub.Stop()

	log.Printf("Run monitor stopped")
	return nil
}

// Hub 获取WebSocket中心
func (m *RunMonitor) Hub() *WebSocketHub {
	return m.hub
}

// SendRunStarted 发送运行开始事件
func (m *RunMonitor) SendRunStarted(data RunStartedMessage) error {
	return m.send(RunStarted, data)
}

// SendRunCompleted 发送运行完成事件
func (m *RunMonitor) SendRunCompleted(data RunCompletedMessage) error {
	return m.send(RunCompleted, data)
}

// SendRunFailed 发送运行失败事件
func (m *RunMonitor) SendRunFailed(data RunFailedMessage) error {
	return m.send(RunFailed, data)
}

// SendHeartbeat 发送心跳
func (m *RunMonitor) SendHeartbeat() error {
	return m.send(Heartbeat, map[string]string{"status": "alive"})
}

func (m *RunMonitor) send(msgType MessageType, data interface{}) error {
	m.mu.RLock()
	running := m.running
	m.mu.RUnlock()
	if !running {
		return fmt.Errorf("monitor is not running")
	}

	msgData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal %s message: %v", msgType, err)
	}

	msg := Message{
		Type:      msgType,
		Timestamp: time.Now(),
		Data:      msgData,
		ID:        generateMessageID(),
	}

	messageBytes, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %v", err)
	}

	m.hub.Broadcast(messageBytes)
	return nil
}

// 工具函数

func generateClientID() string {
	return fmt.Sprintf("client_%d", time.Now().UnixNano())
}

func generateMessageID() string {
	return fmt.Sprintf("msg_%d", time.Now().UnixNano())
}
