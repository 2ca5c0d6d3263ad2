// websocket/types.go
package websocket

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Message уведомление, рассылаемое открытым страницам дашборда
type Message struct {
	Type        string     `json:"type"`
	GeneratedAt *time.Time `json:"generated_at,omitempty"`
	Rows        int        `json:"rows,omitempty"`
}

// Client одно открытое соединение
type Client struct {
	ID     string
	Socket *websocket.Conn
	Send   chan []byte
}

// Manager хаб WebSocket-соединений: регистрация, отключение, рассылка
type Manager struct {
	clients    map[*Client]bool
	mu         sync.RWMutex
	Broadcast  chan []byte
	Register   chan *Client
	Unregister chan *Client
	done       chan struct{}
}

// Конфигурация WebSocket-соединения
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // дашборд локальный, источник не проверяем
	},
}
