// websocket/manager.go
package websocket

import (
	"context"
	"encoding/json"
	"log"
	"time"
)

// NewManager создает новый менеджер WebSocket-соединений
func NewManager() *Manager {
	return &Manager{
		clients:    make(map[*Client]bool),
		Broadcast:  make(chan []byte, 8),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run обслуживает каналы менеджера до отмены ctx
func (manager *Manager) Run(ctx context.Context) {
	defer close(manager.done)

	for {
		select {
		case client := <-manager.Register:
			manager.mu.Lock()
			manager.clients[client] = true
			manager.mu.Unlock()
			log.Printf("Клиент %s подключился", client.ID)

		case client := <-manager.Unregister:
			manager.remove(client)
			log.Printf("Клиент %s отключился", client.ID)

		case message := <-manager.Broadcast:
			manager.broadcast(message)

		case <-ctx.Done():
			manager.mu.Lock()
			for client := range manager.clients {
				delete(manager.clients, client)
				close(client.Send)
			}
			manager.mu.Unlock()
			return
		}
	}
}

// Done закрывается после остановки Run
func (manager *Manager) Done() <-chan struct{} {
	return manager.done
}

// ClientCount количество подключенных клиентов
func (manager *Manager) ClientCount() int {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	return len(manager.clients)
}

func (manager *Manager) remove(client *Client) {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	if _, ok := manager.clients[client]; ok {
		delete(manager.clients, client)
		close(client.Send)
	}
}

// broadcast отправляет сообщение всем подключенным клиентам.
// Клиент с переполненной очередью отключается.
func (manager *Manager) broadcast(message []byte) {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	for client := range manager.clients {
		select {
		case client.Send <- message:
		default:
			close(client.Send)
			delete(manager.clients, client)
		}
	}
}

// NotifyDataUpdated рассылает data_updated. Нулевой generatedAt означает, что данных нет.
func (manager *Manager) NotifyDataUpdated(generatedAt time.Time, rows int) {
	msg := Message{Type: MessageDataMissing}
	if !generatedAt.IsZero() {
		msg = Message{Type: MessageDataUpdated, GeneratedAt: &generatedAt, Rows: rows}
	}

	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Ошибка кодирования уведомления: %v", err)
		return
	}

	select {
	case manager.Broadcast <- data:
	case <-manager.done:
	}
}
