package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"
)

type ClientMessage struct {
	Client  *Client
	Message []byte
}

// Manager tracks one connection per (user, device) pair and fans
// change-availability notifications out to a user's other devices.
type Manager struct {
	clients        map[string]*Client
	userIndex      map[string]map[string]bool
	clientsMutex   sync.RWMutex
	Register       chan *Client
	Unregister     chan *Client
	HandleMessage  chan *ClientMessage
	maxConnPerUser int
	writeWait      time.Duration
	pongWait       time.Duration
	pingPeriod     time.Duration
}

func NewManager(maxConnPerUser int, writeWait, pongWait, pingPeriod time.Duration) *Manager {
	return &Manager{
		clients:        make(map[string]*Client),
		userIndex:      make(map[string]map[string]bool),
		Register:       make(chan *Client),
		Unregister:     make(chan *Client),
		HandleMessage:  make(chan *ClientMessage),
		maxConnPerUser: maxConnPerUser,
		writeWait:      writeWait,
		pongWait:       pongWait,
		pingPeriod:     pingPeriod,
	}
}

func (m *Manager) Run() {
	for {
		select {
		case client := <-m.Register:
			m.registerClient(client)

		case client := <-m.Unregister:
			m.unregisterClient(client)

		case clientMsg := <-m.HandleMessage:
			m.processMessage(clientMsg)
		}
	}
}

func (m *Manager) registerClient(client *Client) {
	m.clientsMutex.Lock()
	defer m.clientsMutex.Unlock()

	if m.userIndex[client.UserID] == nil {
		m.userIndex[client.UserID] = make(map[string]bool)
	}

	if len(m.userIndex[client.UserID]) >= m.maxConnPerUser {
		log.Printf("[ws] max connections reached for user %s", client.UserID)
		close(client.Send)
		return
	}

	m.clients[client.ID] = client
	m.userIndex[client.UserID][client.ID] = true

	log.Printf("[ws] client registered: %s (user: %s, device: %s)", client.ID, client.UserID, client.DeviceID)
}

func (m *Manager) unregisterClient(client *Client) {
	m.clientsMutex.Lock()
	defer m.clientsMutex.Unlock()

	if _, ok := m.clients[client.ID]; ok {
		delete(m.clients, client.ID)
		delete(m.userIndex[client.UserID], client.ID)

		if len(m.userIndex[client.UserID]) == 0 {
			delete(m.userIndex, client.UserID)
		}

		close(client.Send)
		log.Printf("[ws] client unregistered: %s", client.ID)
	}
}

// processMessage handles inbound traffic. Devices only ever send pings; the
// sync protocol itself stays on plain HTTP.
func (m *Manager) processMessage(clientMsg *ClientMessage) {
	var msg Message
	if err := json.Unmarshal(clientMsg.Message, &msg); err != nil {
		log.Printf("[ws] error unmarshaling message: %v", err)
		return
	}

	if msg.Type == TypePing {
		pong, err := NewMessage(TypePong, nil)
		if err != nil {
			return
		}
		pongBytes, _ := json.Marshal(pong)
		select {
		case clientMsg.Client.Send <- pongBytes:
		default:
		}
	}
}

// NotifyChanges implements service.ChangeNotifier: every connected device of
// the user except the one that pushed is told changes are waiting.
func (m *Manager) NotifyChanges(userID, excludeDeviceID string, rows, deleted int) {
	msg, err := NewMessage(TypeChangesAvailable, &ChangesAvailablePayload{
		DeviceID: excludeDeviceID,
		Rows:     rows,
		Deleted:  deleted,
	})
	if err != nil {
		log.Printf("[ws] error building notification: %v", err)
		return
	}
	m.broadcastToUser(userID, msg, excludeDeviceID)
}

func (m *Manager) broadcastToUser(userID string, message *Message, excludeDeviceID string) {
	m.clientsMutex.RLock()
	defer m.clientsMutex.RUnlock()

	messageBytes, err := json.Marshal(message)
	if err != nil {
		return
	}

	clientIDs, exists := m.userIndex[userID]
	if !exists {
		return
	}

	for clientID := range clientIDs {
		client := m.clients[clientID]
		if client.DeviceID != excludeDeviceID {
			select {
			case client.Send <- messageBytes:
			default:
				log.Printf("[ws] client %s send buffer full, dropping notification", clientID)
			}
		}
	}
}

func (m *Manager) UserConnections(userID string) int {
	m.clientsMutex.RLock()
	defer m.clientsMutex.RUnlock()

	if clients, exists := m.userIndex[userID]; exists {
		return len(clients)
	}
	return 0
}
