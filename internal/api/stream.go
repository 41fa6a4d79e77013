package api

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Submission event types.
const (
	EventSubmitted  = "submitted"
	EventOverridden = "overridden"
)

// SubmissionEvent describes websocket payloads emitted when an assessment is
// scored or an admin overrides a score.
type SubmissionEvent struct {
	Type         string    `json:"type"`
	AssessmentID string    `json:"assessment_id"`
	Respondent   string    `json:"respondent,omitempty"`
	Company      string    `json:"company,omitempty"`
	TotalScore   float64   `json:"total_score"`
	Percentage   float64   `json:"percentage"`
	Decision     string    `json:"decision"`
	RiskFlags    []string  `json:"risk_flags,omitempty"`
	AdminEmail   string    `json:"admin_email,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// wsClient wraps a websocket connection with write locking.
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// SubmissionNotifier keeps track of admin websocket clients and fans out
// submission events. New clients receive the most recent event on connect.
type SubmissionNotifier struct {
	mu      sync.Mutex
	clients map[*wsClient]struct{}
	last    *SubmissionEvent
}

// NewSubmissionNotifier constructs a notifier instance.
func NewSubmissionNotifier() *SubmissionNotifier {
	return &SubmissionNotifier{clients: make(map[*wsClient]struct{})}
}

// Register attaches a websocket connection and returns a client handle.
func (n *SubmissionNotifier) Register(conn *websocket.Conn) *wsClient {
	client := &wsClient{conn: conn}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.clients[client] = struct{}{}
	// replay under the lock so a concurrent Broadcast cannot overtake it
	if n.last != nil {
		_ = client.writeJSON(*n.last)
	}
	return client
}

// Unregister removes the client and closes the socket.
func (n *SubmissionNotifier) Unregister(client *wsClient) {
	if client == nil {
		return
	}
	n.mu.Lock()
	delete(n.clients, client)
	n.mu.Unlock()
	_ = client.conn.Close()
}

// Broadcast sends event to every registered client, dropping clients whose
// writes fail.
func (n *SubmissionNotifier) Broadcast(event SubmissionEvent) {
	event.Timestamp = time.Now().UTC()

	n.mu.Lock()
	defer n.mu.Unlock()
	snapshot := event
	n.last = &snapshot
	for client := range n.clients {
		if err := client.writeJSON(event); err != nil {
			delete(n.clients, client)
			_ = client.conn.Close()
		}
	}
}

// Last returns a copy of the most recent event, if any.
func (n *SubmissionNotifier) Last() *SubmissionEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.last == nil {
		return nil
	}
	out := *n.last
	return &out
}

// ClientCount reports the number of connected clients.
func (n *SubmissionNotifier) ClientCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.clients)
}

func (c *wsClient) writeJSON(payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(payload)
}
