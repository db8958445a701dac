// Package realtime fans committed mutations out to connected sessions.
// Sessions subscribe to channel keys (one per project board, or a private
// per-user channel for personal tasks); every broadcast can exclude the
// originating session so a client never echoes its own mutation back.
package realtime

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"github.com/taskhive/taskhive-api/internal/models"
)

type Event struct {
	Type    string `json:"type"`
	Channel string `json:"channel"`
	Data    any    `json:"data,omitempty"`
}

type TaskEventData struct {
	TaskID    uuid.UUID  `json:"task_id"`
	ProjectID *uuid.UUID `json:"project_id,omitempty"`
	Title     string     `json:"title,omitempty"`
	Status    string     `json:"status"`
	Priority  string     `json:"priority,omitempty"`
	Version   int        `json:"version"`
	ActorID   uuid.UUID  `json:"actor_id"`
}

type TaskMovedData struct {
	TaskID    uuid.UUID  `json:"task_id"`
	ProjectID *uuid.UUID `json:"project_id,omitempty"`
	OldStatus string     `json:"old_status"`
	NewStatus string     `json:"new_status"`
	Version   int        `json:"version"`
	MovedBy   uuid.UUID  `json:"moved_by"`
}

type ColumnsChangedData struct {
	ProjectID uuid.UUID       `json:"project_id"`
	Columns   []models.Column `json:"columns"`
	Version   int             `json:"version"`
	ChangedBy uuid.UUID       `json:"changed_by"`
}

type MemberJoinedData struct {
	UserID   uuid.UUID `json:"user_id"`
	UserName string    `json:"user_name"`
}

type MemberLeftData struct {
	UserID uuid.UUID `json:"user_id"`
}

type OnlineUser struct {
	UserID    uuid.UUID `json:"user_id"`
	UserName  string    `json:"user_name"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
}

type PresenceUpdateData struct {
	OnlineUsers []OnlineUser `json:"online_users"`
}

// ProjectChannel is the broadcast group for one project board.
func ProjectChannel(projectID uuid.UUID) string {
	return "project:" + projectID.String()
}

// UserChannel is the private channel carrying a user's personal tasks.
func UserChannel(userID uuid.UUID) string {
	return "user:" + userID.String()
}

// TaskChannel picks the channel a task's events belong on.
func TaskChannel(task *models.Task) string {
	if task.ProjectID != nil {
		return ProjectChannel(*task.ProjectID)
	}
	return UserChannel(task.CreatedBy)
}

// Client is one connected session. ID is the session identifier handed to
// the client on connect; mutations carry it back so fan-out can skip the
// originator.
type Client struct {
	ID        string
	UserID    uuid.UUID
	UserName  string
	AvatarURL *string
	Channels  map[string]bool
	Send      chan []byte
}

type message struct {
	channel string
	exclude string
	event   Event
}

type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *message
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *message, 256),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				channels := make([]string, 0, len(client.Channels))
				for ch := range client.Channels {
					channels = append(channels, ch)
				}
				delete(h.clients, client.ID)
				close(client.Send)
				h.mu.Unlock()

				for _, ch := range channels {
					h.broadcastPresence(ch)
				}
			} else {
				h.mu.Unlock()
			}

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

func (h *Hub) deliver(msg *message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	data, _ := json.Marshal(msg.event)
	for _, client := range h.clients {
		if client.ID == msg.exclude {
			continue
		}
		if client.Channels[msg.channel] {
			select {
			case client.Send <- data:
			default:
				// Client buffer full, skip
			}
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

func (h *Hub) Subscribe(sessionID, channel string) {
	h.mu.Lock()
	if client, ok := h.clients[sessionID]; ok {
		client.Channels[channel] = true
	}
	h.mu.Unlock()

	h.broadcastPresence(channel)
}

func (h *Hub) Unsubscribe(sessionID, channel string) {
	h.mu.Lock()
	if client, ok := h.clients[sessionID]; ok {
		delete(client.Channels, channel)
	}
	h.mu.Unlock()

	h.broadcastPresence(channel)
}

// Publish queues an event for every session subscribed to channel, except
// excludeSession. Delivery is fire-and-forget relative to the caller.
func (h *Hub) Publish(channel string, event Event, excludeSession string) {
	event.Channel = channel
	h.broadcast <- &message{channel: channel, exclude: excludeSession, event: event}
}

func (h *Hub) BroadcastTaskCreated(channel string, data TaskEventData, excludeSession string) {
	h.Publish(channel, Event{Type: "task_created", Data: data}, excludeSession)
}

func (h *Hub) BroadcastTaskUpdated(channel string, data TaskEventData, excludeSession string) {
	h.Publish(channel, Event{Type: "task_updated", Data: data}, excludeSession)
}

func (h *Hub) BroadcastTaskMoved(channel string, data TaskMovedData, excludeSession string) {
	h.Publish(channel, Event{Type: "task_moved", Data: data}, excludeSession)
}

func (h *Hub) BroadcastTaskDeleted(channel string, data TaskEventData, excludeSession string) {
	h.Publish(channel, Event{Type: "task_deleted", Data: data}, excludeSession)
}

func (h *Hub) BroadcastColumnsChanged(channel string, data ColumnsChangedData, excludeSession string) {
	h.Publish(channel, Event{Type: "columns_changed", Data: data}, excludeSession)
}

func (h *Hub) BroadcastMemberJoined(channel string, data MemberJoinedData) {
	h.Publish(channel, Event{Type: "member_joined", Data: data}, "")
}

func (h *Hub) BroadcastMemberLeft(channel string, data MemberLeftData) {
	h.Publish(channel, Event{Type: "member_left", Data: data}, "")
}

// broadcastPresence recomputes who is online on a channel, deduplicated by
// user, and pushes the update to everyone subscribed.
func (h *Hub) broadcastPresence(channel string) {
	h.mu.RLock()
	seen := make(map[uuid.UUID]bool)
	var online []OnlineUser
	for _, client := range h.clients {
		if client.Channels[channel] && !seen[client.UserID] {
			seen[client.UserID] = true
			online = append(online, OnlineUser{
				UserID:    client.UserID,
				UserName:  client.UserName,
				AvatarURL: client.AvatarURL,
			})
		}
	}
	h.mu.RUnlock()

	if online == nil {
		online = []OnlineUser{}
	}

	event := Event{
		Type:    "presence_update",
		Channel: channel,
		Data:    PresenceUpdateData{OnlineUsers: online},
	}
	data, _ := json.Marshal(event)

	h.mu.RLock()
	for _, client := range h.clients {
		if client.Channels[channel] {
			select {
			case client.Send <- data:
			default:
			}
		}
	}
	h.mu.RUnlock()
}
