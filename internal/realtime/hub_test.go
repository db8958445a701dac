package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive-api/internal/models"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	go hub.Run()
	return hub
}

func newClient(userID uuid.UUID, name string) *Client {
	return &Client{
		ID:       uuid.New().String(),
		UserID:   userID,
		UserName: name,
		Channels: make(map[string]bool),
		Send:     make(chan []byte, 256),
	}
}

func registerAndWait(t *testing.T, hub *Hub, client *Client) {
	t.Helper()
	hub.Register(client)
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		_, ok := hub.clients[client.ID]
		hub.mu.RUnlock()
		return ok
	}, time.Second, 5*time.Millisecond)
}

func recvEvent(t *testing.T, client *Client) Event {
	t.Helper()
	select {
	case data := <-client.Send:
		var ev Event
		require.NoError(t, json.Unmarshal(data, &ev))
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func assertNoEvent(t *testing.T, client *Client) {
	t.Helper()
	select {
	case data := <-client.Send:
		t.Fatalf("unexpected event: %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestTaskChannel(t *testing.T) {
	projectID := uuid.New()
	creator := uuid.New()

	boardTask := &models.Task{ProjectID: &projectID, CreatedBy: creator}
	assert.Equal(t, "project:"+projectID.String(), TaskChannel(boardTask))

	personal := &models.Task{CreatedBy: creator}
	assert.Equal(t, "user:"+creator.String(), TaskChannel(personal))
}

func TestHub_PublishReachesSubscribersOnly(t *testing.T) {
	hub := startHub(t)
	channel := ProjectChannel(uuid.New())

	subscriber := newClient(uuid.New(), "alice")
	bystander := newClient(uuid.New(), "bob")
	registerAndWait(t, hub, subscriber)
	registerAndWait(t, hub, bystander)

	hub.Subscribe(subscriber.ID, channel)
	// Subscribing triggers a presence update on the channel.
	ev := recvEvent(t, subscriber)
	require.Equal(t, "presence_update", ev.Type)

	hub.BroadcastTaskCreated(channel, TaskEventData{TaskID: uuid.New(), Status: "todo"}, "")

	ev = recvEvent(t, subscriber)
	assert.Equal(t, "task_created", ev.Type)
	assert.Equal(t, channel, ev.Channel)
	assertNoEvent(t, bystander)
}

func TestHub_PublishExcludesOriginatingSession(t *testing.T) {
	hub := startHub(t)
	channel := ProjectChannel(uuid.New())

	origin := newClient(uuid.New(), "alice")
	other := newClient(uuid.New(), "bob")
	registerAndWait(t, hub, origin)
	registerAndWait(t, hub, other)

	hub.Subscribe(origin.ID, channel)
	recvEvent(t, origin) // presence
	hub.Subscribe(other.ID, channel)
	recvEvent(t, origin) // presence
	recvEvent(t, other)  // presence

	hub.BroadcastTaskMoved(channel, TaskMovedData{
		TaskID:    uuid.New(),
		OldStatus: "todo",
		NewStatus: "done",
		Version:   2,
	}, origin.ID)

	ev := recvEvent(t, other)
	assert.Equal(t, "task_moved", ev.Type)
	assertNoEvent(t, origin)
}

func TestHub_PresenceDeduplicatesByUser(t *testing.T) {
	hub := startHub(t)
	channel := ProjectChannel(uuid.New())
	userID := uuid.New()

	laptop := newClient(userID, "alice")
	phone := newClient(userID, "alice")
	watcher := newClient(uuid.New(), "bob")
	registerAndWait(t, hub, laptop)
	registerAndWait(t, hub, phone)
	registerAndWait(t, hub, watcher)

	hub.Subscribe(laptop.ID, channel)
	recvEvent(t, laptop)
	hub.Subscribe(phone.ID, channel)
	recvEvent(t, laptop)
	recvEvent(t, phone)

	hub.Subscribe(watcher.ID, channel)
	ev := recvEvent(t, watcher)
	require.Equal(t, "presence_update", ev.Type)

	raw, err := json.Marshal(ev.Data)
	require.NoError(t, err)
	var presence PresenceUpdateData
	require.NoError(t, json.Unmarshal(raw, &presence))

	assert.Len(t, presence.OnlineUsers, 2)
	seen := make(map[uuid.UUID]int)
	for _, u := range presence.OnlineUsers {
		seen[u.UserID]++
	}
	assert.Equal(t, 1, seen[userID])
	assert.Equal(t, 1, seen[watcher.UserID])
}

func TestHub_UnsubscribeStopsDelivery(t *testing.T) {
	hub := startHub(t)
	channel := ProjectChannel(uuid.New())

	client := newClient(uuid.New(), "alice")
	registerAndWait(t, hub, client)

	hub.Subscribe(client.ID, channel)
	recvEvent(t, client)
	hub.Unsubscribe(client.ID, channel)

	hub.BroadcastTaskDeleted(channel, TaskEventData{TaskID: uuid.New(), Status: "done"}, "")
	assertNoEvent(t, client)
}

func TestHub_UnregisterClosesSendAndUpdatesPresence(t *testing.T) {
	hub := startHub(t)
	channel := ProjectChannel(uuid.New())

	leaving := newClient(uuid.New(), "alice")
	staying := newClient(uuid.New(), "bob")
	registerAndWait(t, hub, leaving)
	registerAndWait(t, hub, staying)

	hub.Subscribe(leaving.ID, channel)
	recvEvent(t, leaving)
	hub.Subscribe(staying.ID, channel)
	recvEvent(t, leaving)
	recvEvent(t, staying)

	hub.Unregister(leaving)

	require.Eventually(t, func() bool {
		hub.mu.RLock()
		_, ok := hub.clients[leaving.ID]
		hub.mu.RUnlock()
		return !ok
	}, time.Second, 5*time.Millisecond)

	_, open := <-leaving.Send
	assert.False(t, open)

	ev := recvEvent(t, staying)
	require.Equal(t, "presence_update", ev.Type)
	raw, err := json.Marshal(ev.Data)
	require.NoError(t, err)
	var presence PresenceUpdateData
	require.NoError(t, json.Unmarshal(raw, &presence))
	assert.Len(t, presence.OnlineUsers, 1)
	assert.Equal(t, staying.UserID, presence.OnlineUsers[0].UserID)
}
