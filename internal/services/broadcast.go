package services

import "github.com/taskhive/taskhive-api/internal/realtime"

// Broadcaster is the slice of the realtime hub the write paths publish
// through. Fan-out is fire-and-forget: a successful write is acknowledged to
// the caller whether or not delivery succeeds.
type Broadcaster interface {
	BroadcastTaskCreated(channel string, data realtime.TaskEventData, excludeSession string)
	BroadcastTaskUpdated(channel string, data realtime.TaskEventData, excludeSession string)
	BroadcastTaskMoved(channel string, data realtime.TaskMovedData, excludeSession string)
	BroadcastTaskDeleted(channel string, data realtime.TaskEventData, excludeSession string)
	BroadcastColumnsChanged(channel string, data realtime.ColumnsChangedData, excludeSession string)
}
