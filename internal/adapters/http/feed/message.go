// Package feed pushes session changes to websocket subscribers.
package feed

import (
	"time"

	"github.com/okian/pitchtag/internal/domain/aggregate"
	"github.com/okian/pitchtag/internal/domain/model"
)

// MessageType names the change a Message describes.
type MessageType string

const (
	TypeSnapshot      MessageType = "snapshot"
	TypeTagRecorded   MessageType = "tag_recorded"
	TypeTagsIngested  MessageType = "tags_ingested"
	TypeTagEdited     MessageType = "tag_edited"
	TypeTagDeleted    MessageType = "tag_deleted"
	TypeTagsCleared   MessageType = "tags_cleared"
	TypeSessionClosed MessageType = "session_closed"
)

// Message is one server push.
type Message struct {
	Type      MessageType       `json:"type"`
	SessionID string            `json:"sessionId"`
	Summary   aggregate.Summary `json:"summary"`
	TagCount  int               `json:"tagCount"`
	Tag       *model.Tag        `json:"tag,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}
