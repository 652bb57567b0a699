// Package protocol defines the JSON frames exchanged over the WebSocket
// transport. Inbound frames are discriminated by their "type" field; outbound
// frames carry their type inline so clients can route on a single field.
package protocol

import "time"

// Inbound frame types.
const (
	TypeJoin             = "join"
	TypeMessage          = "message"
	TypeRandomJoin       = "random:join"
	TypeRandomMessage    = "random:message"
	TypeRandomTyping     = "random:typing"
	TypeRandomStopTyping = "random:stop_typing"
	TypeRandomLeave      = "random:leave"
)

// Outbound frame types.
const (
	TypeJoined            = "joined"
	TypeNewMessage        = "new_message"
	TypeError             = "error"
	TypeWaiting           = "random:waiting"
	TypeMatched           = "random:matched"
	TypeRandomNewMessage  = "random:new_message"
	TypePartnerTyping     = "random:partner_typing"
	TypePartnerStopTyping = "random:partner_stop_typing"
	TypePartnerLeft       = "random:partner_left"
)

// Inbound is the superset of all client frame shapes. Which fields are
// required depends on Type.
type Inbound struct {
	Type     string `json:"type"`
	GroupID  string `json:"groupId,omitempty"`
	UserID   string `json:"userId,omitempty"`
	Username string `json:"username,omitempty"`
	Content  string `json:"content,omitempty"`
}

// ErrorFrame reports a protocol or state error. The connection stays open.
type ErrorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Error builds an ErrorFrame.
func Error(message string) ErrorFrame {
	return ErrorFrame{Type: TypeError, Message: message}
}

// JoinedFrame acknowledges a group join.
type JoinedFrame struct {
	Type    string `json:"type"`
	GroupID string `json:"groupId"`
}

// Joined builds a JoinedFrame.
func Joined(groupID string) JoinedFrame {
	return JoinedFrame{Type: TypeJoined, GroupID: groupID}
}

// MessagePayload is the persisted message as broadcast to a group room.
type MessagePayload struct {
	ID        string    `json:"id"`
	GroupID   string    `json:"groupId"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewMessageFrame carries a persisted group message to room members.
type NewMessageFrame struct {
	Type    string         `json:"type"`
	Message MessagePayload `json:"message"`
}

// NewMessage builds a NewMessageFrame.
func NewMessage(msg MessagePayload) NewMessageFrame {
	return NewMessageFrame{Type: TypeNewMessage, Message: msg}
}

// EventFrame is an outbound frame with no payload beyond its type
// (waiting, typing notifications, partner_left).
type EventFrame struct {
	Type string `json:"type"`
}

// Event builds an EventFrame.
func Event(frameType string) EventFrame {
	return EventFrame{Type: frameType}
}

// MatchedFrame notifies a random-chat user that a partner was found.
type MatchedFrame struct {
	Type        string `json:"type"`
	PartnerName string `json:"partnerName"`
}

// Matched builds a MatchedFrame.
func Matched(partnerName string) MatchedFrame {
	return MatchedFrame{Type: TypeMatched, PartnerName: partnerName}
}

// RandomMessageFrame relays an ephemeral random-chat message to the partner.
// The timestamp is assigned server-side at relay time; nothing is persisted.
type RandomMessageFrame struct {
	Type      string    `json:"type"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// RandomMessage builds a RandomMessageFrame.
func RandomMessage(content string, ts time.Time) RandomMessageFrame {
	return RandomMessageFrame{Type: TypeRandomNewMessage, Content: content, Timestamp: ts}
}
