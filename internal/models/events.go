package models

import "encoding/json"

// ServerEvent is the envelope for every server-to-client websocket frame.
type ServerEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// ClientEvent is the envelope clients send; payloads are decoded per event.
type ClientEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ReplyPreview is a truncated view of a reply target, attached to outgoing
// message payloads.
type ReplyPreview struct {
	ID          int    `json:"id"`
	Content     string `json:"content"`
	SenderName  string `json:"sender_name"`
	MessageType string `json:"message_type,omitempty"`
}

// MessagePayload is the receive_message body.
type MessagePayload struct {
	Message
	SenderName string        `json:"sender_name"`
	ReplyTo    *ReplyPreview `json:"reply_to,omitempty"`
}

// StatusEvent announces a presence transition to every connected client.
type StatusEvent struct {
	UserID int  `json:"user_id"`
	Online bool `json:"online"`
}

// TypingEvent is relayed to the typing target, excluding the typist in groups.
type TypingEvent struct {
	UserID   int    `json:"user_id"`
	UserName string `json:"user_name,omitempty"`
	IsTyping bool   `json:"is_typing"`
}

// ReactionEvent mirrors a reaction toggle in real time.
type ReactionEvent struct {
	MessageID int    `json:"message_id"`
	UserID    int    `json:"user_id"`
	UserName  string `json:"user_name,omitempty"`
	Emoji     string `json:"emoji"`
	Action    string `json:"action"`
}

// ErrorEvent is sent only to the originating connection.
type ErrorEvent struct {
	Message string `json:"message"`
}

// Call-signaling payloads. The relay stamps the caller identity; SDP and ICE
// blobs pass through opaque.
type CallRequestEvent struct {
	From     int    `json:"from"`
	FromName string `json:"from_name"`
}

type CallAcceptedEvent struct {
	From int `json:"from"`
}

type OfferEvent struct {
	Offer json.RawMessage `json:"offer"`
	From  int             `json:"from"`
}

type AnswerEvent struct {
	Answer json.RawMessage `json:"answer"`
	From   int             `json:"from"`
}

type IceCandidateEvent struct {
	Candidate json.RawMessage `json:"candidate"`
	From      int             `json:"from"`
}
