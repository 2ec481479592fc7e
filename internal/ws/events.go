package ws

import "encoding/json"

// Inbound client event payloads. Field names follow the wire contract the
// web client speaks.

type sendMessageRequest struct {
	Content     string  `json:"content"`
	ReceiverID  *int    `json:"receiver_id,omitempty"`
	GroupID     *int    `json:"group_id,omitempty"`
	MessageType string  `json:"message_type,omitempty"`
	FilePath    *string `json:"file_path,omitempty"`
	ReplyToID   *int    `json:"reply_to_id,omitempty"`
}

type joinGroupRequest struct {
	GroupID int `json:"group_id"`
}

type typingRequest struct {
	ReceiverID *int `json:"receiver_id,omitempty"`
	GroupID    *int `json:"group_id,omitempty"`
	IsTyping   bool `json:"is_typing"`
}

type reactionRequest struct {
	MessageID int    `json:"message_id"`
	Emoji     string `json:"emoji"`
	Action    string `json:"action"`
}

type callRequest struct {
	To   int `json:"to"`
	From int `json:"from,omitempty"`
}

type offerRequest struct {
	To    int             `json:"to"`
	Offer json.RawMessage `json:"offer"`
}

type answerRequest struct {
	To     int             `json:"to"`
	Answer json.RawMessage `json:"answer"`
}

type iceCandidateRequest struct {
	To        int             `json:"to"`
	Candidate json.RawMessage `json:"candidate"`
}
