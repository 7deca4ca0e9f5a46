package models

// Messenger webhook wire types. The Graph API delivers events as a
// top-level object tag with an ordered list of entries, each carrying an
// ordered list of messaging events.

// WebhookEvent is the top-level body of a Messenger webhook POST.
type WebhookEvent struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry is one page entry in a webhook event.
type Entry struct {
	ID        string           `json:"id"`
	Time      int64            `json:"time"`
	Messaging []MessagingEvent `json:"messaging"`
}

// MessagingEvent is a single inbound messaging event. Exactly one of
// Message or Postback is set for events the bot handles.
type MessagingEvent struct {
	Sender    Principal `json:"sender"`
	Recipient Principal `json:"recipient"`
	Timestamp int64     `json:"timestamp"`
	Message   *Message  `json:"message,omitempty"`
	Postback  *Postback `json:"postback,omitempty"`
}

// Principal identifies a sender or recipient by PSID.
type Principal struct {
	ID string `json:"id"`
}

// Message is the text payload of a messaging event. Echo messages are
// copies of the page's own outbound messages and must be ignored.
type Message struct {
	Mid    string `json:"mid,omitempty"`
	Text   string `json:"text,omitempty"`
	IsEcho bool   `json:"is_echo,omitempty"`
}

// Postback carries a button payload from a structured message.
type Postback struct {
	Title   string `json:"title,omitempty"`
	Payload string `json:"payload,omitempty"`
}

// SendRequest is the body of a Graph Send API call.
type SendRequest struct {
	Recipient Principal   `json:"recipient"`
	Message   SendMessage `json:"message"`
}

// SendMessage is the message portion of a send request.
type SendMessage struct {
	Text string `json:"text"`
}

// SendResponse is the Graph Send API response body.
type SendResponse struct {
	RecipientID string `json:"recipient_id,omitempty"`
	MessageID   string `json:"message_id,omitempty"`
	Error       *GraphError `json:"error,omitempty"`
}

// GraphError is the error object returned by the Graph API.
type GraphError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}
