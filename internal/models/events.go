package models

// Response represents an incoming chat message from a user on any channel.
// From holds the canonical identity of the sender.
type Response struct {
	From string `json:"from"`
	Body string `json:"body"`
	Time int64  `json:"time"`
}
