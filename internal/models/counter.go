package models

// ClientCodeCounter names the sequence used for client codes.
const ClientCodeCounter = "client_code"

// Counter is a persistent named monotonic sequence.
type Counter struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	SequenceValue int    `json:"sequenceValue"`
}
