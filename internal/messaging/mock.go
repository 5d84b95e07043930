package messaging

import (
	"context"
	"sync"

	"github.com/thesapansharma/Fittr/internal/models"
)

// SentMessage records one outgoing message captured by the mock.
type SentMessage struct {
	To   string
	Body string
}

// MockService is an in-memory Service implementation for tests and dry runs.
// Sent messages are recorded and inbound messages can be injected with
// Receive.
type MockService struct {
	mu        sync.Mutex
	sent      []SentMessage
	responses chan models.Response
	SendErr   error
}

// NewMockService creates a mock messaging service.
func NewMockService() *MockService {
	return &MockService{
		responses: make(chan models.Response, DefaultChannelBufferSize),
	}
}

// ValidateAndCanonicalizeRecipient returns the recipient unchanged.
func (m *MockService) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	if recipient == "" {
		return "", ErrServiceStopped
	}
	return recipient, nil
}

// SendMessage records the outgoing message.
func (m *MockService) SendMessage(ctx context.Context, to string, body string) error {
	if m.SendErr != nil {
		return m.SendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, SentMessage{To: to, Body: body})
	return nil
}

// Start is a no-op.
func (m *MockService) Start(ctx context.Context) error { return nil }

// Stop closes the responses channel.
func (m *MockService) Stop() error {
	close(m.responses)
	return nil
}

// Responses returns the injectable response channel.
func (m *MockService) Responses() <-chan models.Response {
	return m.responses
}

// Receive injects an inbound message as if it arrived from the transport.
func (m *MockService) Receive(from, body string) {
	m.responses <- models.Response{From: from, Body: body}
}

// SentMessages returns a copy of all messages sent so far.
func (m *MockService) SentMessages() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentMessage, len(m.sent))
	copy(out, m.sent)
	return out
}

var _ Service = (*MockService)(nil)
