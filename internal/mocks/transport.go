// Package mocks holds testify mocks for the ports interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/jsamuelsen/go-chatkit/internal/ports"
)

// MockTransport is a mock implementation of ports.Transport.
type MockTransport struct {
	mock.Mock
}

var _ ports.Transport = (*MockTransport)(nil)

// NewMockTransport creates a MockTransport whose expectations are asserted
// when the test finishes.
func NewMockTransport(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockTransport {
	m := &MockTransport{}
	m.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// ProcessRequest records the call and returns the configured response.
func (m *MockTransport) ProcessRequest(ctx context.Context, method, url string, body any, token string) (*ports.Response, error) {
	args := m.Called(ctx, method, url, body, token)

	var resp *ports.Response
	switch v := args.Get(0).(type) {
	case func(context.Context, string, string, any, string) *ports.Response:
		resp = v(ctx, method, url, body, token)
	case *ports.Response:
		resp = v
	}

	return resp, args.Error(1)
}

// Respond builds a response with the given status and JSON body.
func Respond(status int, body string) *ports.Response {
	return &ports.Response{StatusCode: status, Body: []byte(body)}
}
