// Package llmtest provides a testify mock of llm.Client.
package llmtest

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/fyrsmithlabs/wizz/internal/llm"
)

// Client is a mock completion client.
type Client struct {
	mock.Mock
	ModelName string
}

// New returns a mock client reporting model as its model.
func New(model string) *Client {
	return &Client{ModelName: model}
}

// Complete records the call and returns the configured response.
func (c *Client) Complete(ctx context.Context, messages []llm.Message) (string, error) {
	args := c.Called(ctx, messages)
	return args.String(0), args.Error(1)
}

// Model returns ModelName.
func (c *Client) Model() string {
	return c.ModelName
}

// Reply queues one successful response.
func (c *Client) Reply(text string) *Client {
	c.On("Complete", mock.Anything, mock.Anything).Return(text, nil).Once()
	return c
}

// Fail queues one failed call.
func (c *Client) Fail(err error) *Client {
	c.On("Complete", mock.Anything, mock.Anything).Return("", err).Once()
	return c
}

// Messages returns the messages of the i-th call.
func (c *Client) Messages(i int) []llm.Message {
	calls := c.Calls
	if i >= len(calls) {
		return nil
	}
	msgs, _ := calls[i].Arguments.Get(1).([]llm.Message)
	return msgs
}

var _ llm.Client = (*Client)(nil)
