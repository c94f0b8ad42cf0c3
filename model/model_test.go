package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userRequest(text string, stream bool) Request {
	return Request{Messages: []Message{{Role: RoleUser, Text: text}}, Stream: stream}
}

func TestMockModel_CannedResponse(t *testing.T) {
	m := NewMockModel("mock", "local")
	m.AddResponse("hello", `{"guess":1}`)

	resp, err := Complete(context.Background(), m, userRequest("hello", false))
	require.NoError(t, err)
	assert.Equal(t, `{"guess":1}`, resp.Text)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Len(t, m.Requests(), 1)
	assert.Equal(t, Info{Name: "mock", Provider: "local"}, m.Info())
}

func TestMockModel_StreamsPartials(t *testing.T) {
	m := NewMockModel("mock", "local")
	m.AddResponse("hi", "abc")

	respCh, errCh := m.Generate(context.Background(), userRequest("hi", true))

	var partials, final string
	for r := range respCh {
		if r.Partial {
			partials += r.Text
			continue
		}
		final = r.Text
	}
	for err := range errCh {
		require.NoError(t, err)
	}
	assert.Equal(t, "abc", partials)
	assert.Equal(t, "abc", final)
}

func TestMockModel_DefaultResponse(t *testing.T) {
	resp, err := Complete(context.Background(), NewMockModel("m", "p"), userRequest("ping", false))
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: ping", resp.Text)
}

func TestMockModel_RequiresUserMessage(t *testing.T) {
	_, err := Complete(context.Background(), NewMockModel("m", "p"), Request{})
	require.Error(t, err)
}

type silentModel struct{}

func (silentModel) Generate(context.Context, Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response)
	errCh := make(chan error)
	close(respCh)
	close(errCh)
	return respCh, errCh
}

func (silentModel) Info() Info { return Info{} }

func TestComplete_NoFinalResponse(t *testing.T) {
	_, err := Complete(context.Background(), silentModel{}, userRequest("x", false))
	assert.True(t, errors.Is(err, ErrNoCompletion))
}

func TestComplete_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Complete(ctx, blockingModel{}, userRequest("x", false))
	assert.ErrorIs(t, err, context.Canceled)
}

type blockingModel struct{}

func (blockingModel) Generate(context.Context, Request) (<-chan Response, <-chan error) {
	return make(chan Response), make(chan error)
}

func (blockingModel) Info() Info { return Info{} }

func TestRequest_LastUserText(t *testing.T) {
	req := Request{Messages: []Message{
		{Role: RoleUser, Text: "first"},
		{Role: RoleAssistant, Text: "reply"},
		{Role: RoleUser, Text: "second"},
		{Role: RoleAssistant, Text: "again"},
	}}
	assert.Equal(t, "second", req.LastUserText())
	assert.Equal(t, "", Request{}.LastUserText())
}
