package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestEncode(t *testing.T) {
	body, err := encode(PostCreated, map[string]string{"postId": "p1"})
	require.NoError(t, err)

	var got struct {
		Type    string            `json:"type"`
		Payload map[string]string `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, PostCreated, got.Type)
	assert.Equal(t, "p1", got.Payload["postId"])
}

func TestEncode_UnsupportedPayload(t *testing.T) {
	_, err := encode(PostCreated, make(chan int))
	assert.Error(t, err)
}

func TestLogPublisher(t *testing.T) {
	p := NewLogPublisher(zaptest.NewLogger(t))
	assert.NoError(t, p.Publish(context.Background(), MaintenanceMonthlyReset, map[string]int{"users": 3}))
	assert.NoError(t, p.Close())
}
