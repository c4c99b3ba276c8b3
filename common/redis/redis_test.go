package redis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient records XADD and PUBLISH calls
type fakeClient struct {
	added     []*redis.XAddArgs
	messages  []redis.XMessage
	rangeErr  error
	published map[string][]interface{}
	err       error
}

func (f *fakeClient) XAdd(_ context.Context, a *redis.XAddArgs) *redis.StringCmd {
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	f.added = append(f.added, a)
	return redis.NewStringResult("1700000000000-0", nil)
}

func (f *fakeClient) XRangeN(_ context.Context, _, _, _ string, _ int64) *redis.XMessageSliceCmd {
	return redis.NewXMessageSliceCmdResult(f.messages, f.rangeErr)
}

func (f *fakeClient) Publish(_ context.Context, channel string, message interface{}) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	if f.published == nil {
		f.published = make(map[string][]interface{})
	}
	f.published[channel] = append(f.published[channel], message)
	return redis.NewIntResult(1, nil)
}

func (f *fakeClient) Subscribe(_ context.Context, _ ...string) *redis.PubSub {
	return nil
}

func TestPublishToStream_StringifiesValues(t *testing.T) {
	client := &fakeClient{}

	id, err := PublishToStream(context.Background(), client, "medvault:inbox:P", map[string]interface{}{
		"name":  "Aspirin",
		"count": 3,
		"ok":    true,
		"meta":  map[string]string{"slot": "morning"},
	}, 100)

	require.NoError(t, err)
	assert.Equal(t, "1700000000000-0", id)
	require.Len(t, client.added, 1)
	args := client.added[0]
	assert.Equal(t, "medvault:inbox:P", args.Stream)
	assert.Equal(t, int64(100), args.MaxLen)
	assert.True(t, args.Approx)

	values := args.Values.(map[string]interface{})
	assert.Equal(t, "Aspirin", values["name"])
	assert.Equal(t, "3", values["count"])
	assert.Equal(t, "true", values["ok"])
	assert.JSONEq(t, `{"slot":"morning"}`, values["meta"].(string))
}

func TestPublishToStream_NoCapWhenMaxLenZero(t *testing.T) {
	client := &fakeClient{}

	_, err := PublishToStream(context.Background(), client, "s", map[string]interface{}{"a": "b"}, 0)

	require.NoError(t, err)
	assert.Zero(t, client.added[0].MaxLen)
	assert.False(t, client.added[0].Approx)
}

func TestPublishJSONToStream_EncodesData(t *testing.T) {
	client := &fakeClient{}
	payload := struct {
		Type string `json:"type"`
	}{Type: "doses_missed"}

	_, err := PublishJSONToStream(context.Background(), client, "s", payload, 10)
	require.NoError(t, err)

	values := client.added[0].Values.(map[string]interface{})
	assert.JSONEq(t, `{"type":"doses_missed"}`, values["data"].(string))
	assert.NotEmpty(t, values["timestamp"])

	var decoded map[string]string
	require.NoError(t, json.Unmarshal([]byte(values["data"].(string)), &decoded))
	assert.Equal(t, "doses_missed", decoded["type"])
}

func TestReadStreamRange(t *testing.T) {
	client := &fakeClient{messages: []redis.XMessage{
		{ID: "1-0", Values: map[string]interface{}{"data": "a"}},
		{ID: "2-0", Values: map[string]interface{}{"data": "b"}},
	}}

	msgs, err := ReadStreamRange(context.Background(), client, "s", "-", 10)

	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "s", msgs[0].Stream)
	assert.Equal(t, "2-0", msgs[1].ID)
	assert.Equal(t, "b", msgs[1].Values["data"])
}

func TestReadStreamRange_MissingStreamIsEmpty(t *testing.T) {
	client := &fakeClient{rangeErr: redis.Nil}

	msgs, err := ReadStreamRange(context.Background(), client, "s", "-", 10)

	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestPublish(t *testing.T) {
	client := &fakeClient{}
	require.NoError(t, Publish(context.Background(), client, "medvault:feed:records:P", "x"))
	assert.Equal(t, []interface{}{"x"}, client.published["medvault:feed:records:P"])

	client.err = errors.New("connection refused")
	err := Publish(context.Background(), client, "c", "x")
	assert.ErrorContains(t, err, "failed to publish to channel c")
}
