package db

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapKV map[string][]byte

func (m mapKV) AtomicGet(_ context.Context, key string) (any, error) {
	v, ok := m[key]
	if !ok {
		return nil, nil
	}
	return v, nil
}

type brokenKV struct{ err error }

func (b brokenKV) AtomicGet(context.Context, string) (any, error) {
	if b.err != nil {
		return nil, b.err
	}
	return 42, nil
}

type doc struct {
	Name string `json:"name"`
}

func TestJSONKV(t *testing.T) {
	ctx := context.Background()
	raw, err := json.Marshal(doc{Name: "second"})
	require.NoError(t, err)
	kv := NewJSONKV[doc](mapKV{"k": raw})

	got, err := kv.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, &doc{Name: "second"}, got)

	_, err = NewJSONKV[doc](mapKV{"bad": []byte("{")}).Get(ctx, "bad")
	assert.ErrorContains(t, err, `decode "bad"`)
}

type stringKV map[string]string

func (m stringKV) AtomicGet(_ context.Context, key string) (any, error) {
	return m[key], nil
}

func TestJSONKVAcceptsStrings(t *testing.T) {
	got, err := NewJSONKV[doc](stringKV{"k": `{"name":"s"}`}).Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, &doc{Name: "s"}, got)
}

func TestJSONKVErrors(t *testing.T) {
	ctx := context.Background()
	_, err := NewJSONKV[doc](brokenKV{}).Get(ctx, "k")
	assert.ErrorContains(t, err, "unsupported value int")

	_, err = NewJSONKV[doc](brokenKV{err: errors.New("down")}).Get(ctx, "k")
	assert.EqualError(t, err, "down")
}
