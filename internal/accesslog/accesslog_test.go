package accesslog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAccessStore struct {
	entries []Entry
	err     error
}

func (f *fakeAccessStore) InsertAccess(_ context.Context, entry Entry) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, entry)
	return nil
}

func TestNewRecorder(t *testing.T) {
	t.Run("requires store", func(t *testing.T) {
		_, err := NewRecorder(nil, zap.NewNop())
		require.Error(t, err)
	})

	t.Run("nil logger defaults", func(t *testing.T) {
		rec, err := NewRecorder(&fakeAccessStore{}, nil)
		require.NoError(t, err)
		assert.NotNil(t, rec.logger)
	})
}

func TestRecorderRecord(t *testing.T) {
	t.Run("persists entry", func(t *testing.T) {
		store := &fakeAccessStore{}
		rec, err := NewRecorder(store, zap.NewNop())
		require.NoError(t, err)

		userID := int64(7)
		rec.Record(context.Background(), Entry{
			UserID:     &userID,
			Endpoint:   "/api/ideias",
			Method:     "GET",
			StatusCode: 200,
		})

		require.Len(t, store.entries, 1)
		assert.Equal(t, "/api/ideias", store.entries[0].Endpoint)
		require.NotNil(t, store.entries[0].UserID)
		assert.Equal(t, int64(7), *store.entries[0].UserID)
	})

	t.Run("swallows store failure", func(t *testing.T) {
		store := &fakeAccessStore{err: errors.New("connection refused")}
		rec, err := NewRecorder(store, zap.NewNop())
		require.NoError(t, err)

		// Must not panic or surface the error.
		rec.Record(context.Background(), Entry{Endpoint: "/api/acessos", Method: "POST"})
		assert.Empty(t, store.entries)
	})
}
