package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credence/internal/evidence"
	"credence/internal/rules"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "sessions.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleSession(name string) *Session {
	return &Session{
		Name:      name,
		RulesPath: "examples/weather.rules",
		RulesHash: "abc123",
		Assertions: []evidence.Assertion{
			{Cond: rules.Condition{Subject: "today", State: "dry"}, CF: 1.0},
			{Cond: rules.Condition{Subject: "temperature", State: "warm"}, CF: 0.9},
		},
		Results: map[rules.Condition]float64{
			{Subject: "tomorrow", State: "rain"}: 0.8425,
		},
	}
}

func TestSaveAssignsIDAndTimestamps(t *testing.T) {
	s := openTestStore(t)

	sess := sampleSession("monday")
	require.NoError(t, s.Save(sess))
	assert.NotEmpty(t, sess.ID)
	assert.False(t, sess.CreatedAt.IsZero())
	assert.False(t, sess.UpdatedAt.IsZero())
}

func TestSaveAndGetRoundTrip(t *testing.T) {
	s := openTestStore(t)

	sess := sampleSession("monday")
	require.NoError(t, s.Save(sess))

	for _, key := range []string{sess.ID, "monday"} {
		got, err := s.Get(key)
		require.NoError(t, err, "lookup by %q", key)
		assert.Equal(t, sess.ID, got.ID)
		assert.Equal(t, "monday", got.Name)
		assert.Equal(t, "examples/weather.rules", got.RulesPath)
		assert.Equal(t, "abc123", got.RulesHash)
		require.Len(t, got.Assertions, 2)
		assert.Equal(t, sess.Assertions, got.Assertions, "assertion order survives")
		require.Len(t, got.Results, 1)
		assert.InDelta(t, 0.8425, got.Results[rules.Condition{Subject: "tomorrow", State: "rain"}], 1e-9)
	}
}

func TestSaveSameNameUpdatesInPlace(t *testing.T) {
	s := openTestStore(t)

	first := sampleSession("monday")
	require.NoError(t, s.Save(first))

	second := sampleSession("monday")
	second.Assertions = second.Assertions[:1]
	second.RulesHash = "def456"
	require.NoError(t, s.Save(second))

	assert.Equal(t, first.ID, second.ID, "same name keeps the same session")

	got, err := s.Get("monday")
	require.NoError(t, err)
	assert.Equal(t, "def456", got.RulesHash)
	assert.Len(t, got.Assertions, 1)

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestGetMissing(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListNewestFirst(t *testing.T) {
	s := openTestStore(t)

	older := sampleSession("older")
	require.NoError(t, s.Save(older))

	// Updated timestamps order the list; make sure they differ.
	time.Sleep(5 * time.Millisecond)
	newer := sampleSession("newer")
	require.NoError(t, s.Save(newer))

	list, err := s.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "newer", list[0].Name)
	assert.Equal(t, "older", list[1].Name)
	assert.Empty(t, list[0].Assertions, "List skips assertion loading")
	assert.NotEmpty(t, list[0].Results)
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)

	sess := sampleSession("monday")
	require.NoError(t, s.Save(sess))
	require.NoError(t, s.Delete("monday"))

	_, err := s.Get("monday")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.Delete("monday"), ErrNotFound)

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSaveRequiresName(t *testing.T) {
	s := openTestStore(t)
	err := s.Save(&Session{})
	assert.Error(t, err)
}

func TestOpenCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deeply", "nested", "sessions.db")
	s, err := Open(path, nil)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, path, s.Path())
}

func TestSaveEmptyResultsAndAssertions(t *testing.T) {
	s := openTestStore(t)

	sess := &Session{Name: "blank", RulesPath: "rules.txt", RulesHash: "x"}
	require.NoError(t, s.Save(sess))

	got, err := s.Get("blank")
	require.NoError(t, err)
	assert.Empty(t, got.Assertions)
	assert.Empty(t, got.Results)
}
