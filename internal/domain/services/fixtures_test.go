package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fredcamaral/coursekit/internal/adapters/secondary/filestore"
	"github.com/fredcamaral/coursekit/internal/adapters/secondary/markdown"
)

// testEnv is a content tree in a temporary directory with the real store
// and front-matter splitter and a renderer that tags its output
type testEnv struct {
	store *filestore.Store
	clock *fixedClock
	deps  Dependencies
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := filestore.New(t.TempDir())
	require.NoError(t, err)

	clock := &fixedClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	return &testEnv{
		store: store,
		clock: clock,
		deps: Dependencies{
			Store:    store,
			Renderer: fakeRenderer{},
			Splitter: markdown.NewFrontMatterSplitter(),
			Clock:    clock,
		},
	}
}

func (e *testEnv) write(t *testing.T, p, content string) {
	t.Helper()
	require.NoError(t, e.store.Write(p, []byte(content)))
}

func (e *testEnv) read(t *testing.T, p string) string {
	t.Helper()
	data, err := e.store.Read(p)
	require.NoError(t, err)
	return string(data)
}
