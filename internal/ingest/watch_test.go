package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelevantEvent(t *testing.T) {
	assert.True(t, relevantEvent(fsnotify.Event{Name: "/corpus/story.txt", Op: fsnotify.Write}))
	assert.True(t, relevantEvent(fsnotify.Event{Name: "/corpus/Story.TXT", Op: fsnotify.Create}))
	assert.True(t, relevantEvent(fsnotify.Event{Name: "/corpus/" + ManifestName, Op: fsnotify.Remove}))
	assert.False(t, relevantEvent(fsnotify.Event{Name: "/corpus/story.txt", Op: fsnotify.Chmod}))
	assert.False(t, relevantEvent(fsnotify.Event{Name: "/corpus/notes.md", Op: fsnotify.Write}))
}

func TestWatch_StopsOnContextCancel(t *testing.T) {
	f := newPipelineFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- f.pipeline.Watch(ctx, f.corpusDir, DefaultDebounce) }()

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop on cancel")
	}
}
