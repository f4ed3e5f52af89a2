package database

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnemet/SlideText/internal/extractor"
)

func TestNewSlideRecord(t *testing.T) {
	rec := NewSlideRecord(7, extractor.SlideContent{SlideNumber: 2, Title: "Intro", TextContent: []string{"a", "b"}})

	assert.Equal(t, 7, rec.PresentationID)
	assert.Equal(t, 2, rec.SlideNumber)
	assert.Equal(t, "Title: Intro\nContent: a b", rec.FullText)
	assert.Equal(t, extractor.SlideContent{SlideNumber: 2, Title: "Intro", TextContent: []string{"a", "b"}}, rec.Content())

	empty := NewSlideRecord(7, extractor.SlideContent{SlideNumber: 3})
	assert.NotNil(t, empty.TextContent)
	assert.Empty(t, empty.FullText)
}

// TestStore_RoundTrip needs a disposable PostgreSQL database in SLIDETEXT_TEST_DB_URL.
func TestStore_RoundTrip(t *testing.T) {
	url := os.Getenv("SLIDETEXT_TEST_DB_URL")
	if url == "" {
		t.Skip("SLIDETEXT_TEST_DB_URL not set")
	}

	db, err := NewConnection(url)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, EnsureSchema(db))
	require.NoError(t, ClearDatabase(db))

	store := NewStore(db)
	slides := []extractor.SlideContent{
		{SlideNumber: 1, Title: "Intro", TextContent: []string{"Welcome"}},
		{SlideNumber: 2, TextContent: []string{"Thanks"}},
	}

	id, err := store.SaveExtraction(&Presentation{Filename: "deck.pptx", SourcePath: "/tmp/deck.pptx", Checksum: "abc"}, slides)
	require.NoError(t, err)

	found, err := store.FindByChecksum("abc")
	require.NoError(t, err)
	assert.Equal(t, id, found.ID)
	assert.Equal(t, 2, found.SlideCount)

	_, err = store.FindByChecksum("nope")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.UpdateSlideSummary(id, 1, "short"))

	records, err := store.Slides(id)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, slides[0], records[0].Content())
	assert.Equal(t, "short", records[0].AISummary)
	assert.Equal(t, "Content: Thanks", records[1].FullText)

	_, err = store.Slides(id + 1000)
	assert.ErrorIs(t, err, ErrNotFound)
}
