package observer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gnemet/SlideText/internal/config"
	"github.com/gnemet/SlideText/internal/database"
	"github.com/gnemet/SlideText/internal/extractor"
)

// Extractor turns a presentation file into slide records.
type Extractor interface {
	ExtractFromFile(path string) ([]extractor.SlideContent, error)
}

// Store persists extraction results.
type Store interface {
	FindByChecksum(checksum string) (*database.Presentation, error)
	SaveExtraction(p *database.Presentation, slides []extractor.SlideContent) (int, error)
	UpdateSlideSummary(presentationID, slideNumber int, summary string) error
	UpdatePresentationPath(id int, path string) error
}

// Summarizer produces a short summary of a slide's full text.
type Summarizer interface {
	SummarizeText(ctx context.Context, text string) (string, error)
}

type Observer struct {
	storage     config.StorageConfig
	extractor   Extractor
	store       Store
	Summarizer  Summarizer
	Debounce    time.Duration
	activeTasks int
	mu          sync.Mutex
	LogChan     chan string
}

// NewObserver builds an observer for the stage directory in storage. store may be nil,
// in which case results are only logged.
func NewObserver(storage config.StorageConfig, ext Extractor, store Store, logChan chan string) *Observer {
	return &Observer{
		storage:   storage,
		extractor: ext,
		store:     store,
		Debounce:  2 * time.Second,
		LogChan:   logChan,
	}
}

func (o *Observer) log(format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	log.Println(msg)
	if o.LogChan != nil {
		select {
		case o.LogChan <- msg:
		default:
		}
	}
}

func (o *Observer) incrementTask() {
	o.mu.Lock()
	o.activeTasks++
	o.mu.Unlock()
}

func (o *Observer) decrementTask() {
	o.mu.Lock()
	o.activeTasks--
	o.mu.Unlock()
}

func isPresentation(name string) bool {
	return strings.HasSuffix(name, extractor.SupportedFormat)
}

// Start scans the stage directory once, then processes presentations as they
// are created or written until ctx is cancelled.
func (o *Observer) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	stageDir := o.storage.Stage
	if stageDir == "" {
		return fmt.Errorf("stage storage directory not configured")
	}
	if err := os.MkdirAll(stageDir, 0755); err != nil {
		return fmt.Errorf("failed to create stage directory: %w", err)
	}
	if o.storage.Archive != "" {
		if err := os.MkdirAll(o.storage.Archive, 0755); err != nil {
			o.log("Failed to create archive directory: %v", err)
		}
	}

	if err := watcher.Add(stageDir); err != nil {
		return err
	}

	o.log("Background observer started, watching: %s", stageDir)

	o.scanDirectory(ctx, stageDir)

	deb := newDebouncer(o.Debounce)
	defer deb.stop()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) || !isPresentation(event.Name) {
				continue
			}
			deb.touch(ctx, event.Name)

		case name := <-deb.ready:
			deb.done(name)
			o.log("Detected change in: %s", name)
			if err := o.processFile(ctx, name); err != nil {
				o.log("Failed to process %s: %v", filepath.Base(name), err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			o.log("Watcher error: %v", err)

		case <-ctx.Done():
			return nil
		}
	}
}

// debouncer delivers a path on ready once it has been quiet for delay.
// Copies emit several writes for one file. It is owned by the Start loop.
type debouncer struct {
	delay   time.Duration
	ready   chan string
	pending map[string]*time.Timer
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{
		delay:   delay,
		ready:   make(chan string),
		pending: make(map[string]*time.Timer),
	}
}

func (d *debouncer) touch(ctx context.Context, name string) {
	if t, ok := d.pending[name]; ok {
		// A fired timer is already blocked on ready and must not be re-armed.
		if t.Stop() {
			t.Reset(d.delay)
		}
		return
	}
	d.pending[name] = time.AfterFunc(d.delay, func() {
		select {
		case d.ready <- name:
		case <-ctx.Done():
		}
	})
}

func (d *debouncer) done(name string) {
	delete(d.pending, name)
}

func (d *debouncer) stop() {
	for _, t := range d.pending {
		t.Stop()
	}
}

func (o *Observer) scanDirectory(ctx context.Context, dir string) {
	files, err := os.ReadDir(dir)
	if err != nil {
		o.log("Failed to scan directory: %v", err)
		return
	}

	for _, f := range files {
		if f.IsDir() || !isPresentation(f.Name()) {
			continue
		}
		if ctx.Err() != nil {
			return
		}
		fullPath := filepath.Join(dir, f.Name())
		if err := o.processFile(ctx, fullPath); err != nil {
			o.log("Failed to process %s: %v", f.Name(), err)
		}
	}
}

// processFile extracts, stores and archives one presentation.
func (o *Observer) processFile(ctx context.Context, path string) error {
	o.incrementTask()
	defer o.decrementTask()

	filename := filepath.Base(path)
	o.log("Processing file: %s", filename)

	checksum, err := fileChecksum(path)
	if err != nil {
		return fmt.Errorf("checksum: %w", err)
	}

	if o.store != nil {
		existing, err := o.store.FindByChecksum(checksum)
		if err == nil {
			o.log("File %s (checksum: %s) already exists (ID: %d). Skipping duplicate processing.", filename, checksum, existing.ID)
			o.finalizeFile(path, filename, existing.ID)
			return nil
		}
		if !errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("lookup checksum: %w", err)
		}
	}

	slides, err := o.extractor.ExtractFromFile(path)
	if err != nil {
		return err
	}

	if o.store == nil {
		o.log("Extracted %d slides from %s", len(slides), filename)
		return nil
	}

	pres := &database.Presentation{
		Filename:   filename,
		SourcePath: path,
		Checksum:   checksum,
	}
	id, err := o.store.SaveExtraction(pres, slides)
	if err != nil {
		return fmt.Errorf("failed to save extraction: %w", err)
	}

	if o.Summarizer != nil {
		o.summarize(ctx, id, filename, slides)
	}

	o.log("Successfully processed: %s (%d slides, ID: %d)", filename, len(slides), id)

	o.finalizeFile(path, filename, id)
	return nil
}

func (o *Observer) summarize(ctx context.Context, id int, filename string, slides []extractor.SlideContent) {
	for _, s := range slides {
		text := s.FullText()
		if text == "" {
			continue
		}
		summary, err := o.Summarizer.SummarizeText(ctx, text)
		if err != nil {
			o.log("Failed to summarize slide %d of %s: %v", s.SlideNumber, filename, err)
			continue
		}
		if err := o.store.UpdateSlideSummary(id, s.SlideNumber, summary); err != nil {
			o.log("Failed to save summary for slide %d of %s: %v", s.SlideNumber, filename, err)
		}
	}
}

// finalizeFile moves a processed file into the archive directory.
func (o *Observer) finalizeFile(path, filename string, id int) {
	if o.storage.Archive == "" {
		return
	}

	newPath := filepath.Join(o.storage.Archive, filename)
	if path == newPath {
		return
	}

	if err := os.Rename(path, newPath); err != nil {
		o.log("Failed to move %s to archive folder: %v", filename, err)
		return
	}
	o.log("Moved %s to %s", filename, newPath)

	if o.store != nil {
		if err := o.store.UpdatePresentationPath(id, newPath); err != nil {
			o.log("Failed to update file path in DB: %v", err)
		}
	}
}

func (o *Observer) IsProcessing() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.activeTasks > 0
}

func fileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
