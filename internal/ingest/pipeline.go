package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/gofrs/flock"

	"github.com/storyseek/storyseek/internal/embed"
	"github.com/storyseek/storyseek/internal/errors"
	"github.com/storyseek/storyseek/internal/model"
	"github.com/storyseek/storyseek/internal/store"
	"github.com/storyseek/storyseek/internal/summarize"
)

// Report summarizes one ingestion run.
type Report struct {
	Scanned  int
	Inserted int
	Replaced int
	Skipped  int
	Failed   int
}

func (r Report) String() string {
	return fmt.Sprintf("scanned=%d inserted=%d replaced=%d skipped=%d failed=%d",
		r.Scanned, r.Inserted, r.Replaced, r.Skipped, r.Failed)
}

// Pipeline runs content-addressed ingestion against the store.
// Concurrent runs are unsafe (two runs racing on one title would both
// decide insert), so Run serializes through a cross-process file lock.
type Pipeline struct {
	stories    store.StoryStore
	lexical    store.LexicalIndex
	vectors    store.VectorIndex
	embedder   embed.Embedder
	summarizer summarize.Summarizer
	logger     *slog.Logger

	lockPath      string
	vectorIdxPath string
}

// Options wires a Pipeline.
type Options struct {
	Stories    store.StoryStore
	Lexical    store.LexicalIndex
	Vectors    store.VectorIndex
	Embedder   embed.Embedder
	Summarizer summarize.Summarizer
	Logger     *slog.Logger

	// LockPath is the cross-process lock file guarding ingestion.
	LockPath string

	// VectorIndexPath, when set, is where the vector index is saved
	// after a run that changed anything.
	VectorIndexPath string
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		stories:       opts.Stories,
		lexical:       opts.Lexical,
		vectors:       opts.Vectors,
		embedder:      opts.Embedder,
		summarizer:    opts.Summarizer,
		logger:        logger,
		lockPath:      opts.LockPath,
		vectorIdxPath: opts.VectorIndexPath,
	}
}

// pendingStory is a fully prepared insert or replace awaiting the
// end-of-run batch commit.
type pendingStory struct {
	story     *model.Story
	isReplace bool
}

// Run executes one ingestion pass over the corpus directory.
//
// Per-entry failures (missing file, unreadable content, provider
// errors, duplicate titles) are logged and skip only that entry. The
// run as a whole fails when the manifest cannot be read, the lock is
// held by another process, the store errors, or the final batch
// commit fails.
func (p *Pipeline) Run(ctx context.Context, corpusDir string) (*Report, error) {
	if p.lockPath != "" {
		lock := flock.New(p.lockPath)
		acquired, err := lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("acquire ingest lock: %w", err)
		}
		if !acquired {
			return nil, fmt.Errorf("another ingestion run holds the lock at %s", p.lockPath)
		}
		defer func() { _ = lock.Unlock() }()
	}

	entries, err := LoadManifest(corpusDir)
	if err != nil {
		return nil, err
	}
	p.logger.Info("ingestion started", "corpus", corpusDir, "entries", len(entries))

	report := &Report{}
	var pending []pendingStory
	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		report.Scanned++
		// Two entries with the same title would collide on the unique
		// title index and fail the whole batch commit.
		key := strings.ToLower(entry.Title)
		if _, dup := seen[key]; dup {
			report.Failed++
			dupErr := errors.IngestItemError(errors.ErrCodeDuplicateTitle,
				fmt.Sprintf("manifest lists title %q more than once", entry.Title), nil)
			p.logger.Error("ingest entry failed",
				"title", entry.Title,
				"code", errors.GetCode(dupErr),
				"error", dupErr,
			)
			continue
		}
		seen[key] = struct{}{}

		item, err := p.processEntry(ctx, corpusDir, entry)
		if err != nil {
			// A store failure is not an entry problem; a dead database
			// would fail every remaining entry the same way.
			if errors.IsCategory(err, errors.CategoryStore) {
				return nil, err
			}
			report.Failed++
			p.logger.Error("ingest entry failed",
				"title", entry.Title,
				"code", errors.GetCode(err),
				"error", err,
			)
			continue
		}
		if item == nil {
			report.Skipped++
			p.logger.Debug("story unchanged", "title", entry.Title)
			continue
		}
		pending = append(pending, *item)
	}

	if err := p.commit(ctx, pending, report); err != nil {
		return nil, err
	}

	p.logger.Info("ingestion finished", "report", report.String())
	return report, nil
}

// processEntry prepares one manifest entry. A nil result with nil
// error means the stored story is up to date.
func (p *Pipeline) processEntry(ctx context.Context, corpusDir string, entry ManifestEntry) (*pendingStory, error) {
	sanitized := SanitizeTitle(entry.Title)
	path, err := findSourceFile(corpusDir, sanitized)
	if err != nil {
		return nil, errors.IngestItemError(errors.ErrCodeSourceUnreadable, "list corpus files", err)
	}
	if path == "" {
		return nil, errors.IngestItemError(errors.ErrCodeSourceMissing,
			fmt.Sprintf("no source file %s.txt for title %q", sanitized, entry.Title), nil)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.IngestItemError(errors.ErrCodeSourceUnreadable,
			fmt.Sprintf("read source file %s", path), err)
	}

	content := stripMetadataHeader(string(raw), entry)
	hash := contentHash(content)

	existing, err := p.stories.GetByTitle(ctx, entry.Title)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.ContentHash == hash && existing.HasEmbedding() {
		if p.vectors.Contains(store.DocID(existing.ID)) {
			return nil, nil
		}
		// The row committed but an index write after it did not land,
		// so the fresh hash is lying about the derived artifacts.
		// Everything needed to rebuild them is in the row itself.
		p.logger.Warn("reindexing story with missing index entries",
			"title", entry.Title, "id", existing.ID)
		return &pendingStory{story: existing, isReplace: true}, nil
	}

	// Insert or replace: regenerate the derived artifacts.
	summary, err := p.summarizer.Summarize(ctx, entry.Title, content)
	if err != nil {
		return nil, err
	}
	vector, err := p.embedder.Embed(ctx, content)
	if err != nil {
		return nil, err
	}

	story := &model.Story{
		Title:         entry.Title,
		Author:        entry.Author,
		Genre:         entry.Genre,
		PublishedYear: entry.PublishedYear,
		Summary:       summary,
		Content:       content,
		ContentHash:   hash,
		Embedding:     vector,
	}
	if existing != nil {
		story.ID = existing.ID
		return &pendingStory{story: story, isReplace: true}, nil
	}
	return &pendingStory{story: story}, nil
}

// commit applies every prepared insert and replace as one batch and
// refreshes the search indexes.
func (p *Pipeline) commit(ctx context.Context, pending []pendingStory, report *Report) error {
	if len(pending) == 0 {
		return nil
	}

	var inserts, replaces []*model.Story
	for _, item := range pending {
		if item.isReplace {
			replaces = append(replaces, item.story)
		} else {
			inserts = append(inserts, item.story)
		}
	}

	inserted, err := p.stories.ApplyBatch(ctx, inserts, replaces)
	if err != nil {
		return err
	}
	report.Inserted = len(inserted)
	report.Replaced = len(replaces)

	changed := make([]*model.Story, 0, len(inserted)+len(replaces))
	changed = append(changed, inserted...)
	changed = append(changed, replaces...)

	// The vector write stays last: the skip path probes only the
	// vector index for membership, so any earlier write that failed
	// implies the vector entry is missing too and a later run repairs
	// the whole set.
	if err := p.lexical.Index(ctx, changed); err != nil {
		return err
	}

	ids := make([]string, len(changed))
	vectors := make([][]float32, len(changed))
	for i, story := range changed {
		ids[i] = store.DocID(story.ID)
		vectors[i] = story.Embedding
	}
	if err := p.vectors.Add(ctx, ids, vectors); err != nil {
		return err
	}

	if p.vectorIdxPath != "" {
		if err := p.vectors.Save(p.vectorIdxPath); err != nil {
			return fmt.Errorf("save vector index: %w", err)
		}
	}
	return nil
}

// stripMetadataHeader removes the leading title/author/year/genre block
// that corpus files carry, when present. The header is only treated as
// such when the first two lines match the manifest title and author;
// otherwise the file is taken verbatim.
func stripMetadataHeader(raw string, entry ManifestEntry) string {
	lines := strings.Split(raw, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], "\r")
	}

	skip := 0
	if len(lines) > 4 &&
		strings.EqualFold(strings.TrimSpace(lines[0]), entry.Title) &&
		strings.EqualFold(strings.TrimSpace(lines[1]), entry.Author) {
		skip = 4
		for skip < len(lines) && strings.TrimSpace(lines[skip]) == "" {
			skip++
		}
	}
	return strings.Join(lines[skip:], "\n")
}

// contentHash returns the hex SHA-256 of canonical content.
func contentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
