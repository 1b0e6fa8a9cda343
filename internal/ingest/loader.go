package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/gesetzbot/gesetzbot/internal/embed"
	"github.com/gesetzbot/gesetzbot/internal/model"
	"github.com/gesetzbot/gesetzbot/internal/settings"
	"github.com/gesetzbot/gesetzbot/internal/vector"
)

// Loader drives ingestion from the law registry: download, extract, chunk,
// embed and upsert every desired-but-unloaded law.
type Loader struct {
	downloader *Downloader
	embedder   embed.Embedder
	index      vector.Index
	chunking   model.ChunkingConfig

	settingsPath string
	downloadsDir string
}

// NewLoader creates a loader.
func NewLoader(cfg *model.Config, embedder embed.Embedder, index vector.Index) *Loader {
	return &Loader{
		downloader:   NewDownloader(cfg.HTTP),
		embedder:     embedder,
		index:        index,
		chunking:     cfg.Chunking,
		settingsPath: cfg.Paths.Settings,
		downloadsDir: cfg.Paths.Downloads,
	}
}

// LoadFromSettings ingests every law marked desired and not yet loaded.
// A failure for one law skips that law and continues with the rest; the
// registry is saved after each successful law so progress survives aborts.
func (l *Loader) LoadFromSettings(ctx context.Context) error {
	reg, err := settings.Load(l.settingsPath)
	if err != nil {
		return err
	}

	codes := make([]string, 0, len(reg))
	for code := range reg {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	var failures int
	for _, code := range codes {
		src := reg[code]
		if !src.Desired || src.Loaded {
			continue
		}

		xmlName, err := l.loadLaw(ctx, code, src)
		if err != nil {
			slog.Error("ingest law", "law", code, "error", err)
			failures++
			continue
		}

		src.Loaded = true
		src.File = xmlName
		reg[code] = src
		if err := settings.Save(l.settingsPath, reg); err != nil {
			return err
		}
		slog.Info("loaded law into vector store", "law", code, "file", xmlName)
	}

	if failures > 0 {
		return fmt.Errorf("%d law(s) failed to ingest", failures)
	}
	return nil
}

// loadLaw runs the full ingest path for one law and returns the XML file
// name of the downloaded archive.
func (l *Loader) loadLaw(ctx context.Context, code string, src settings.LawSource) (string, error) {
	link := src.Link
	if src.Website != "" {
		// The portal page is authoritative; registry links go stale.
		if discovered, err := l.downloader.DiscoverArchiveLink(ctx, src.Website); err == nil {
			if discovered != link {
				slog.Info("archive link updated from portal page", "law", code, "link", discovered)
			}
			link = discovered
		} else {
			slog.Warn("archive link discovery failed, using registry link", "law", code, "error", err)
		}
	}
	if link == "" {
		return "", fmt.Errorf("no archive link for %s", code)
	}

	xmlName, err := l.downloader.DownloadAndUnzip(ctx, link, l.downloadsDir)
	if err != nil {
		return "", err
	}

	f, err := os.Open(filepath.Join(l.downloadsDir, xmlName))
	if err != nil {
		return "", fmt.Errorf("open %s: %w", xmlName, err)
	}
	defer func() { _ = f.Close() }()

	paras, err := ExtractDocument(f)
	if err != nil {
		return "", err
	}
	slog.Info("extracted paragraphs", "law", code, "file", xmlName, "count", len(paras))

	chunked := ChunkParagraphs(paras, l.chunking.MaxChunk, l.chunking.Overlap)

	points := make([]vector.Point, len(chunked))
	for i, p := range chunked {
		vec, err := l.embedder.Embed(ctx, p.Document())
		if err != nil {
			return "", fmt.Errorf("embed %s: %w", p.Key(), err)
		}
		p.Embedding = vec
		points[i] = vector.Point{
			Key:      p.Key(),
			Vector:   p.Embedding,
			Document: p.Document(),
			Metadata: map[string]string{
				"law":       p.Law,
				"paragraph": p.Par,
				"title":     p.Title,
			},
		}
		slog.Info("embedded paragraph", "law", code, "n", i+1, "of", len(chunked), "key", p.Key())
	}

	if err := l.index.Upsert(ctx, points); err != nil {
		return "", err
	}
	return xmlName, nil
}

// DeleteLaw removes a law's chunks from the index and marks it unloaded in
// the registry.
func (l *Loader) DeleteLaw(ctx context.Context, code string) error {
	if err := l.index.Delete(ctx, model.LawFilter{code}); err != nil {
		return err
	}

	reg, err := settings.Load(l.settingsPath)
	if err != nil {
		return err
	}
	if src, ok := reg[code]; ok {
		src.Loaded = false
		src.File = ""
		reg[code] = src
		if err := settings.Save(l.settingsPath, reg); err != nil {
			return err
		}
	}
	slog.Info("deleted law from vector store", "law", code)
	return nil
}

// Stats returns the number of embeddings in the index.
func (l *Loader) Stats(ctx context.Context) (uint64, error) {
	return l.index.Count(ctx)
}
