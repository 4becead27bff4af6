package pipeline

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ragscout/ragscout/internal/chunker"
	"github.com/ragscout/ragscout/internal/config"
	"github.com/ragscout/ragscout/internal/document"
	"github.com/ragscout/ragscout/internal/domain/repository"
	"github.com/ragscout/ragscout/internal/generation"
	"github.com/ragscout/ragscout/internal/ingestion"
	"github.com/ragscout/ragscout/internal/llm"
	"github.com/ragscout/ragscout/internal/retrieval"
	"github.com/ragscout/ragscout/internal/search"
)

// IngestStats summarizes one ingestion run.
type IngestStats struct {
	SourcesFound       int
	SourcesAfterFilter int
	Downloaded         int
	Loaded             int
	Skipped            int
	Chunks             int
}

// Pipeline wires search, download, chunking, storage and generation
// into the two top-level flows: ingest and ask.
type Pipeline struct {
	cfg        *config.Config
	searcher   search.Client
	embedder   repository.EmbeddingClient
	store      repository.VectorRepository
	router     *llm.Router
	downloader *ingestion.Downloader
	assembler  *retrieval.Assembler

	closers []func() error
}

// New builds the pipeline from configuration. The search client is
// optional; online ingestion fails without a Tavily API key but local
// ingestion and querying still work.
func New(ctx context.Context, cfg *config.Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Pipeline{cfg: cfg}

	embedder, embCloser, err := buildEmbedder(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("building embedder: %w", err)
	}
	p.embedder = embedder
	p.addCloser(embCloser)

	store, storeCloser, err := buildStore(cfg, embedder)
	if err != nil {
		return nil, fmt.Errorf("building vector store: %w", err)
	}
	p.store = store
	p.addCloser(storeCloser)

	router, llmCloser, err := buildRouter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("building LLM router: %w", err)
	}
	p.router = router
	p.addCloser(llmCloser)

	if cfg.TavilyAPIKey != "" {
		searcher, err := search.NewTavilyClient(cfg.TavilyAPIKey)
		if err != nil {
			return nil, fmt.Errorf("building search client: %w", err)
		}
		p.searcher = searcher
	}

	timeout := time.Duration(cfg.HTTPTimeoutSecs) * time.Second
	p.downloader = ingestion.NewDownloader(cfg.DataDir, cfg.DownloadWorkers, timeout)
	p.assembler = retrieval.NewAssembler(store, cfg.ContextCharBudget)
	return p, nil
}

func (p *Pipeline) addCloser(closer func() error) {
	if closer != nil {
		p.closers = append(p.closers, closer)
	}
}

// Close releases every backend the pipeline holds.
func (p *Pipeline) Close() error {
	var firstErr error
	for _, closer := range p.closers {
		if err := closer(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Store exposes the vector repository for the stats and clear commands.
func (p *Pipeline) Store() repository.VectorRepository {
	return p.store
}

// IngestOnline searches the web for the query, downloads the most
// relevant sources until the quota is met, loads and chunks them and
// stores the chunks.
func (p *Pipeline) IngestOnline(ctx context.Context, query string) (IngestStats, error) {
	if p.searcher == nil {
		return IngestStats{}, fmt.Errorf("online ingestion requires RS_TAVILY_API_KEY")
	}
	stats := IngestStats{}

	results, err := p.searcher.Search(ctx, query, p.cfg.SearchMaxResults, p.cfg.SearchDepth)
	if err != nil {
		return stats, fmt.Errorf("web search failed: %w", err)
	}
	stats.SourcesFound = len(results)

	results = search.Deduplicate(results)
	results = search.FilterByRelevance(ctx, query, results, p.embedder, p.cfg.RelevanceThreshold)
	results = search.RankBySourceType(results, nil)
	stats.SourcesAfterFilter = len(results)
	log.Printf("[Pipeline] %d sources remain after dedup and relevance filtering", len(results))

	// Video sources have no file to download; their transcripts are
	// fetched directly. Everything else goes through the quota loop.
	var fetchable []search.Result
	var docs []document.Document
	transcripts := ingestion.NewTranscriptLoader(p.cfg.TranscriptLanguage, time.Duration(p.cfg.HTTPTimeoutSecs)*time.Second)
	for _, result := range results {
		if result.SourceType != document.SourceVideo {
			fetchable = append(fetchable, result)
			continue
		}
		doc, err := transcripts.Load(ctx, result.URL)
		if err != nil {
			log.Printf("[Pipeline] Skipping transcript %s: %v", result.URL, err)
			stats.Skipped++
			continue
		}
		docs = append(docs, doc)
	}

	downloaded, err := p.downloader.DownloadUntilQuota(ctx, fetchable, query, p.cfg.MinDownloads)
	if err != nil {
		return stats, fmt.Errorf("download failed: %w", err)
	}
	stats.Downloaded = len(downloaded)
	for _, item := range downloaded {
		var (
			doc     document.Document
			loadErr error
		)
		switch strings.ToLower(filepath.Ext(item.Path)) {
		case ".pdf":
			doc, loadErr = ingestion.LoadPDFFile(item.Path, item.Source.URL)
		default:
			doc, loadErr = ingestion.LoadTextFile(item.Path, item.Source.URL)
		}
		if loadErr != nil {
			log.Printf("[Pipeline] Skipping %s: %v", item.Path, loadErr)
			stats.Skipped++
			continue
		}
		docs = append(docs, doc)
	}
	stats.Loaded = len(docs)

	return p.chunkAndStore(ctx, docs, stats)
}

// IngestLocal loads every document under dir, chunks them and stores
// the chunks.
func (p *Pipeline) IngestLocal(ctx context.Context, dir string) (IngestStats, error) {
	stats := IngestStats{}

	docs, skipped, err := ingestion.LoadLocalDocuments(ctx, dir)
	if err != nil {
		return stats, err
	}
	stats.Loaded = len(docs)
	stats.Skipped = skipped

	return p.chunkAndStore(ctx, docs, stats)
}

func (p *Pipeline) chunkAndStore(ctx context.Context, docs []document.Document, stats IngestStats) (IngestStats, error) {
	if len(docs) == 0 {
		return stats, fmt.Errorf("no documents could be loaded")
	}

	chunks, err := chunker.ChunkParallel(ctx, docs, p.cfg.ChunkSize, p.cfg.ChunkOverlap, p.cfg.ChunkWorkers)
	if err != nil {
		return stats, fmt.Errorf("chunking failed: %w", err)
	}
	stats.Chunks = len(chunks)
	log.Printf("[Pipeline] Chunked %d documents into %d chunks", len(docs), len(chunks))

	if err := p.store.Add(ctx, chunks); err != nil {
		return stats, fmt.Errorf("storing chunks failed: %w", err)
	}
	return stats, nil
}

// Ask retrieves context for the question and generates a grounded
// answer. With multi-query enabled the question is first expanded and
// the retrieval results merged before packing.
func (p *Pipeline) Ask(ctx context.Context, question string) (generation.GeneratedAnswer, error) {
	var (
		contextText string
		sources     []string
		err         error
	)
	if p.cfg.MultiQuery {
		contextText, sources, err = p.multiQueryContext(ctx, question)
	} else {
		contextText, sources, err = p.assembler.AssembleContext(ctx, question, p.cfg.TopK)
	}
	if err != nil {
		return generation.GeneratedAnswer{}, err
	}

	generator := generation.NewAnswerGenerator(
		p.router.Route(llm.TaskGeneration),
		float32(p.cfg.Temperature),
		p.cfg.MaxTokens,
	)
	return generator.Generate(ctx, question, contextText, sources)
}

// multiQueryContext expands the question, searches per query, merges
// the results keeping the best score per chunk text and packs the top
// k into context.
func (p *Pipeline) multiQueryContext(ctx context.Context, question string) (string, []string, error) {
	queries := generation.ExpandQuery(ctx, p.router.Route(llm.TaskMultiQuery), question)

	best := make(map[string]repository.ScoredChunk)
	for _, query := range queries {
		results, err := p.store.Search(ctx, query, p.cfg.TopK, nil)
		if err != nil {
			return "", nil, fmt.Errorf("retrieval failed for %q: %w", query, err)
		}
		for _, result := range results {
			if prev, ok := best[result.Chunk.Text]; !ok || result.Score > prev.Score {
				best[result.Chunk.Text] = result
			}
		}
	}

	merged := make([]repository.ScoredChunk, 0, len(best))
	for _, result := range best {
		merged = append(merged, result)
	}
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Score > merged[j].Score })
	if len(merged) > p.cfg.TopK {
		merged = merged[:p.cfg.TopK]
	}

	text, sources := retrieval.FormatContext(merged, p.cfg.ContextCharBudget)
	return text, sources, nil
}
