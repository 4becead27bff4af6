package vectorstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/ragscout/ragscout/internal/document"
	"github.com/ragscout/ragscout/internal/domain/repository"
	"github.com/ragscout/ragscout/internal/vector"
)

// entryRow is one stored chunk. Embeddings are packed float32 BLOBs;
// metadata is JSON so arbitrary loader fields survive round-trips.
type entryRow struct {
	bun.BaseModel `bun:"table:entries"`

	ID        int64  `bun:"id,pk,autoincrement"`
	DocID     string `bun:"doc_id,notnull,unique"`
	Text      string `bun:"text,notnull"`
	Metadata  string `bun:"metadata,notnull"`
	Embedding []byte `bun:"embedding,notnull"`
}

// SQLiteStore implements repository.VectorRepository on a single SQLite
// file per collection. Similarity search scans the collection and ranks
// by cosine similarity in process, which is fine for the corpus sizes
// one research query produces.
type SQLiteStore struct {
	db         *bun.DB
	embedder   repository.EmbeddingClient
	collection string
}

// NewSQLiteStore opens (or creates) the collection database under
// persistDir.
func NewSQLiteStore(persistDir, collection string, embedder repository.EmbeddingClient) (*SQLiteStore, error) {
	if err := os.MkdirAll(persistDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating persist directory: %w", err)
	}

	path := filepath.Join(persistDir, collection+".db")
	sqldb, err := sql.Open(sqliteshim.ShimName, "file:"+path+"?cache=shared")
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())
	store := &SQLiteStore{db: db, embedder: embedder, collection: collection}

	ctx := context.Background()
	if _, err := db.NewCreateTable().Model((*entryRow)(nil)).IfNotExists().Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to create entries table: %w", err)
	}

	count, err := store.count(ctx)
	if err != nil {
		return nil, err
	}
	log.Printf("[VectorStore] Opened collection %q at %s (%d documents)", collection, path, count)
	return store, nil
}

func (s *SQLiteStore) count(ctx context.Context) (int, error) {
	count, err := s.db.NewSelect().Model((*entryRow)(nil)).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting entries: %w", err)
	}
	return count, nil
}

// Add embeds the chunks in one batched call and inserts them with
// sequential doc_{n} identifiers continuing from the current count.
func (s *SQLiteStore) Add(ctx context.Context, chunks []document.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}
	embeddings, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding %d chunks: %w", len(chunks), err)
	}
	if len(embeddings) != len(chunks) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(embeddings), len(chunks))
	}

	start, err := s.count(ctx)
	if err != nil {
		return err
	}

	rows := make([]entryRow, len(chunks))
	for i, chunk := range chunks {
		meta, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("marshaling metadata for chunk %d: %w", i, err)
		}
		rows[i] = entryRow{
			DocID:     fmt.Sprintf("doc_%d", start+i),
			Text:      chunk.Text,
			Metadata:  string(meta),
			Embedding: vector.Encode(embeddings[i]),
		}
	}
	if _, err := s.db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return fmt.Errorf("inserting %d entries: %w", len(rows), err)
	}

	log.Printf("[VectorStore] Added %d chunks to %q (now %d total)", len(chunks), s.collection, start+len(chunks))
	return nil
}

// Search embeds the query and returns the top k chunks by cosine
// similarity, optionally restricted to entries whose metadata matches
// every filter pair exactly. An empty collection yields an empty slice.
func (s *SQLiteStore) Search(ctx context.Context, query string, k int, filter map[string]string) ([]repository.ScoredChunk, error) {
	count, err := s.count(ctx)
	if err != nil {
		return nil, err
	}
	if count == 0 || k < 1 {
		return []repository.ScoredChunk{}, nil
	}

	queryVec, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	var rows []entryRow
	if err := s.db.NewSelect().Model(&rows).Scan(ctx); err != nil {
		return nil, fmt.Errorf("scanning entries: %w", err)
	}

	scored := make([]repository.ScoredChunk, 0, len(rows))
	for _, row := range rows {
		var meta document.Metadata
		if err := json.Unmarshal([]byte(row.Metadata), &meta); err != nil {
			log.Printf("[VectorStore] Skipping %s: bad metadata: %v", row.DocID, err)
			continue
		}
		if !matchesFilter(meta, filter) {
			continue
		}

		emb, err := vector.Decode(row.Embedding)
		if err != nil {
			log.Printf("[VectorStore] Skipping %s: %v", row.DocID, err)
			continue
		}
		sim, err := vector.CosineSimilarity(queryVec, emb)
		if err != nil {
			log.Printf("[VectorStore] Skipping %s: %v", row.DocID, err)
			continue
		}
		scored = append(scored, repository.ScoredChunk{
			Chunk: document.Chunk{Text: row.Text, Metadata: meta},
			Score: vector.ClampScore(sim),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

func matchesFilter(meta document.Metadata, filter map[string]string) bool {
	for key, want := range filter {
		got, ok := meta.Field(key)
		if !ok || got != want {
			return false
		}
	}
	return true
}

// Stats reports the collection name and stored chunk count.
func (s *SQLiteStore) Stats(ctx context.Context) (repository.CollectionStats, error) {
	count, err := s.count(ctx)
	if err != nil {
		return repository.CollectionStats{}, err
	}
	return repository.CollectionStats{
		CollectionName: s.collection,
		TotalDocuments: count,
	}, nil
}

// Clear removes every entry in the collection.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	log.Printf("[VectorStore] WARNING: clearing all entries in %q", s.collection)
	if _, err := s.db.NewDelete().Model((*entryRow)(nil)).Where("1 = 1").Exec(ctx); err != nil {
		return fmt.Errorf("clearing %q: %w", s.collection, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
