package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	pb "github.com/qdrant/go-client/qdrant"

	"github.com/ragscout/ragscout/internal/document"
	"github.com/ragscout/ragscout/internal/domain/repository"
)

// QdrantStore implements repository.VectorRepository against a Qdrant
// server. The collection is created lazily on first Add, once the
// embedding dimension is known.
type QdrantStore struct {
	client     *pb.Client
	embedder   repository.EmbeddingClient
	collection string

	mu      sync.Mutex
	ensured bool
}

// NewQdrantStore connects to Qdrant at host:port.
func NewQdrantStore(host string, port int, collection string, embedder repository.EmbeddingClient) (*QdrantStore, error) {
	client, err := pb.NewClient(&pb.Config{Host: host, Port: port})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Qdrant at %s:%d: %w", host, port, err)
	}
	log.Printf("[Qdrant] Connected to %s:%d, collection=%s", host, port, collection)
	return &QdrantStore{client: client, embedder: embedder, collection: collection}, nil
}

// ensureCollection creates the collection with the observed vector
// dimension if it does not already exist.
func (s *QdrantStore) ensureCollection(ctx context.Context, dim int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ensured {
		return nil
	}

	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("checking collection %q: %w", s.collection, err)
	}
	if !exists {
		err = s.client.CreateCollection(ctx, &pb.CreateCollection{
			CollectionName: s.collection,
			VectorsConfig: pb.NewVectorsConfig(&pb.VectorParams{
				Size:     uint64(dim),
				Distance: pb.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("creating collection %q: %w", s.collection, err)
		}
		log.Printf("[Qdrant] Created collection %q (dim %d)", s.collection, dim)
	}
	s.ensured = true
	return nil
}

// Add embeds the chunks and upserts them with sequential numeric IDs
// continuing from the current point count.
func (s *QdrantStore) Add(ctx context.Context, chunks []document.Chunk) error {
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

	if err := s.ensureCollection(ctx, len(embeddings[0])); err != nil {
		return err
	}

	start, err := s.client.Count(ctx, &pb.CountPoints{CollectionName: s.collection})
	if err != nil {
		return fmt.Errorf("counting points in %q: %w", s.collection, err)
	}

	points := make([]*pb.PointStruct, len(chunks))
	for i, chunk := range chunks {
		payload, err := chunkPayload(chunk)
		if err != nil {
			return fmt.Errorf("building payload for chunk %d: %w", i, err)
		}
		points[i] = &pb.PointStruct{
			Id:      pb.NewIDNum(start + uint64(i)),
			Vectors: pb.NewVectors(embeddings[i]...),
			Payload: payload,
		}
	}

	if _, err := s.client.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: s.collection,
		Points:         points,
	}); err != nil {
		return fmt.Errorf("qdrant upsert failed: %w", err)
	}
	log.Printf("[Qdrant] Upserted %d points into %q", len(points), s.collection)
	return nil
}

// chunkPayload stores the chunk text, the metadata JSON for lossless
// recovery, and flattened metadata fields for filtering.
func chunkPayload(chunk document.Chunk) (map[string]*pb.Value, error) {
	meta, err := json.Marshal(chunk.Metadata)
	if err != nil {
		return nil, err
	}
	fields := map[string]any{
		"text":     chunk.Text,
		"metadata": string(meta),
	}
	for _, key := range []string{"source", "source_type", "title", "author", "video_id", "file_path"} {
		if v, ok := chunk.Metadata.Field(key); ok {
			fields[key] = v
		}
	}
	return pb.NewValueMap(fields), nil
}

// Search embeds the query and runs a cosine similarity query, mapping
// Qdrant's similarity score straight through.
func (s *QdrantStore) Search(ctx context.Context, query string, k int, filter map[string]string) ([]repository.ScoredChunk, error) {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return nil, fmt.Errorf("checking collection %q: %w", s.collection, err)
	}
	if !exists || k < 1 {
		return []repository.ScoredChunk{}, nil
	}

	queryVec, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	var conditions []*pb.Condition
	for key, value := range filter {
		conditions = append(conditions, pb.NewMatch(key, value))
	}
	var qf *pb.Filter
	if len(conditions) > 0 {
		qf = &pb.Filter{Must: conditions}
	}

	hits, err := s.client.Query(ctx, &pb.QueryPoints{
		CollectionName: s.collection,
		Query:          pb.NewQuery(queryVec...),
		Limit:          pb.PtrOf(uint64(k)),
		Filter:         qf,
		WithPayload:    pb.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant query failed: %w", err)
	}

	scored := make([]repository.ScoredChunk, 0, len(hits))
	for _, hit := range hits {
		chunk, err := chunkFromPayload(hit.Payload)
		if err != nil {
			log.Printf("[Qdrant] Skipping point: %v", err)
			continue
		}
		scored = append(scored, repository.ScoredChunk{Chunk: chunk, Score: float64(hit.Score)})
	}
	return scored, nil
}

func chunkFromPayload(payload map[string]*pb.Value) (document.Chunk, error) {
	textVal, ok := payload["text"]
	if !ok {
		return document.Chunk{}, fmt.Errorf("payload missing text")
	}
	chunk := document.Chunk{Text: textVal.GetStringValue()}

	if metaVal, ok := payload["metadata"]; ok {
		if err := json.Unmarshal([]byte(metaVal.GetStringValue()), &chunk.Metadata); err != nil {
			return document.Chunk{}, fmt.Errorf("bad metadata payload: %w", err)
		}
	}
	return chunk, nil
}

// Stats reports the collection name and point count. A missing
// collection counts as zero.
func (s *QdrantStore) Stats(ctx context.Context) (repository.CollectionStats, error) {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return repository.CollectionStats{}, fmt.Errorf("checking collection %q: %w", s.collection, err)
	}
	stats := repository.CollectionStats{CollectionName: s.collection}
	if !exists {
		return stats, nil
	}

	count, err := s.client.Count(ctx, &pb.CountPoints{CollectionName: s.collection})
	if err != nil {
		return repository.CollectionStats{}, fmt.Errorf("counting points in %q: %w", s.collection, err)
	}
	stats.TotalDocuments = int(count)
	return stats, nil
}

// Clear drops the collection entirely; it is recreated on the next Add.
func (s *QdrantStore) Clear(ctx context.Context) error {
	log.Printf("[Qdrant] WARNING: deleting collection %q", s.collection)
	if err := s.client.DeleteCollection(ctx, s.collection); err != nil {
		return fmt.Errorf("deleting collection %q: %w", s.collection, err)
	}
	s.mu.Lock()
	s.ensured = false
	s.mu.Unlock()
	return nil
}

func (s *QdrantStore) Close() error {
	return s.client.Close()
}
