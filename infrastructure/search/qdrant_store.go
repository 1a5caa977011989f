package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/helixml/stepsearch/domain/keyword"
	"github.com/helixml/stepsearch/domain/search"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	payloadDocID   = "doc_id"
	payloadText    = "text"
	scrollPageSize = 256
)

// pointNamespace seeds the deterministic point ids.
var pointNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("stepsearch.document"))

// pointsClient is the subset of pb.PointsClient used by QdrantStore.
type pointsClient interface {
	Upsert(ctx context.Context, in *pb.UpsertPoints, opts ...grpc.CallOption) (*pb.PointsOperationResponse, error)
	Search(ctx context.Context, in *pb.SearchPoints, opts ...grpc.CallOption) (*pb.SearchResponse, error)
	Scroll(ctx context.Context, in *pb.ScrollPoints, opts ...grpc.CallOption) (*pb.ScrollResponse, error)
}

// collectionsClient is the subset of pb.CollectionsClient used by QdrantStore.
type collectionsClient interface {
	CollectionExists(ctx context.Context, in *pb.CollectionExistsRequest, opts ...grpc.CallOption) (*pb.CollectionExistsResponse, error)
	List(ctx context.Context, in *pb.ListCollectionsRequest, opts ...grpc.CallOption) (*pb.ListCollectionsResponse, error)
	Create(ctx context.Context, in *pb.CreateCollection, opts ...grpc.CallOption) (*pb.CollectionOperationResponse, error)
	Delete(ctx context.Context, in *pb.DeleteCollection, opts ...grpc.CallOption) (*pb.CollectionOperationResponse, error)
}

// QdrantStore implements search.Store with one Qdrant collection per partition.
type QdrantStore struct {
	conn        *grpc.ClientConn
	points      pointsClient
	collections collectionsClient
	logger      *slog.Logger
}

var _ search.Store = (*QdrantStore)(nil)

// NewQdrantStore connects to Qdrant's gRPC port.
func NewQdrantStore(host string, port int, logger *slog.Logger) (*QdrantStore, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("qdrant connect: %w", err)
	}
	store := newQdrantStore(pb.NewPointsClient(conn), pb.NewCollectionsClient(conn), logger)
	store.conn = conn
	return store, nil
}

func newQdrantStore(points pointsClient, collections collectionsClient, logger *slog.Logger) *QdrantStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &QdrantStore{points: points, collections: collections, logger: logger}
}

// Close releases the gRPC connection.
func (s *QdrantStore) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *QdrantStore) exists(ctx context.Context, name string) (bool, error) {
	resp, err := s.collections.CollectionExists(ctx, &pb.CollectionExistsRequest{CollectionName: name})
	if err != nil {
		return false, fmt.Errorf("qdrant collection exists %s: %w", name, err)
	}
	return resp.GetResult().GetExists(), nil
}

// OpenOrCreate returns the named collection, creating it sized to the
// embedder's output if it does not exist.
func (s *QdrantStore) OpenOrCreate(ctx context.Context, name string, embedder search.Embedder) (search.Partition, error) {
	ok, err := s.exists(ctx, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		probe, err := search.EmbedOne(ctx, embedder, "dimension probe")
		if err != nil {
			return nil, fmt.Errorf("probe embedding dimension: %w", err)
		}
		_, err = s.collections.Create(ctx, &pb.CreateCollection{
			CollectionName: name,
			VectorsConfig: &pb.VectorsConfig{Config: &pb.VectorsConfig_Params{Params: &pb.VectorParams{
				Size:     uint64(len(probe)),
				Distance: pb.Distance_Cosine,
			}}},
		})
		if err != nil {
			return nil, fmt.Errorf("qdrant create collection %s: %w", name, err)
		}
		s.logger.Info("created qdrant collection", "collection", name, "dimension", len(probe))
	}
	return &qdrantPartition{store: s, name: name, embedder: embedder}, nil
}

// Open returns an existing collection.
func (s *QdrantStore) Open(ctx context.Context, name string, embedder search.Embedder) (search.Partition, error) {
	ok, err := s.exists(ctx, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", search.ErrPartitionNotFound, name)
	}
	return &qdrantPartition{store: s, name: name, embedder: embedder}, nil
}

// Partitions lists, in lexical order, the collections whose names are
// partition keys. Other collections on a shared server are left out.
func (s *QdrantStore) Partitions(ctx context.Context) ([]string, error) {
	resp, err := s.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return nil, fmt.Errorf("qdrant list collections: %w", err)
	}
	names := make([]string, 0, len(resp.GetCollections()))
	for _, c := range resp.GetCollections() {
		if _, err := keyword.DecodePartitionKey(c.GetName()); err != nil {
			continue
		}
		names = append(names, c.GetName())
	}
	sort.Strings(names)
	return names, nil
}

// Documents scrolls through every point of the named collection.
func (s *QdrantStore) Documents(ctx context.Context, name string) ([]search.Document, error) {
	ok, err := s.exists(ctx, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", search.ErrPartitionNotFound, name)
	}
	return s.scroll(ctx, name)
}

func (s *QdrantStore) scroll(ctx context.Context, name string) ([]search.Document, error) {
	var (
		docs   []search.Document
		offset *pb.PointId
	)
	limit := uint32(scrollPageSize)
	for {
		resp, err := s.points.Scroll(ctx, &pb.ScrollPoints{
			CollectionName: name,
			Offset:         offset,
			Limit:          &limit,
			WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
		})
		if err != nil {
			return nil, fmt.Errorf("qdrant scroll %s: %w", name, err)
		}
		for _, pt := range resp.GetResult() {
			docs = append(docs, search.NewDocument(
				pt.GetPayload()[payloadDocID].GetStringValue(),
				pt.GetPayload()[payloadText].GetStringValue(),
			))
		}
		offset = resp.GetNextPageOffset()
		if offset == nil {
			return docs, nil
		}
	}
}

// Reset deletes every partition collection.
func (s *QdrantStore) Reset(ctx context.Context) error {
	names, err := s.Partitions(ctx)
	if err != nil {
		return err
	}
	var errs []error
	for _, name := range names {
		if _, err := s.collections.Delete(ctx, &pb.DeleteCollection{CollectionName: name}); err != nil {
			errs = append(errs, fmt.Errorf("qdrant delete collection %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

type qdrantPartition struct {
	store    *QdrantStore
	name     string
	embedder search.Embedder
}

func (p *qdrantPartition) Name() string { return p.name }

func pointID(docID string) *pb.PointId {
	return &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: uuid.NewSHA1(pointNamespace, []byte(docID)).String()}}
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}

func (p *qdrantPartition) Upsert(ctx context.Context, docs []search.Document) error {
	for start := 0; start < len(docs); start += embedBatchSize {
		batch := docs[start:min(start+embedBatchSize, len(docs))]

		texts := make([]string, len(batch))
		for i, d := range batch {
			texts[i] = d.Text()
		}
		vectors, err := p.embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed documents for %s: %w", p.name, err)
		}
		if len(vectors) != len(batch) {
			return fmt.Errorf("embed documents for %s: expected %d embeddings, got %d", p.name, len(batch), len(vectors))
		}

		points := make([]*pb.PointStruct, len(batch))
		for i, d := range batch {
			points[i] = &pb.PointStruct{
				Id:      pointID(d.ID()),
				Vectors: &pb.Vectors{VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: toFloat32(vectors[i])}}},
				Payload: map[string]*pb.Value{
					payloadDocID: {Kind: &pb.Value_StringValue{StringValue: d.ID()}},
					payloadText:  {Kind: &pb.Value_StringValue{StringValue: d.Text()}},
				},
			}
		}

		wait := true
		if _, err := p.store.points.Upsert(ctx, &pb.UpsertPoints{CollectionName: p.name, Wait: &wait, Points: points}); err != nil {
			return fmt.Errorf("qdrant upsert %s: %w", p.name, err)
		}
	}
	return nil
}

func (p *qdrantPartition) All(ctx context.Context) ([]search.Document, error) {
	return p.store.scroll(ctx, p.name)
}

// Query searches by cosine similarity and reports 1 - score as distance.
// float32 scores can exceed 1 by a rounding step, so the distance is
// clamped at zero.
func (p *qdrantPartition) Query(ctx context.Context, text string, topK int) ([]search.Hit, error) {
	if topK <= 0 {
		return []search.Hit{}, nil
	}
	query, err := search.EmbedOne(ctx, p.embedder, text)
	if err != nil {
		return nil, fmt.Errorf("embed query for %s: %w", p.name, err)
	}
	resp, err := p.store.points.Search(ctx, &pb.SearchPoints{
		CollectionName: p.name,
		Vector:         toFloat32(query),
		Limit:          uint64(topK),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant search %s: %w", p.name, err)
	}

	hits := make([]search.Hit, len(resp.GetResult()))
	for i, pt := range resp.GetResult() {
		hits[i] = search.NewHit(
			pt.GetPayload()[payloadDocID].GetStringValue(),
			pt.GetPayload()[payloadText].GetStringValue(),
			max(0, 1-float64(pt.GetScore())),
		)
	}
	return hits, nil
}
