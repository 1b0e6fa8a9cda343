// Package qdrant implements vector.Index against a Qdrant instance.
package qdrant

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/gesetzbot/gesetzbot/internal/model"
	"github.com/gesetzbot/gesetzbot/internal/vector"
)

// payload field names
const (
	fieldSource  = "source"
	fieldContent = "content"
	fieldLaw     = "law"
)

// Index implements vector.Index using Qdrant over gRPC.
type Index struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	collection  string
}

// New connects to Qdrant and ensures the collection exists with the given
// vector dimension (cosine distance).
func New(ctx context.Context, cfg model.QdrantConfig) (*Index, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("qdrant connect: %w", err)
	}

	idx := &Index{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		collection:  cfg.Collection,
	}
	if err := idx.ensureCollection(ctx, cfg.Dimension); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return idx, nil
}

func (x *Index) ensureCollection(ctx context.Context, dimension uint64) error {
	exists, err := x.collections.CollectionExists(ctx, &pb.CollectionExistsRequest{
		CollectionName: x.collection,
	})
	if err != nil {
		return fmt.Errorf("qdrant collection check: %w", err)
	}
	if exists.GetResult().GetExists() {
		return nil
	}

	_, err = x.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: x.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     dimension,
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("qdrant create collection: %w", err)
	}
	return nil
}

// Upsert inserts or updates points. Point IDs are derived deterministically
// from the chunk key, so re-ingesting a law replaces its chunks instead of
// duplicating them; the human-readable key travels in the payload.
func (x *Index) Upsert(ctx context.Context, points []vector.Point) error {
	pts := make([]*pb.PointStruct, len(points))
	for i, p := range points {
		payload := map[string]*pb.Value{
			fieldSource:  {Kind: &pb.Value_StringValue{StringValue: p.Key}},
			fieldContent: {Kind: &pb.Value_StringValue{StringValue: p.Document}},
		}
		for k, v := range p.Metadata {
			payload[k] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: v}}
		}
		pts[i] = &pb.PointStruct{
			Id:      &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: keyUUID(p.Key)}},
			Vectors: &pb.Vectors{VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: p.Vector}}},
			Payload: payload,
		}
	}

	_, err := x.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: x.collection,
		Points:         pts,
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert: %w", err)
	}
	return nil
}

// Query returns the top-k most similar chunks restricted to the law filter.
func (x *Index) Query(ctx context.Context, vec []float32, k int, laws model.LawFilter) ([]model.RetrievedChunk, error) {
	resp, err := x.points.Search(ctx, &pb.SearchPoints{
		CollectionName: x.collection,
		Vector:         vec,
		Limit:          uint64(k),
		Filter:         lawFilter(laws),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant search: %w", err)
	}

	chunks := make([]model.RetrievedChunk, len(resp.Result))
	for i, pt := range resp.Result {
		chunks[i] = model.RetrievedChunk{
			ID:       pt.Payload[fieldSource].GetStringValue(),
			Document: pt.Payload[fieldContent].GetStringValue(),
		}
	}
	return chunks, nil
}

// Delete removes all points matching the law filter.
func (x *Index) Delete(ctx context.Context, laws model.LawFilter) error {
	filter := lawFilter(laws)
	if filter == nil {
		return fmt.Errorf("refusing to delete without a law filter")
	}

	_, err := x.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: x.collection,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Filter{Filter: filter},
		},
	})
	if err != nil {
		return fmt.Errorf("qdrant delete: %w", err)
	}
	return nil
}

// Count returns the exact number of stored points.
func (x *Index) Count(ctx context.Context) (uint64, error) {
	exact := true
	resp, err := x.points.Count(ctx, &pb.CountPoints{
		CollectionName: x.collection,
		Exact:          &exact,
	})
	if err != nil {
		return 0, fmt.Errorf("qdrant count: %w", err)
	}
	return resp.GetResult().GetCount(), nil
}

// Close releases the gRPC connection.
func (x *Index) Close() error {
	return x.conn.Close()
}

// lawFilter translates a LawFilter into a Qdrant filter: nil for
// unrestricted, an equality match for one code, an OR over matches for many.
func lawFilter(laws model.LawFilter) *pb.Filter {
	if !laws.Restricted() {
		return nil
	}
	conditions := make([]*pb.Condition, len(laws))
	for i, code := range laws {
		conditions[i] = &pb.Condition{
			ConditionOneOf: &pb.Condition_Field{
				Field: &pb.FieldCondition{
					Key:   fieldLaw,
					Match: &pb.Match{MatchValue: &pb.Match_Keyword{Keyword: code}},
				},
			},
		}
	}
	if len(conditions) == 1 {
		return &pb.Filter{Must: conditions}
	}
	return &pb.Filter{Should: conditions}
}

// keyUUID derives a stable UUID for a chunk key. Qdrant point IDs must be
// UUIDs or integers, so the key is hashed and formatted as a name-based UUID.
func keyUUID(key string) string {
	sum := sha256.Sum256([]byte(key))
	b := sum[:16]
	b[6] = (b[6] & 0x0f) | 0x50 // version 5 (name-based)
	b[8] = (b[8] & 0x3f) | 0x80 // variant 10

	var out [36]byte
	hex.Encode(out[0:8], b[0:4])
	out[8] = '-'
	hex.Encode(out[9:13], b[4:6])
	out[13] = '-'
	hex.Encode(out[14:18], b[6:8])
	out[18] = '-'
	hex.Encode(out[19:23], b[8:10])
	out[23] = '-'
	hex.Encode(out[24:36], b[10:16])
	return string(out[:])
}

var _ vector.Index = (*Index)(nil)
