// Package index wraps the Qdrant vector index behind the handful of
// operations the service needs: ranked retrieval with a structured filter,
// exact-match scrolls, idempotent upserts and deletes, and collection
// bootstrap. The index is treated as an opaque ranked-retrieval oracle; this
// package owns the only code that knows it is Qdrant.
package index

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
)

// ScoredRecord is one oracle hit: the stored payload plus its relevance
// score. Scores are zero for structural-only queries.
type ScoredRecord struct {
	ID      uint64
	Score   float32
	Payload map[string]*qdrant.Value
}

// Record is one indexed event: the searchable text blob plus the metadata
// payload that mirrors the derived event fields.
type Record struct {
	ID       uint64
	Document string
	Payload  map[string]any
}

// Client talks to one collection of the vector index.
type Client struct {
	qc         *qdrant.Client
	embedder   Embedder
	collection string
}

// NewClient dials the index and binds the client to collection.
func NewClient(host string, port int, apiKey string, useTLS bool, collection string, emb Embedder) (*Client, error) {
	qc, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("index dial: %w", err)
	}
	return &Client{qc: qc, embedder: emb, collection: collection}, nil
}

// Collection returns the bound collection name.
func (c *Client) Collection() string {
	return c.collection
}

// Query runs one ranked-retrieval query. With non-empty text the query text
// is embedded and hits come back ordered by similarity; with empty text no
// nearest clause is sent, so hits come back in stored order with zero scores.
func (c *Client) Query(ctx context.Context, text string, filter *qdrant.Filter, limit, offset uint64) ([]ScoredRecord, error) {
	req := &qdrant.QueryPoints{
		CollectionName: c.collection,
		Filter:         filter,
		Limit:          qdrant.PtrOf(limit),
		Offset:         qdrant.PtrOf(offset),
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if text != "" {
		vec, err := c.embedder.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed query: %w", err)
		}
		req.Query = qdrant.NewQueryDense(vec)
	}
	pts, err := c.qc.Query(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("index query: %w", err)
	}
	out := make([]ScoredRecord, 0, len(pts))
	for _, p := range pts {
		out = append(out, ScoredRecord{
			ID:      p.GetId().GetNum(),
			Score:   p.GetScore(),
			Payload: p.GetPayload(),
		})
	}
	return out, nil
}

// ScrollByMatch returns up to limit records whose payload field equals value.
func (c *Client) ScrollByMatch(ctx context.Context, field string, value int64, limit uint32) ([]ScoredRecord, error) {
	pts, err := c.qc.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: c.collection,
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{qdrant.NewMatchInt(field, value)},
		},
		Limit:       qdrant.PtrOf(limit),
		WithPayload: qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("index scroll: %w", err)
	}
	out := make([]ScoredRecord, 0, len(pts))
	for _, p := range pts {
		out = append(out, ScoredRecord{ID: p.GetId().GetNum(), Payload: p.GetPayload()})
	}
	return out, nil
}

// ListIDs walks the whole collection and returns the set of stored point ids.
func (c *Client) ListIDs(ctx context.Context) (map[uint64]struct{}, error) {
	const page = 1000
	ids := make(map[uint64]struct{})
	var offset *qdrant.PointId
	for {
		pts, err := c.qc.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: c.collection,
			Limit:          qdrant.PtrOf(uint32(page)),
			Offset:         offset,
			WithPayload:    qdrant.NewWithPayload(false),
		})
		if err != nil {
			return nil, fmt.Errorf("index scroll: %w", err)
		}
		for _, p := range pts {
			ids[p.GetId().GetNum()] = struct{}{}
		}
		if len(pts) < page {
			return ids, nil
		}
		// The scroll offset is inclusive; the one overlapping point per
		// page is absorbed by the set.
		offset = pts[len(pts)-1].GetId()
	}
}

// Upsert embeds the documents of recs and writes them in one call. Point ids
// equal event ids, so re-upserting unchanged records is a no-op semantically.
func (c *Client) Upsert(ctx context.Context, recs []Record) error {
	if len(recs) == 0 {
		return nil
	}
	texts := make([]string, len(recs))
	for i, r := range recs {
		texts[i] = r.Document
	}
	vecs, err := c.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed documents: %w", err)
	}
	if len(vecs) != len(recs) {
		return fmt.Errorf("embedding count mismatch: %d texts, %d vectors", len(recs), len(vecs))
	}
	points := make([]*qdrant.PointStruct, len(recs))
	for i, r := range recs {
		payload := make(map[string]any, len(r.Payload)+1)
		for k, v := range r.Payload {
			payload[k] = v
		}
		payload[FieldDocument] = r.Document
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDNum(r.ID),
			Vectors: qdrant.NewVectorsDense(vecs[i]),
			Payload: qdrant.NewValueMap(payload),
		}
	}
	_, err = c.qc.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: c.collection,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("index upsert: %w", err)
	}
	return nil
}

// Delete removes the given point ids. Missing ids are not an error.
func (c *Client) Delete(ctx context.Context, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	pids := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pids[i] = qdrant.NewIDNum(id)
	}
	_, err := c.qc.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: c.collection,
		Points:         qdrant.NewPointsSelector(pids...),
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("index delete: %w", err)
	}
	return nil
}

// EnsureCollection creates the bound collection when it does not exist yet.
// Safe to call before every load.
func (c *Client) EnsureCollection(ctx context.Context) error {
	ok, err := c.qc.CollectionExists(ctx, c.collection)
	if err != nil {
		return fmt.Errorf("collection check: %w", err)
	}
	if ok {
		return nil
	}
	err = c.qc.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: c.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(c.embedder.Dimensions()),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("collection create: %w", err)
	}
	return nil
}
