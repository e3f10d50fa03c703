package vector

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	grpccodes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/sandevgo/ragmemory/internal/core"
	"github.com/sandevgo/ragmemory/pkg/log"
)

const maxMessageSize = 50 * 1024 * 1024

type QdrantConfig struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string
	Dimension  int
	Timeout    time.Duration
}

// Qdrant stores records in a single collection and isolates tenants with a
// keyword filter on user_id.
type Qdrant struct {
	cfg    QdrantConfig
	conn   *connection
	logger *zerolog.Logger

	mu     sync.RWMutex
	client *qdrant.Client

	prepared atomic.Bool
}

func NewQdrant(ctx context.Context, cfg QdrantConfig) *Qdrant {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	logger := log.FromCtx(ctx).With().
		Str("component", "qdrant").
		Str("collection", cfg.Collection).
		Logger()

	q := &Qdrant{cfg: cfg, logger: &logger}
	q.conn = newConnection(q.logger, q.dial)
	return q
}

func (q *Qdrant) Connect(ctx context.Context) bool {
	return q.conn.ensure(ctx)
}

func (q *Qdrant) dial(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, q.cfg.Timeout)
	defer cancel()

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   q.cfg.Host,
		Port:   q.cfg.Port,
		APIKey: q.cfg.APIKey,
		UseTLS: q.cfg.UseTLS,
		GrpcOptions: []grpc.DialOption{
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(maxMessageSize),
				grpc.MaxCallSendMsgSize(maxMessageSize),
			),
		},
	})
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}

	if _, err := client.HealthCheck(ctx); err != nil {
		_ = client.Close()
		return fmt.Errorf("health check: %w", err)
	}

	if err := q.prepareCollection(ctx, client); err != nil {
		_ = client.Close()
		return err
	}

	q.mu.Lock()
	old := q.client
	q.client = client
	q.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}

	q.logger.Info().Str("host", q.cfg.Host).Int("port", q.cfg.Port).Msg("connected to qdrant")
	return nil
}

// prepareCollection creates the collection and the tenant index when they are
// missing. Once a collection has been seen ready it is not checked again.
func (q *Qdrant) prepareCollection(ctx context.Context, client *qdrant.Client) error {
	if q.prepared.Load() {
		return nil
	}

	name := q.cfg.Collection
	exists, err := client.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("check collection %s: %w", name, err)
	}

	if !exists {
		err := client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: name,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(q.cfg.Dimension),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil && !isAlreadyExists(err) {
			return fmt.Errorf("create collection %s: %w", name, err)
		}
		q.logger.Info().Int("dimension", q.cfg.Dimension).Msg("collection created")
	}

	info, err := client.GetCollectionInfo(ctx, name)
	if err != nil {
		return fmt.Errorf("describe collection %s: %w", name, err)
	}

	if _, ok := info.GetPayloadSchema()[fieldUserID]; !ok {
		_, err := client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: name,
			FieldName:      fieldUserID,
			FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
			Wait:           qdrant.PtrOf(true),
		})
		if err != nil && !isAlreadyExists(err) {
			return fmt.Errorf("create %s index: %w", fieldUserID, err)
		}
		q.logger.Info().Str("field", fieldUserID).Msg("payload index created")
	}

	switch info.GetStatus() {
	case qdrant.CollectionStatus_Green, qdrant.CollectionStatus_Yellow:
		q.prepared.Store(true)
	default:
		q.logger.Warn().Str("status", info.GetStatus().String()).Msg("collection is not ready yet")
	}
	return nil
}

func (q *Qdrant) getClient() *qdrant.Client {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.client
}

func (q *Qdrant) Insert(ctx context.Context, userID string, contents []string, embeddings [][]float32, ts time.Time) int {
	if !checkBatch(q.logger, contents, embeddings) {
		return 0
	}
	if !q.conn.ensure(ctx) {
		return 0
	}

	timestamp := ts.UTC().Format(core.VectorTimeLayout)
	points := make([]*qdrant.PointStruct, len(contents))
	for i, content := range contents {
		id, err := uuid.NewV7()
		if err != nil {
			id = uuid.New()
		}
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(id.String()),
			Vectors: qdrant.NewVectors(embeddings[i]...),
			Payload: map[string]*qdrant.Value{
				fieldUserID:    qdrant.NewValueString(userID),
				fieldContent:   qdrant.NewValueString(content),
				fieldTimestamp: qdrant.NewValueString(timestamp),
			},
		}
	}

	ctx, cancel := context.WithTimeout(ctx, q.cfg.Timeout)
	defer cancel()

	_, err := q.getClient().Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.cfg.Collection,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		q.logger.Error().Err(err).Str("user_id", userID).Int("count", len(points)).Msg("insert failed")
		q.conn.markStale()
		return 0
	}

	q.logger.Debug().Str("user_id", userID).Int("count", len(points)).Msg("records inserted")
	return len(points)
}

func (q *Qdrant) Search(ctx context.Context, userID string, vector []float32, topK int) ([]core.SearchHit, error) {
	if err := validateSearch(userID, vector, topK); err != nil {
		return nil, err
	}
	if !q.conn.ensure(ctx) {
		return nil, fmt.Errorf("%w: not connected", core.ErrVectorStoreUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, q.cfg.Timeout)
	defer cancel()

	points, err := q.getClient().Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.cfg.Collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
		Filter:         tenantFilter(userID),
	})
	if err != nil {
		q.conn.markStale()
		return nil, fmt.Errorf("%w: search: %v", core.ErrVectorStoreUnavailable, err)
	}

	hits := make([]core.SearchHit, 0, len(points))
	for _, p := range points {
		payload := p.GetPayload()
		hits = append(hits, core.SearchHit{
			ID:        p.GetId().GetUuid(),
			UserID:    payload[fieldUserID].GetStringValue(),
			Content:   payload[fieldContent].GetStringValue(),
			Timestamp: payload[fieldTimestamp].GetStringValue(),
			Score:     p.GetScore(),
		})
	}
	return hits, nil
}

func tenantFilter(userID string) *qdrant.Filter {
	return &qdrant.Filter{
		Must: []*qdrant.Condition{
			{
				ConditionOneOf: &qdrant.Condition_Field{
					Field: &qdrant.FieldCondition{
						Key: fieldUserID,
						Match: &qdrant.Match{
							MatchValue: &qdrant.Match_Keyword{Keyword: userID},
						},
					},
				},
			},
		},
	}
}

func (q *Qdrant) Ping(ctx context.Context) bool {
	if !q.conn.ensure(ctx) {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, q.cfg.Timeout)
	defer cancel()

	if _, err := q.getClient().HealthCheck(ctx); err != nil {
		q.logger.Warn().Err(err).Msg("health check failed")
		q.conn.markStale()
		return false
	}
	return true
}

func (q *Qdrant) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.conn.markStale()
	if q.client == nil {
		return nil
	}
	err := q.client.Close()
	q.client = nil
	return err
}

func isAlreadyExists(err error) bool {
	st, ok := status.FromError(err)
	return ok && st.Code() == grpccodes.AlreadyExists
}
