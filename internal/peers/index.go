// Package peers maintains an embedded vector index of user profile vectors
// for similar-peer lookup.
//
// The index wraps chromem-go in pure in-memory mode: no persistence, no
// network, no external service. Profiles are upserted after each preference
// learning pass; Similar answers "which users behave like this one" by
// cosine similarity, feeding peer pre-selection for strategy transfer.
package peers

import (
	"context"
	"errors"
	"fmt"
	"sync"

	chromem "github.com/philippgille/chromem-go"
	"go.uber.org/zap"
)

// collectionName holds all user profile vectors.
const collectionName = "persona_profiles"

// Common errors for the peer index.
var (
	ErrEmptyUserID = errors.New("user ID cannot be empty")
	ErrEmptyVector = errors.New("profile vector cannot be empty")
)

// Peer is one similar-user lookup result.
type Peer struct {
	UserID     string  `json:"user_id"`
	Similarity float64 `json:"similarity"`
}

// Index is an in-memory profile vector index.
type Index struct {
	mu         sync.Mutex
	db         *chromem.DB
	collection *chromem.Collection
	logger     *zap.Logger
}

// NewIndex creates an empty index.
func NewIndex(logger *zap.Logger) (*Index, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db := chromem.NewDB()
	// Profiles arrive as precomputed vectors; the embedding func must
	// never run.
	coll, err := db.GetOrCreateCollection(collectionName, nil, rejectTextEmbedding)
	if err != nil {
		return nil, fmt.Errorf("creating profile collection: %w", err)
	}
	return &Index{db: db, collection: coll, logger: logger}, nil
}

// rejectTextEmbedding is installed as the collection's embedding func so an
// accidental text-content path fails loudly instead of calling out to an
// embedding provider.
func rejectTextEmbedding(_ context.Context, _ string) ([]float32, error) {
	return nil, errors.New("peer index stores precomputed vectors only")
}

// Upsert stores or replaces the user's profile vector.
func (x *Index) Upsert(ctx context.Context, userID string, vector []float64) error {
	if userID == "" {
		return ErrEmptyUserID
	}
	if len(vector) == 0 {
		return ErrEmptyVector
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	doc := chromem.Document{
		ID:        userID,
		Embedding: toFloat32(vector),
		Metadata:  map[string]string{"user_id": userID},
	}
	if err := x.collection.AddDocuments(ctx, []chromem.Document{doc}, 1); err != nil {
		return fmt.Errorf("upserting profile for %s: %w", userID, err)
	}
	x.logger.Debug("upserted peer profile", zap.String("user_id", userID))
	return nil
}

// Similar returns up to k peers most similar to the given user, best first,
// excluding the user itself. An unknown user or an empty index yields an
// empty slice.
func (x *Index) Similar(ctx context.Context, userID string, k int) ([]Peer, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}
	if k <= 0 {
		return nil, nil
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	self, err := x.collection.GetByID(ctx, userID)
	if err != nil {
		// Not indexed yet: no peers to report.
		return nil, nil
	}

	// Query one extra: the user's own profile is its nearest neighbor.
	n := k + 1
	if count := x.collection.Count(); n > count {
		n = count
	}
	if n == 0 {
		return nil, nil
	}

	results, err := x.collection.QueryEmbedding(ctx, self.Embedding, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying peers for %s: %w", userID, err)
	}

	peers := make([]Peer, 0, k)
	for _, r := range results {
		if r.ID == userID {
			continue
		}
		if len(peers) == k {
			break
		}
		peers = append(peers, Peer{UserID: r.ID, Similarity: float64(r.Similarity)})
	}
	return peers, nil
}

// Count returns the number of indexed profiles.
func (x *Index) Count() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.collection.Count()
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}
