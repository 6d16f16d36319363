// Package events publishes tracker mutations for downstream consumers.
// Publishing is fire-and-forget: a failed publish never undoes the write that
// produced the event.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Event types.
const (
	TypeCandidateCreated        = "EVENT_CANDIDATE_CREATED"
	TypeCandidateUpdated        = "EVENT_CANDIDATE_UPDATED"
	TypeCandidateDeleted        = "EVENT_CANDIDATE_DELETED"
	TypeCandidateStatusChanged  = "EVENT_CANDIDATE_STATUS_CHANGED"
	TypeCandidateStageCompleted = "EVENT_CANDIDATE_STAGE_COMPLETED"
	TypeCandidatesReassigned    = "EVENT_CANDIDATES_REASSIGNED"
	TypeNotifyClient            = "CMD_NOTIFY_CLIENT"
)

// Event is the payload published for every accepted mutation.
type Event struct {
	Type         string      `json:"type"`
	ActorID      uuid.UUID   `json:"actorId"`
	CandidateID  *uuid.UUID  `json:"candidateId,omitempty"`
	CandidateIDs []uuid.UUID `json:"candidateIds,omitempty"`
	JobID        *uuid.UUID  `json:"jobId,omitempty"`
	From         string      `json:"from,omitempty"`
	To           string      `json:"to,omitempty"`
	Stage        string      `json:"stage,omitempty"`
	Outcome      string      `json:"outcome,omitempty"`
	NewOwnerID   *uuid.UUID  `json:"newOwnerId,omitempty"`
	Contacts     []string    `json:"contacts,omitempty"`
	At           time.Time   `json:"at"`
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// RedisPublisher publishes each event as JSON on a channel named after its type.
type RedisPublisher struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisPublisher returns a publisher on rdb. A non-empty prefix is prepended
// to every channel name as "<prefix>:<type>".
func NewRedisPublisher(rdb *redis.Client, prefix string) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, prefix: prefix}
}

// Channel returns the channel an event of the given type is published on.
func (p *RedisPublisher) Channel(eventType string) string {
	if p.prefix == "" {
		return eventType
	}
	return p.prefix + ":" + eventType
}

// Publish marshals e and publishes it.
func (p *RedisPublisher) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", e.Type, err)
	}
	if err := p.rdb.Publish(ctx, p.Channel(e.Type), payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	return nil
}

// NewRedisClient creates and verifies a Redis client connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return rdb, nil
}

// Nop discards every event.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, Event) error { return nil }

// Recorder keeps published events in memory. Err, when set, is returned from
// every Publish after the event is recorded.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	Err    error
}

// Publish implements Publisher.
func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.Err
}

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// OfType returns the recorded events with the given type.
func (r *Recorder) OfType(eventType string) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
