package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RotationEvent announces a task retirement and, when available, the identity
// of its replacement. Delivery to end users is a downstream concern.
type RotationEvent struct {
	TaskID        uint      `json:"task_id"`
	ReplacementID uint      `json:"replacement_id,omitempty"`
	SkillCategory string    `json:"skill_category"`
	Reason        string    `json:"reason"`
	RotatedAt     time.Time `json:"rotated_at"`
}

// RotationEventPublisher fans rotation events out to interested consumers.
type RotationEventPublisher interface {
	PublishRotated(ctx context.Context, event RotationEvent) error
}

type rotationEventEnvelope struct {
	Source string        `json:"source"`
	Event  RotationEvent `json:"event"`
	SentAt time.Time     `json:"sent_at"`
}

type brokerRotationPublisher struct {
	redis       *redis.Client
	redisStream string
	nats        *nats.Conn
	natsSubject string
	logger      zerolog.Logger
	nodeID      string
}

// NewRotationEventPublisher builds a publisher that mirrors events to Redis
// pub/sub and NATS. Either client may be nil; publishing then skips that leg.
func NewRotationEventPublisher(redisClient *redis.Client, natsConn *nats.Conn, channelBase string, logger zerolog.Logger) RotationEventPublisher {
	stream := ""
	subject := ""
	if channelBase != "" {
		stream = channelBase + ":rotations"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".rotations"
	}

	return &brokerRotationPublisher{
		redis:       redisClient,
		redisStream: stream,
		nats:        natsConn,
		natsSubject: subject,
		logger:      logger.With().Str("component", "rotation_events").Logger(),
		nodeID:      uuid.NewString(),
	}
}

func (p *brokerRotationPublisher) PublishRotated(ctx context.Context, event RotationEvent) error {
	envelope := rotationEventEnvelope{
		Source: p.nodeID,
		Event:  event,
		SentAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	if p.redis != nil && p.redisStream != "" {
		if err := p.redis.Publish(ctx, p.redisStream, payload).Err(); err != nil {
			return err
		}
	}

	if p.nats != nil && p.natsSubject != "" {
		if err := p.nats.Publish(p.natsSubject, payload); err != nil {
			return err
		}
	}

	return nil
}
