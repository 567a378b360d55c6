package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/spec-kit/wallboard-service/internal/domain"
)

// Collection names in the document store.
const (
	StatusCollection  = "agent_status"
	MessageCollection = "messages"
)

// PresenceLogRepository appends and reads presence history and messages.
type PresenceLogRepository interface {
	InsertStatus(ctx context.Context, entry *domain.StatusLog) error
	ListStatusByAgent(ctx context.Context, agentCode string, limit int) ([]domain.StatusLog, error)
	InsertMessage(ctx context.Context, msg *domain.Message) error
	// ListMessagesFor returns direct messages to agentCode and, when teamID is
	// set, broadcasts to that team. Newest first.
	ListMessagesFor(ctx context.Context, agentCode string, teamID *int64, limit int) ([]domain.Message, error)
}

type statusLogDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	AgentCode string             `bson:"agentCode"`
	Status    string             `bson:"status"`
	TeamID    *int64             `bson:"teamId,omitempty"`
	SessionID string             `bson:"sessionId,omitempty"`
	Duration  *int64             `bson:"duration,omitempty"`
	Timestamp time.Time          `bson:"timestamp"`
}

type messageDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	FromCode  string             `bson:"fromCode"`
	ToCode    *string            `bson:"toCode,omitempty"`
	ToTeamID  *int64             `bson:"toTeamId,omitempty"`
	Content   string             `bson:"content"`
	Type      string             `bson:"type"`
	Priority  string             `bson:"priority"`
	IsRead    bool               `bson:"isRead"`
	ReadAt    *time.Time         `bson:"readAt,omitempty"`
	Timestamp time.Time          `bson:"timestamp"`
}

type mongoPresenceLogRepository struct {
	statuses *mongo.Collection
	messages *mongo.Collection
}

// NewMongoPresenceLogRepository returns a MongoDB-backed log repository.
func NewMongoPresenceLogRepository(db *mongo.Database) PresenceLogRepository {
	return &mongoPresenceLogRepository{
		statuses: db.Collection(StatusCollection),
		messages: db.Collection(MessageCollection),
	}
}

// EnsurePresenceIndexes creates the query indexes used by the log repository.
func EnsurePresenceIndexes(ctx context.Context, db *mongo.Database) error {
	statusIdx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "agentCode", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "teamId", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "timestamp", Value: -1}}},
	}
	if _, err := db.Collection(StatusCollection).Indexes().CreateMany(ctx, statusIdx); err != nil {
		return fmt.Errorf("create %s indexes: %w", StatusCollection, err)
	}

	messageIdx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "toCode", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "toTeamId", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "fromCode", Value: 1}, {Key: "timestamp", Value: -1}}},
	}
	if _, err := db.Collection(MessageCollection).Indexes().CreateMany(ctx, messageIdx); err != nil {
		return fmt.Errorf("create %s indexes: %w", MessageCollection, err)
	}
	return nil
}

func (r *mongoPresenceLogRepository) InsertStatus(ctx context.Context, entry *domain.StatusLog) error {
	doc := statusLogDocument{
		ID:        primitive.NewObjectID(),
		AgentCode: entry.AgentCode,
		Status:    string(entry.Status),
		TeamID:    entry.TeamID,
		SessionID: entry.SessionID,
		Duration:  entry.Duration,
		Timestamp: entry.Timestamp,
	}
	if _, err := r.statuses.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert status for %s: %w", entry.AgentCode, err)
	}
	entry.ID = doc.ID.Hex()
	return nil
}

func (r *mongoPresenceLogRepository) ListStatusByAgent(ctx context.Context, agentCode string, limit int) ([]domain.StatusLog, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := r.statuses.Find(ctx, bson.M{"agentCode": agentCode}, opts)
	if err != nil {
		return nil, fmt.Errorf("find status for %s: %w", agentCode, err)
	}
	defer cur.Close(ctx)

	var docs []statusLogDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode status for %s: %w", agentCode, err)
	}

	result := make([]domain.StatusLog, 0, len(docs))
	for _, doc := range docs {
		result = append(result, domain.StatusLog{
			ID:        doc.ID.Hex(),
			AgentCode: doc.AgentCode,
			Status:    domain.AgentStatus(doc.Status),
			TeamID:    doc.TeamID,
			SessionID: doc.SessionID,
			Duration:  doc.Duration,
			Timestamp: doc.Timestamp,
		})
	}
	return result, nil
}

func (r *mongoPresenceLogRepository) InsertMessage(ctx context.Context, msg *domain.Message) error {
	doc := messageDocument{
		ID:        primitive.NewObjectID(),
		FromCode:  msg.FromCode,
		ToCode:    msg.ToCode,
		ToTeamID:  msg.ToTeamID,
		Content:   msg.Content,
		Type:      string(msg.Type),
		Priority:  string(msg.Priority),
		IsRead:    msg.IsRead,
		ReadAt:    msg.ReadAt,
		Timestamp: msg.Timestamp,
	}
	if _, err := r.messages.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert message from %s: %w", msg.FromCode, err)
	}
	msg.ID = doc.ID.Hex()
	return nil
}

func (r *mongoPresenceLogRepository) ListMessagesFor(ctx context.Context, agentCode string, teamID *int64, limit int) ([]domain.Message, error) {
	clauses := bson.A{bson.M{"type": string(domain.MessageTypeDirect), "toCode": agentCode}}
	if teamID != nil {
		clauses = append(clauses, bson.M{"type": string(domain.MessageTypeBroadcast), "toTeamId": *teamID})
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := r.messages.Find(ctx, bson.M{"$or": clauses}, opts)
	if err != nil {
		return nil, fmt.Errorf("find messages for %s: %w", agentCode, err)
	}
	defer cur.Close(ctx)

	var docs []messageDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode messages for %s: %w", agentCode, err)
	}

	result := make([]domain.Message, 0, len(docs))
	for _, doc := range docs {
		result = append(result, domain.Message{
			ID:        doc.ID.Hex(),
			FromCode:  doc.FromCode,
			ToCode:    doc.ToCode,
			ToTeamID:  doc.ToTeamID,
			Content:   doc.Content,
			Type:      domain.MessageType(doc.Type),
			Priority:  domain.MessagePriority(doc.Priority),
			IsRead:    doc.IsRead,
			ReadAt:    doc.ReadAt,
			Timestamp: doc.Timestamp,
		})
	}
	return result, nil
}
