package models

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	EventViewsDbName  = "gatherly"
	EventViewsColName = "event_views"

	eventViewDedupWindow = time.Hour
	eventViewRetention   = 30 * 24 * time.Hour
)

type EventView struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	EventID   int64              `bson:"event_id" json:"event_id"`
	HostID    int64              `bson:"host_id" json:"host_id"`
	ViewerID  *int64             `bson:"viewer_id,omitempty" json:"viewer_id,omitempty"`
	SessionID string             `bson:"session_id" json:"session_id"`
	UserAgent string             `bson:"user_agent,omitempty" json:"user_agent,omitempty"`
	ViewedAt  time.Time          `bson:"viewed_at" json:"viewed_at"`
	// Bucket is ViewedAt truncated to the dedup window.
	Bucket    time.Time          `bson:"bucket" json:"-"`
	ExpiresAt time.Time          `bson:"expires_at" json:"expires_at"`
}

type EventViewStats struct {
	EventID       int64 `json:"event_id"`
	TotalViews    int64 `json:"total_views"`
	UniqueViews   int64 `json:"unique_views"`
	ViewsToday    int64 `json:"views_today"`
	ViewsThisWeek int64 `json:"views_this_week"`
}

type EventViewsRepo interface {
	TrackEventView(ctx context.Context, view *EventView) error
	GetEventViewStats(ctx context.Context, eventID int64, now time.Time) (*EventViewStats, error)
	EnsureIndexes(ctx context.Context) error
}

// EnsureIndexes creates the TTL and lookup indexes for event views.
func (mdb *MongodbRepo) EnsureIndexes(ctx context.Context) error {
	col, err := mdb.GetCollection(EventViewsDbName, EventViewsColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %w", err)
	}

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().
				SetExpireAfterSeconds(0).
				SetName("expires_at_ttl"),
		},
		{
			Keys: bson.D{
				{Key: "event_id", Value: 1},
				{Key: "session_id", Value: 1},
				{Key: "bucket", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetName("event_session_bucket_unique"),
		},
		{
			Keys: bson.D{
				{Key: "event_id", Value: 1},
				{Key: "viewed_at", Value: -1},
			},
			Options: options.Index().SetName("event_viewed_at_idx"),
		},
	}

	if _, err := col.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("error creating indexes: %w", err)
	}
	return nil
}

// TrackEventView records a view at most once per session per clock hour.
// A zero ViewedAt means now. The unique (event, session, bucket) index makes
// the upsert safe under concurrent reads from the same session.
func (mdb *MongodbRepo) TrackEventView(ctx context.Context, view *EventView) error {
	col, err := mdb.GetCollection(EventViewsDbName, EventViewsColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %w", err)
	}

	if view.ViewedAt.IsZero() {
		view.ViewedAt = time.Now()
	}
	view.ViewedAt = view.ViewedAt.UTC()
	view.Bucket = view.ViewedAt.Truncate(eventViewDedupWindow)
	view.ExpiresAt = view.ViewedAt.Add(eventViewRetention)

	insert := bson.M{
		"host_id":    view.HostID,
		"viewed_at":  view.ViewedAt,
		"expires_at": view.ExpiresAt,
	}
	if view.ViewerID != nil {
		insert["viewer_id"] = *view.ViewerID
	}
	if view.UserAgent != "" {
		insert["user_agent"] = view.UserAgent
	}

	_, err = col.UpdateOne(ctx,
		bson.M{
			"event_id":   view.EventID,
			"session_id": view.SessionID,
			"bucket":     view.Bucket,
		},
		bson.M{"$setOnInsert": insert},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		// a concurrent upsert for the same bucket won the insert
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("error recording event view: %w", err)
	}
	return nil
}

// GetEventViewStats aggregates views for one event. Today and this week are
// measured from now's local midnight and the preceding Sunday.
func (mdb *MongodbRepo) GetEventViewStats(ctx context.Context, eventID int64, now time.Time) (*EventViewStats, error) {
	col, err := mdb.GetCollection(EventViewsDbName, EventViewsColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	stats := &EventViewStats{EventID: eventID}

	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	startOfWeek := startOfDay.AddDate(0, 0, -int(now.Weekday()))

	if stats.TotalViews, err = col.CountDocuments(ctx, bson.M{"event_id": eventID}); err != nil {
		return nil, fmt.Errorf("error counting total views: %w", err)
	}

	uniquePipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"event_id": eventID}}},
		{{Key: "$group", Value: bson.M{"_id": "$session_id"}}},
		{{Key: "$count", Value: "unique_sessions"}},
	}
	cursor, err := col.Aggregate(ctx, uniquePipeline)
	if err != nil {
		return nil, fmt.Errorf("error aggregating unique views: %w", err)
	}
	defer cursor.Close(ctx)

	var uniqueResult []struct {
		UniqueSessions int64 `bson:"unique_sessions"`
	}
	if err := cursor.All(ctx, &uniqueResult); err != nil {
		return nil, fmt.Errorf("error decoding unique views: %w", err)
	}
	if len(uniqueResult) > 0 {
		stats.UniqueViews = uniqueResult[0].UniqueSessions
	}

	if stats.ViewsToday, err = col.CountDocuments(ctx, bson.M{
		"event_id":  eventID,
		"viewed_at": bson.M{"$gte": startOfDay},
	}); err != nil {
		return nil, fmt.Errorf("error counting today's views: %w", err)
	}

	if stats.ViewsThisWeek, err = col.CountDocuments(ctx, bson.M{
		"event_id":  eventID,
		"viewed_at": bson.M{"$gte": startOfWeek},
	}); err != nil {
		return nil, fmt.Errorf("error counting this week's views: %w", err)
	}

	return stats, nil
}
