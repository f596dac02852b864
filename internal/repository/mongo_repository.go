package repository

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"time"

	"siteqa-reports/internal/config"
	"siteqa-reports/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	reportQueueCollection = "report_queue"
	membershipsCollection = "organization_members"
)

// mongoUnauthorizedCode is the server error code MongoDB returns when a
// role-based access rule rejects a command.
const mongoUnauthorizedCode = 13

// MongoRepository implements ReportRepository backed by MongoDB
type MongoRepository struct {
	client      *mongo.Client
	reports     *mongo.Collection
	memberships *mongo.Collection
}

// NewMongoRepository connects to MongoDB and prepares the collections
func NewMongoRepository(cfg config.MongoConfig) (*MongoRepository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	uri := cfg.URI
	if uri == "" {
		if cfg.Username != "" && cfg.Password != "" {
			userInfo := url.UserPassword(cfg.Username, cfg.Password)
			uri = fmt.Sprintf("mongodb://%s@%s:%s/%s?authSource=%s",
				userInfo.String(), cfg.Host, cfg.Port, cfg.Database, url.QueryEscape(cfg.AuthSource))
		} else {
			uri = fmt.Sprintf("mongodb://%s:%s/%s", cfg.Host, cfg.Port, cfg.Database)
		}
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	database := client.Database(cfg.Database)
	reports := database.Collection(reportQueueCollection)
	memberships := database.Collection(membershipsCollection)

	// Indexes for the list and sweep queries
	_, err = reports.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "organizationId", Value: 1}, {Key: "queuedAt", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "queuedAt", Value: 1}}},
	})
	if err != nil {
		// Index might already exist, that's okay
		log.Printf("Note: report_queue index creation: %v", err)
	}

	memberIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "organizationId", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := memberships.Indexes().CreateOne(ctx, memberIndex); err != nil {
		log.Printf("Note: organization_members index creation: %v", err)
	}

	return &MongoRepository{
		client:      client,
		reports:     reports,
		memberships: memberships,
	}, nil
}

// Close disconnects the underlying client
func (r *MongoRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}

func (r *MongoRepository) CreateReport(ctx context.Context, entry *models.ReportQueueEntry) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.reports.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}
	return nil
}

func (r *MongoRepository) GetReportByID(ctx context.Context, id string) (*models.ReportQueueEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var entry models.ReportQueueEntry
	err := r.reports.FindOne(ctx, bson.M{"_id": id}).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query report: %w", err)
	}
	return &entry, nil
}

func (r *MongoRepository) ListReportsByOrganization(ctx context.Context, organizationID string) ([]*models.ReportQueueEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "queuedAt", Value: -1}})
	cursor, err := r.reports.Find(ctx, bson.M{"organizationId": organizationID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*models.ReportQueueEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode reports: %w", err)
	}
	return entries, nil
}

func (r *MongoRepository) RequeueReport(ctx context.Context, id string) (*models.ReportQueueEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// Single conditional update: only a failed entry with retries remaining
	// transitions back to queued. The per-attempt fields are reset here.
	filter := bson.M{
		"_id":    id,
		"status": models.StatusFailed,
		"$expr":  bson.M{"$lt": bson.A{"$retryCount", "$maxRetries"}},
	}
	update := bson.M{
		"$set": bson.M{
			"status":   models.StatusQueued,
			"queuedAt": time.Now(),
			"progress": 0,
		},
		"$unset": bson.M{
			"errorMessage": "",
			"currentStep":  "",
			"startedAt":    "",
			"completedAt":  "",
			"failedAt":     "",
		},
		"$inc": bson.M{"retryCount": 1},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var entry models.ReportQueueEntry
	err := r.reports.FindOneAndUpdate(ctx, filter, update, opts).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to requeue report: %w", err)
	}
	return &entry, nil
}

func (r *MongoRepository) DeleteReport(ctx context.Context, id string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.reports.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		if isPermissionDenied(err) {
			return 0, &ErrPermissionDenied{Op: "delete", ReportID: id}
		}
		return 0, fmt.Errorf("failed to delete report: %w", err)
	}
	return result.DeletedCount, nil
}

func (r *MongoRepository) MarkProcessing(ctx context.Context, id string) error {
	now := time.Now()
	return r.transition(ctx, id, models.StatusQueued, bson.M{
		"$set": bson.M{"status": models.StatusProcessing, "startedAt": now},
	})
}

func (r *MongoRepository) UpdateProgress(ctx context.Context, id string, progress int, currentStep string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{"progress": progress, "currentStep": currentStep}}
	_, err := r.reports.UpdateOne(ctx, bson.M{"_id": id, "status": models.StatusProcessing}, update)
	if err != nil {
		return fmt.Errorf("failed to update progress: %w", err)
	}
	return nil
}

func (r *MongoRepository) MarkCompleted(ctx context.Context, id string, fileURL string, fileSizeBytes int64) error {
	if fileURL == "" {
		return models.ErrMissingFileURL
	}
	now := time.Now()
	return r.transition(ctx, id, models.StatusProcessing, bson.M{
		"$set": bson.M{
			"status":        models.StatusCompleted,
			"fileUrl":       fileURL,
			"fileSizeBytes": fileSizeBytes,
			"progress":      100,
			"completedAt":   now,
		},
		"$unset": bson.M{"currentStep": ""},
	})
}

func (r *MongoRepository) MarkFailed(ctx context.Context, id string, errorMessage string) error {
	if errorMessage == "" {
		errorMessage = "report generation failed"
	}
	now := time.Now()
	return r.transition(ctx, id, models.StatusProcessing, bson.M{
		"$set": bson.M{
			"status":       models.StatusFailed,
			"errorMessage": errorMessage,
			"failedAt":     now,
		},
	})
}

// transition applies update to the entry only while it is in fromStatus
func (r *MongoRepository) transition(ctx context.Context, id string, fromStatus models.ReportStatus, update bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.reports.UpdateOne(ctx, bson.M{"_id": id, "status": fromStatus}, update)
	if err != nil {
		return fmt.Errorf("failed to update report status: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: report %s is not %s", models.ErrInvalidTransition, id, fromStatus)
	}
	return nil
}

func (r *MongoRepository) ListStalledQueued(ctx context.Context, olderThan time.Time) ([]*models.ReportQueueEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"status":   models.StatusQueued,
		"queuedAt": bson.M{"$lt": olderThan},
	}
	cursor, err := r.reports.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query stalled reports: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*models.ReportQueueEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode stalled reports: %w", err)
	}
	return entries, nil
}

func (r *MongoRepository) GetMemberships(ctx context.Context, userID string) ([]models.Membership, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := r.memberships.Find(ctx, bson.M{"userId": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to query memberships: %w", err)
	}
	defer cursor.Close(ctx)

	var memberships []models.Membership
	if err := cursor.All(ctx, &memberships); err != nil {
		return nil, fmt.Errorf("failed to decode memberships: %w", err)
	}
	return memberships, nil
}

// isPermissionDenied reports whether err is an explicit access-control
// rejection from the server rather than an ordinary failure.
func isPermissionDenied(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Code == mongoUnauthorizedCode
	}
	return false
}
