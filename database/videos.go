package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vidmill/vidmill/models"
)

// ErrNotFound is returned when a lookup matches no document.
var ErrNotFound = errors.New("not found")

const queryTimeout = 5 * time.Second

// VideoStore is the CRUD-plus-listing adapter over the videos collection.
type VideoStore struct {
	coll *mongo.Collection
}

func NewVideoStore(coll *mongo.Collection) *VideoStore {
	return &VideoStore{coll: coll}
}

// Create inserts the record. The caller-built document already carries
// its ObjectID and CreatedAt; both are immutable afterwards.
func (s *VideoStore) Create(ctx context.Context, video *models.Video) (*models.Video, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if _, err := s.coll.InsertOne(ctx, video); err != nil {
		return nil, fmt.Errorf("insert video: %w", err)
	}

	return video, nil
}

func (s *VideoStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Video, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var video models.Video
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&video)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find video: %w", err)
	}

	return &video, nil
}

// FindByUploader returns every video a user has published, newest first.
func (s *VideoStore) FindByUploader(ctx context.Context, userID primitive.ObjectID) ([]models.Video, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.coll.Find(ctx, bson.M{"uploaded_by": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find uploads: %w", err)
	}
	defer cursor.Close(ctx)

	videos := []models.Video{}
	if err := cursor.All(ctx, &videos); err != nil {
		return nil, fmt.Errorf("decode uploads: %w", err)
	}

	return videos, nil
}

// List returns one page sorted by created_at descending. page and limit
// are assumed normalized by the caller (>= 1).
func (s *VideoStore) List(ctx context.Context, page, limit int64) (*models.VideoPage, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	total, err := s.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("count videos: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cursor, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer cursor.Close(ctx)

	videos := []models.Video{}
	if err := cursor.All(ctx, &videos); err != nil {
		return nil, fmt.Errorf("decode videos: %w", err)
	}

	return &models.VideoPage{
		Total:  total,
		Page:   page,
		Limit:  limit,
		Videos: videos,
	}, nil
}

// Update applies the non-nil fields and returns the updated record.
func (s *VideoStore) Update(ctx context.Context, id primitive.ObjectID, update models.VideoUpdate) (*models.Video, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	set := bson.M{}
	if update.Title != nil {
		set["title"] = *update.Title
	}
	if update.Description != nil {
		set["description"] = *update.Description
	}

	if len(set) > 0 {
		res, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
		if err != nil {
			return nil, fmt.Errorf("update video: %w", err)
		}
		if res.MatchedCount == 0 {
			return nil, ErrNotFound
		}
	}

	return s.FindByID(ctx, id)
}

func (s *VideoStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *VideoStore) Count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return s.coll.CountDocuments(ctx, bson.M{})
}
