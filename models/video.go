package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// DefaultTitle is stored when an upload carries no title field.
	DefaultTitle = "Untitled"
)

// Video is the metadata record persisted after a successful
// transcode-and-publish run. A record is only ever written whole:
// VideoUrl and PublicId come straight from the publisher result.
type Video struct {
	ID           primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	Title        string             `json:"title" bson:"title"`
	Description  string             `json:"description" bson:"description"`
	VideoUrl     string             `json:"videoUrl" bson:"video_url"`
	PublicId     string             `json:"publicId" bson:"public_id"`
	ThumbnailUrl string             `json:"thumbnailUrl" bson:"thumbnail_url"`
	Duration     float64            `json:"duration" bson:"duration"`
	Checksum     string             `json:"checksum,omitempty" bson:"checksum,omitempty"`
	UploadedBy   primitive.ObjectID `json:"uploadedBy" bson:"uploaded_by"`
	CreatedAt    time.Time          `json:"createdAt" bson:"created_at"`
}

// NewVideo applies the documented fallbacks: empty title becomes the
// placeholder, description and thumbnail default to "", duration to 0.
func NewVideo(title, description string, uploadedBy primitive.ObjectID) *Video {
	if title == "" {
		title = DefaultTitle
	}

	return &Video{
		ID:          primitive.NewObjectID(),
		Title:       title,
		Description: description,
		UploadedBy:  uploadedBy,
		CreatedAt:   time.Now().UTC(),
	}
}

// VideoPage is the paginated listing envelope.
type VideoPage struct {
	Total  int64   `json:"total"`
	Page   int64   `json:"page"`
	Limit  int64   `json:"limit"`
	Videos []Video `json:"videos"`
}

// VideoUpdate carries the caller-mutable fields for a metadata update.
// Nil pointers leave the stored value untouched.
type VideoUpdate struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}
