package ds

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/dgraph-io/badger"
)

// ErrStatusNotFound is returned when no job record exists for an id.
var ErrStatusNotFound = errors.New("job status not found")

// Pipeline stages, in execution order.
const (
	StageReceived    = "received"
	StageTranscoding = "transcoding"
	StagePublishing  = "publishing"
	StagePersisting  = "persisting"
	StageCompleted   = "completed"
	StageFailed      = "failed"
)

// JobStatus tracks one pipeline run, keyed by its upload id.
type JobStatus struct {
	UploadID   string    `json:"uploadId"`
	Stage      string    `json:"stage"`
	Percentage uint      `json:"percentage"`
	Error      string    `json:"error,omitempty"`
	VideoID    string    `json:"videoId,omitempty"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// StatusStore persists JobStatus records as JSON in badger.
type StatusStore struct {
	ds *Ds
}

func NewStatusStore(ds *Ds) *StatusStore {
	return &StatusStore{ds: ds}
}

func (s *StatusStore) Put(status JobStatus) error {
	status.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(status)
	if err != nil {
		return err
	}

	return s.ds.SetAndCommit([]byte(status.UploadID), data)
}

func (s *StatusStore) Get(uploadID string) (*JobStatus, error) {
	data, err := s.ds.Get([]byte(uploadID))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrStatusNotFound
		}
		return nil, err
	}

	var status JobStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, err
	}

	return &status, nil
}
