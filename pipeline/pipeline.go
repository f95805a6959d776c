package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vidmill/vidmill/ds"
	"github.com/vidmill/vidmill/models"
	"github.com/vidmill/vidmill/publisher"
	"github.com/vidmill/vidmill/services"
	"github.com/vidmill/vidmill/transcoder"
)

// Transcoder converts one input file into one output file. Start
// delivers exactly one terminal result on the returned channel.
type Transcoder interface {
	Start(ctx context.Context, inputPath, outputPath string, opts transcoder.Options) <-chan error
	Probe(ctx context.Context, path string) (float64, error)
	ExtractFrame(ctx context.Context, inputPath, framePath string) error
}

// Publisher moves a local file into the remote media store.
type Publisher interface {
	Publish(ctx context.Context, localPath string) (*publisher.Result, error)
}

// VideoCreator persists the finished metadata record.
type VideoCreator interface {
	Create(ctx context.Context, video *models.Video) (*models.Video, error)
}

// StatusSink records pipeline progress per upload id.
type StatusSink interface {
	Put(status ds.JobStatus) error
}

// Request carries everything one pipeline run needs.
type Request struct {
	UploadID    string
	InputPath   string
	ContentType string
	Title       string
	Description string
	Duration    float64
	Checksum    string
	UploadedBy  primitive.ObjectID
}

// Pipeline orchestrates transcode, publish and persist for a single
// uploaded file. Runs are independent; there is no shared state between
// concurrent invocations beyond the filesystem, and output paths embed
// the upload's uuid so they cannot collide.
type Pipeline struct {
	transcoder Transcoder
	publisher  Publisher
	videos     VideoCreator
	statuses   StatusSink

	outputDir        string
	transcodeTimeout time.Duration
}

func New(t Transcoder, p Publisher, videos VideoCreator, statuses StatusSink, outputDir string, transcodeTimeout time.Duration) *Pipeline {
	return &Pipeline{
		transcoder:       t,
		publisher:        p,
		videos:           videos,
		statuses:         statuses,
		outputDir:        outputDir,
		transcodeTimeout: transcodeTimeout,
	}
}

// Process runs the full upload pipeline and returns the persisted
// record. Steps are strictly sequential: the transcoder's terminal
// signal is awaited before anything else happens. Local input and
// output files are removed best-effort on every exit path.
func (p *Pipeline) Process(ctx context.Context, req Request) (*models.Video, error) {
	if req.UploadedBy.IsZero() {
		return nil, fmt.Errorf("%w: missing requester identity", ErrInvalidInput)
	}
	if !strings.HasPrefix(req.ContentType, "video/") {
		return nil, fmt.Errorf("%w: Invalid file type", ErrInvalidInput)
	}
	if _, err := os.Stat(req.InputPath); err != nil {
		return nil, fmt.Errorf("%w: input file not readable: %v", ErrInvalidInput, err)
	}

	outputPath := filepath.Join(p.outputDir, req.UploadID+"_out.mp4")
	framePath := filepath.Join(p.outputDir, req.UploadID+"_frame.jpg")

	defer p.cleanup(req.InputPath, outputPath, framePath)

	p.report(req.UploadID, ds.StageTranscoding, 10, "", "")

	if err := p.transcode(ctx, req.InputPath, outputPath); err != nil {
		p.report(req.UploadID, ds.StageFailed, 0, err.Error(), "")
		return nil, err
	}

	duration := req.Duration
	if duration == 0 {
		if probed, err := p.transcoder.Probe(ctx, outputPath); err == nil {
			duration = probed
		} else {
			log.Warn().Err(err).Str("upload_id", req.UploadID).Msg("could not probe duration")
		}
	}

	thumbnailURL := p.makeThumbnail(ctx, req, framePath)

	p.report(req.UploadID, ds.StagePublishing, 60, "", "")

	published, err := p.publisher.Publish(ctx, outputPath)
	if err != nil {
		p.report(req.UploadID, ds.StageFailed, 0, err.Error(), "")
		return nil, fmt.Errorf("%w: %v", ErrPublish, err)
	}
	if thumbnailURL == "" {
		thumbnailURL = published.ThumbnailURL
	}

	p.report(req.UploadID, ds.StagePersisting, 90, "", "")

	video := models.NewVideo(req.Title, req.Description, req.UploadedBy)
	video.VideoUrl = published.URL
	video.PublicId = published.ContentID
	video.ThumbnailUrl = thumbnailURL
	video.Duration = duration
	video.Checksum = req.Checksum

	saved, err := p.videos.Create(ctx, video)
	if err != nil {
		p.report(req.UploadID, ds.StageFailed, 0, err.Error(), "")
		return nil, fmt.Errorf("%w: %v", ErrPersist, err)
	}

	p.report(req.UploadID, ds.StageCompleted, 100, "", saved.ID.Hex())

	log.Info().
		Str("upload_id", req.UploadID).
		Str("video_id", saved.ID.Hex()).
		Str("url", saved.VideoUrl).
		Msg("upload pipeline completed")

	return saved, nil
}

// transcode awaits the single terminal signal, bounded by the
// configured timeout. Expiry maps to the transcode failure class.
func (p *Pipeline) transcode(ctx context.Context, inputPath, outputPath string) error {
	tctx := ctx
	if p.transcodeTimeout > 0 {
		var cancel context.CancelFunc
		tctx, cancel = context.WithTimeout(ctx, p.transcodeTimeout)
		defer cancel()
	}

	if err := <-p.transcoder.Start(tctx, inputPath, outputPath, transcoder.DefaultOptions); err != nil {
		return fmt.Errorf("%w: %v", ErrTranscode, err)
	}

	return nil
}

// makeThumbnail is best-effort: any failure logs and yields "".
func (p *Pipeline) makeThumbnail(ctx context.Context, req Request, framePath string) string {
	if err := p.transcoder.ExtractFrame(ctx, req.InputPath, framePath); err != nil {
		log.Warn().Err(err).Str("upload_id", req.UploadID).Msg("could not extract thumbnail frame")
		return ""
	}

	thumb, err := services.NewThumbnailFromFile(framePath)
	if err != nil {
		log.Warn().Err(err).Str("upload_id", req.UploadID).Msg("could not decode thumbnail frame")
		return ""
	}
	defer thumb.Delete()

	if err := thumb.Resize(); err != nil {
		log.Warn().Err(err).Str("upload_id", req.UploadID).Msg("could not resize thumbnail")
		return ""
	}

	published, err := p.publisher.Publish(ctx, thumb.GetTmpPath())
	if err != nil {
		log.Warn().Err(err).Str("upload_id", req.UploadID).Msg("could not publish thumbnail")
		return ""
	}

	return published.URL
}

// cleanup removes local artifacts. Deletion failures are logged, never
// surfaced: leaked temp files must not fail an otherwise good run.
func (p *Pipeline) cleanup(paths ...string) {
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", path).Msg("could not remove local file")
		}
	}
}

func (p *Pipeline) report(uploadID, stage string, percentage uint, errMsg, videoID string) {
	if p.statuses == nil {
		return
	}

	err := p.statuses.Put(ds.JobStatus{
		UploadID:   uploadID,
		Stage:      stage,
		Percentage: percentage,
		Error:      errMsg,
		VideoID:    videoID,
	})
	if err != nil {
		log.Warn().Err(err).Str("upload_id", uploadID).Msg("could not record job status")
	}
}
