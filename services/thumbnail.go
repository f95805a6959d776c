package services

import (
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/nfnt/resize"
)

const (
	thumbMaxWidth  = 500
	thumbMaxHeight = 500
)

// Thumbnail holds a decoded image and the temp path its resized jpeg
// rendition is written to.
type Thumbnail struct {
	img     image.Image
	tmpPath string
}

func NewThumbnail(r io.Reader) (*Thumbnail, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	return &Thumbnail{
		img:     img,
		tmpPath: filepath.Join(os.TempDir(), uuid.New().String()+".jpg"),
	}, nil
}

// NewThumbnailFromFile decodes an image already on disk.
func NewThumbnailFromFile(path string) (*Thumbnail, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return NewThumbnail(f)
}

// Resize writes the bounded jpeg rendition to the temp path.
func (t *Thumbnail) Resize() error {
	tmp, err := os.Create(t.tmpPath)
	if err != nil {
		return err
	}
	defer tmp.Close()

	sized := resize.Thumbnail(thumbMaxWidth, thumbMaxHeight, t.img, resize.Lanczos3)
	return jpeg.Encode(tmp, sized, nil)
}

func (t *Thumbnail) GetTmpPath() string {
	return t.tmpPath
}

func (t *Thumbnail) Delete() error {
	return os.Remove(t.tmpPath)
}
