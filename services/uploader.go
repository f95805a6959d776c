package services

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/vidmill/vidmill/utils"
)

// Uploader owns one uploaded file: its temp directory, content-type
// gates and cleanup. Every upload gets a uuid so concurrent requests
// can never collide on disk.
type Uploader struct {
	ID     uuid.UUID
	File   multipart.File
	Header *multipart.FileHeader

	baseDir string
}

func NewUploader(baseDir string, file multipart.File, header *multipart.FileHeader) *Uploader {
	return &Uploader{
		ID:      uuid.New(),
		File:    file,
		Header:  header,
		baseDir: baseDir,
	}
}

func (u *Uploader) GetID() string {
	return u.ID.String()
}

func (u *Uploader) GetName() string {
	return u.Header.Filename
}

func (u *Uploader) GetContentType() string {
	return u.Header.Header.Get("Content-Type")
}

func (u *Uploader) GetExtension() string {
	return filepath.Ext(u.Header.Filename)
}

func (u *Uploader) IsVideo() bool {
	return strings.HasPrefix(u.GetContentType(), "video/")
}

func (u *Uploader) IsImage() bool {
	contentType := u.GetContentType()
	return contentType == "image/jpeg" || contentType == "image/png"
}

// GetDir is the per-upload temp directory.
func (u *Uploader) GetDir() string {
	return filepath.Join(u.baseDir, u.GetID())
}

// GetOriginalFilePath is where SaveOriginal writes the raw bytes.
func (u *Uploader) GetOriginalFilePath() string {
	return filepath.Join(u.GetDir(), "original"+u.GetExtension())
}

// SaveOriginal writes the uploaded bytes to disk, returning the local
// path and the sha256 checksum computed during the copy.
func (u *Uploader) SaveOriginal() (string, string, error) {
	if err := os.MkdirAll(u.GetDir(), 0755); err != nil {
		return "", "", fmt.Errorf("create upload dir: %w", err)
	}

	path := u.GetOriginalFilePath()
	out, err := os.Create(path)
	if err != nil {
		return "", "", fmt.Errorf("create upload file: %w", err)
	}

	if _, err := io.Copy(out, u.File); err != nil {
		out.Close()
		return "", "", fmt.Errorf("write upload file: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", "", fmt.Errorf("write upload file: %w", err)
	}

	saved, err := os.Open(path)
	if err != nil {
		return "", "", fmt.Errorf("reopen upload file: %w", err)
	}
	defer saved.Close()

	checksum, err := utils.CalculateFileHash(saved)
	if err != nil {
		return "", "", fmt.Errorf("checksum upload file: %w", err)
	}

	return path, checksum, nil
}

// RemoveAll deletes the upload's temp directory and everything in it.
func (u *Uploader) RemoveAll() error {
	return os.RemoveAll(u.GetDir())
}
