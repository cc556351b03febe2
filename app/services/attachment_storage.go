package services

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const attachmentsDir = "contact_attachments"

var (
	ErrAttachmentTooLarge  = errors.New("attachment exceeds size limit")
	ErrInvalidAttachPath   = errors.New("attachment path is outside the upload root")
	ErrAttachmentNotStored = errors.New("attachment file not found")
)

// StoredAttachment describes a file written by AttachmentStorage
type StoredAttachment struct {
	// Path is relative to the upload root, slash separated
	Path string
	Size int64
}

// AttachmentStorage persists contact form attachments
type AttachmentStorage interface {
	Save(r io.Reader, originalName string, maxBytes int64, now time.Time) (*StoredAttachment, error)
	Read(relPath string) ([]byte, string, error)
	Remove(relPath string) error
	AbsPath(relPath string) (string, error)
}

// DiskAttachmentStorage writes attachments under <root>/contact_attachments/YYYY/M/
type DiskAttachmentStorage struct {
	root string
}

func NewDiskAttachmentStorage(root string) *DiskAttachmentStorage {
	if root == "" {
		root = filepath.Join("data", "uploads")
	}
	return &DiskAttachmentStorage{root: root}
}

func (s *DiskAttachmentStorage) Save(r io.Reader, originalName string, maxBytes int64, now time.Time) (*StoredAttachment, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	dateDir := filepath.Join(attachmentsDir, fmt.Sprintf("%d", now.Year()), fmt.Sprintf("%d", int(now.Month())))
	baseDir := filepath.Join(s.root, dateDir)
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, err
	}

	filename := uuid.New().String() + ext
	fullPath := filepath.Join(baseDir, filename)
	dst, err := os.Create(fullPath)
	if err != nil {
		return nil, err
	}
	defer dst.Close()

	src := r
	if maxBytes > 0 {
		src = io.LimitReader(r, maxBytes+1)
	}
	written, err := io.Copy(dst, src)
	if err != nil {
		_ = os.Remove(fullPath)
		return nil, err
	}
	if maxBytes > 0 && written > maxBytes {
		_ = os.Remove(fullPath)
		return nil, ErrAttachmentTooLarge
	}

	return &StoredAttachment{
		Path: filepath.ToSlash(filepath.Join(dateDir, filename)),
		Size: written,
	}, nil
}

// AbsPath resolves a stored relative path, refusing anything outside the attachments directory
func (s *DiskAttachmentStorage) AbsPath(relPath string) (string, error) {
	if relPath == "" {
		return "", ErrInvalidAttachPath
	}
	cleaned := filepath.ToSlash(filepath.Clean(filepath.FromSlash(relPath)))
	if filepath.IsAbs(cleaned) || strings.HasPrefix(cleaned, "../") || cleaned == ".." {
		return "", ErrInvalidAttachPath
	}
	if !strings.HasPrefix(cleaned, attachmentsDir+"/") {
		return "", ErrInvalidAttachPath
	}
	return filepath.Join(s.root, filepath.FromSlash(cleaned)), nil
}

// Read returns the file content and a content type guessed from the extension
func (s *DiskAttachmentStorage) Read(relPath string) ([]byte, string, error) {
	full, err := s.AbsPath(relPath)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", ErrAttachmentNotStored
		}
		return nil, "", err
	}
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(full)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return data, contentType, nil
}

func (s *DiskAttachmentStorage) Remove(relPath string) error {
	full, err := s.AbsPath(relPath)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
