package services

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"site-admin/pkg/config"
)

type MediaFile struct {
	Name     string `json:"name"`
	Path     string `json:"path"` // path under the upload dir
	Size     int64  `json:"size"`
	URL      string `json:"url"` // public URL written into content
	MimeType string `json:"mime_type"`
}

var allowedMediaPrefixes = []string{"image/", "video/", "audio/", "application/pdf"}

func mediaAllowed(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		for _, prefix := range allowedMediaPrefixes {
			if strings.HasPrefix(m.String(), prefix) {
				return true
			}
		}
	}
	return false
}

// SaveMediaFile stores an uploaded part under UploadDir/<subtype>/ and returns
// its public URL. The stored name gets a timestamp so repeated uploads of the
// same file never overwrite each other.
func SaveMediaFile(header *multipart.FileHeader, subtype string) (*MediaFile, error) {
	src, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	mt, err := mimetype.DetectReader(src)
	if err != nil {
		return nil, fmt.Errorf("detect media type: %w", err)
	}
	if !mediaAllowed(mt) {
		return nil, fmt.Errorf("media type %s not allowed", mt.String())
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	filename := filepath.Base(header.Filename)
	filename = strings.ReplaceAll(filename, " ", "_")

	ext := filepath.Ext(filename)
	if ext == "" {
		ext = mt.Extension()
	}
	name := strings.TrimSuffix(filename, filepath.Ext(filename))
	filename = fmt.Sprintf("%s_%d%s", name, time.Now().UnixNano(), ext)

	fullMediaPath := SafeJoin(config.UploadDir, subtype, filename)
	if fullMediaPath == "" {
		return nil, fmt.Errorf("invalid media path")
	}
	if err := os.MkdirAll(filepath.Dir(fullMediaPath), 0755); err != nil {
		return nil, err
	}

	dst, err := os.Create(fullMediaPath)
	if err != nil {
		return nil, err
	}
	defer dst.Close()

	size, err := io.Copy(dst, src)
	if err != nil {
		return nil, err
	}

	rel := filepath.ToSlash(filepath.Join(subtype, filename))
	return &MediaFile{
		Name:     filename,
		Path:     rel,
		Size:     size,
		URL:      config.UploadURL + rel,
		MimeType: mt.String(),
	}, nil
}

// ListMediaFiles lists the uploads of one subtype.
func ListMediaFiles(subtype string) ([]MediaFile, error) {
	dir := SafeJoin(config.UploadDir, "", subtype)
	if dir == "" {
		return nil, fmt.Errorf("invalid media path")
	}
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []MediaFile{}, nil
	}
	if err != nil {
		return nil, err
	}

	files := []MediaFile{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		rel := filepath.ToSlash(filepath.Join(subtype, entry.Name()))
		mt, _ := mimetype.DetectFile(filepath.Join(dir, entry.Name()))
		mf := MediaFile{
			Name: entry.Name(),
			Path: rel,
			Size: info.Size(),
			URL:  config.UploadURL + rel,
		}
		if mt != nil {
			mf.MimeType = mt.String()
		}
		files = append(files, mf)
	}
	return files, nil
}

// DeleteMediaFile removes one upload.
func DeleteMediaFile(subtype, filename string) error {
	fullMediaPath := SafeJoin(config.UploadDir, subtype, filepath.Base(filename))
	if fullMediaPath == "" {
		return fmt.Errorf("invalid media path")
	}
	return os.Remove(fullMediaPath)
}
