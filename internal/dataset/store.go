// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dataset

import (
	"database/sql"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/image/draw"

	"github.com/pdiddy/manim-dataset/pkg/types"
)

// ImageFile is the name of the image store inside the output directory.
const ImageFile = "image_data.db"

// ImageStore keeps fixed-size RGB images in a SQLite database. Images are
// addressed by a sequential zero-based index; scene_indices records, per
// scene, the image count after that scene was processed.
type ImageStore struct {
	db   *sql.DB
	next int
}

// NewImageStore creates a fresh store at path, replacing any existing one.
func NewImageStore(path string) (*ImageStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating image store directory: %w", err)
	}
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("removing old image store: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening image store: %w", err)
	}
	s := &ImageStore{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// OpenImageStore opens an existing store for reading.
func OpenImageStore(path string) (*ImageStore, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("opening image store: %w", err)
	}
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("opening image store: %w", err)
	}
	s := &ImageStore{db: db}
	n, err := s.Count()
	if err != nil {
		db.Close()
		return nil, err
	}
	s.next = n
	return s, nil
}

// Close releases the database connection.
func (s *ImageStore) Close() error {
	return s.db.Close()
}

func (s *ImageStore) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS images (
			idx INTEGER PRIMARY KEY,
			source_path TEXT NOT NULL,
			height INTEGER NOT NULL,
			width INTEGER NOT NULL,
			channels INTEGER NOT NULL,
			data BLOB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS scene_indices (
			position INTEGER PRIMARY KEY,
			scene TEXT NOT NULL,
			end_index INTEGER NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Add loads the image at path, resizes it to ImageSize x ImageSize RGB,
// and stores it under the next index, which it returns.
func (s *ImageStore) Add(path string) (int, error) {
	pix, err := LoadRGB(path, types.ImageSize)
	if err != nil {
		return 0, err
	}
	idx := s.next
	_, err = s.db.Exec(
		`INSERT INTO images (idx, source_path, height, width, channels, data) VALUES (?, ?, ?, ?, ?, ?)`,
		idx, path, types.ImageSize, types.ImageSize, types.ImageChannels, pix,
	)
	if err != nil {
		return 0, fmt.Errorf("storing image %s: %w", path, err)
	}
	s.next++
	return idx, nil
}

// Len returns the number of images added through this handle.
func (s *ImageStore) Len() int { return s.next }

// MarkScene records the current image count as the end index of a scene.
func (s *ImageStore) MarkScene(position int, scene string) error {
	_, err := s.db.Exec(
		`INSERT INTO scene_indices (position, scene, end_index) VALUES (?, ?, ?)`,
		position, scene, s.next,
	)
	if err != nil {
		return fmt.Errorf("recording scene index for %s: %w", scene, err)
	}
	return nil
}

// Count returns the number of stored images.
func (s *ImageStore) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT count(*) FROM images`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting images: %w", err)
	}
	return n, nil
}

// Image returns the packed RGB bytes stored at idx.
func (s *ImageStore) Image(idx int) ([]byte, error) {
	var data []byte
	err := s.db.QueryRow(`SELECT data FROM images WHERE idx = ?`, idx).Scan(&data)
	if err != nil {
		return nil, fmt.Errorf("reading image %d: %w", idx, err)
	}
	return data, nil
}

// SceneIndices returns the recorded end index of every scene, in order.
func (s *ImageStore) SceneIndices() ([]int, error) {
	rows, err := s.db.Query(`SELECT end_index FROM scene_indices ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("reading scene indices: %w", err)
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var end int
		if err := rows.Scan(&end); err != nil {
			return nil, fmt.Errorf("scanning scene index: %w", err)
		}
		out = append(out, end)
	}
	return out, rows.Err()
}

// LoadRGB decodes an image file and resizes it to size x size with
// bilinear interpolation, returning packed RGB bytes. Gray images are
// expanded to three channels and alpha is dropped.
func LoadRGB(path string, size int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image %s: %w", path, err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding image %s: %w", path, err)
	}
	return ResizeRGB(src, size), nil
}

// ResizeRGB scales src to size x size and packs it as RGB bytes.
func ResizeRGB(src image.Image, size int) []byte {
	dst := image.NewNRGBA(image.Rect(0, 0, size, size))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	out := make([]byte, 0, size*size*types.ImageChannels)
	for i := 0; i < len(dst.Pix); i += 4 {
		out = append(out, dst.Pix[i], dst.Pix[i+1], dst.Pix[i+2])
	}
	return out
}
