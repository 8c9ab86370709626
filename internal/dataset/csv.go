// Package dataset reads and writes the medicine table as CSV.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ppiankov/medusecase/internal/model"
)

// Load reads a CSV file into a dataset
func Load(path string) (*model.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	ds, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ds, nil
}

// Read parses CSV from r. The first record is the header.
func Read(r io.Reader) (*model.Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		// Spreadsheet exports often start with a UTF-8 BOM
		header[0] = trimBOM(header[0])
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	return model.NewDataset(header, rows)
}

// Write serializes the dataset as CSV
func Write(w io.Writer, ds *model.Dataset) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(ds.Header); err != nil {
		return err
	}
	if err := writer.WriteAll(ds.Rows); err != nil {
		return err
	}
	return writer.Error()
}

// Save overwrites path with the dataset. The file is written next to the
// target and renamed into place, so an interrupted save leaves the previous
// checkpoint intact.
func Save(path string, ds *model.Dataset) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Write(tmp, ds); err != nil {
		tmp.Close()
		return fmt.Errorf("write dataset: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync dataset: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close dataset: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("chmod dataset: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// Exists reports whether path names a regular file
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Store persists a dataset to one fixed path
type Store struct {
	Path string
}

// Save writes ds to the store's path
func (s Store) Save(ds *model.Dataset) error {
	return Save(s.Path, ds)
}

func trimBOM(s string) string {
	const bom = "\ufeff"
	if len(s) >= len(bom) && s[:len(bom)] == bom {
		return s[len(bom):]
	}
	return s
}
