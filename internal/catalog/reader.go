// Package catalog reads the TSV catalog of petition templates and their raw
// text files, producing document records for the metadata store.
package catalog

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonesrussell/petition-pipeline/internal/domain"
	"github.com/jonesrussell/petition-pipeline/internal/logger"
)

// Catalog column names. The header is validated but missing columns only
// warn; each row is read with whatever columns exist.
var expectedColumns = []string{
	"document_id", "file_name", "content_path", "document_title", "summary",
	"first_lines", "document_category", "document_type", "legal_action",
	"legal_domain", "sub_areas_of_law", "jurisprudence_court", "version",
}

// subAreaSeparator splits the catalog's free-form sub-areas column.
const subAreaSeparator = ";"

// Reader parses the metadata TSV and resolves raw text content for each row.
type Reader struct {
	metadataPath string
	documentsDir string
	tagger       *Tagger
	logger       logger.Logger
}

// NewReader creates a catalog reader. tagger may be nil to skip tag
// extraction.
func NewReader(metadataPath, documentsDir string, tagger *Tagger, log logger.Logger) *Reader {
	return &Reader{
		metadataPath: metadataPath,
		documentsDir: documentsDir,
		tagger:       tagger,
		logger:       log,
	}
}

// Read parses every catalog row into a DocumentRecord. A missing or
// unreadable catalog file is fatal; a missing raw text file for a single row
// is not — the record is returned with null content and the pipeline will
// mark it errored during enrichment.
func (r *Reader) Read() ([]*domain.DocumentRecord, error) {
	f, err := os.Open(r.metadataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog %s: %w", r.metadataPath, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		r.logger.Warn("catalog file is empty", logger.String("path", r.metadataPath))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}
	var missing []string
	for _, name := range expectedColumns {
		if _, ok := columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		r.logger.Warn("catalog header is missing expected columns",
			logger.Strings("missing", missing))
	}

	var records []*domain.DocumentRecord
	rowNum := 1
	for {
		row, readErr := reader.Read()
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("failed to read catalog row %d: %w", rowNum+1, readErr)
		}
		rowNum++

		rec := r.parseRow(columns, row, rowNum)
		if rec != nil {
			records = append(records, rec)
		}
	}

	r.logger.Info("catalog parsed",
		logger.String("path", r.metadataPath),
		logger.Int("documents", len(records)))
	return records, nil
}

// parseRow builds one record, or nil when the row is unusable.
func (r *Reader) parseRow(columns map[string]int, row []string, rowNum int) *domain.DocumentRecord {
	field := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	fileName := field("file_name")
	if fileName == "" {
		r.logger.Warn("skipping catalog row without file_name",
			logger.Int("row", rowNum),
			logger.String("document_id", field("document_id")))
		return nil
	}

	documentID := field("document_id")
	if documentID == "" {
		// file_name must be unique for these rows; worth surfacing loudly.
		r.logger.Warn("catalog row has no document_id, falling back to file_name",
			logger.Int("row", rowNum),
			logger.String("file_name", fileName))
		documentID = fileName
	}

	contentPath := r.resolveContentPath(field("content_path"), fileName)
	content := r.readContent(contentPath, fileName, rowNum)

	rec := &domain.DocumentRecord{
		DocumentID:      documentID,
		FileName:        fileName,
		ContentPath:     contentPath,
		Title:           field("document_title"),
		Summary:         field("summary"),
		FirstLines:      field("first_lines"),
		Category:        field("document_category"),
		DocType:         field("document_type"),
		LegalAction:     field("legal_action"),
		LegalDomain:     field("legal_domain"),
		SubAreas:        parseSubAreas(field("sub_areas_of_law")),
		Court:           field("jurisprudence_court"),
		Version:         field("version"),
		FullTextContent: content,
		ExtractedTags:   domain.EncodedList{},
		Status:          domain.StatusPending,
	}

	if r.tagger != nil {
		rec.ExtractedTags = r.tagger.Tags(fileName, content.String)
	}
	return rec
}

// resolveContentPath turns the catalog's content_path column into a concrete
// file path: absolute paths pass through, relative paths resolve under the
// documents directory, and an empty column falls back to the file name.
func (r *Reader) resolveContentPath(contentPath, fileName string) string {
	if contentPath != "" {
		if filepath.IsAbs(contentPath) {
			return contentPath
		}
		return filepath.Join(r.documentsDir, contentPath)
	}
	return filepath.Join(r.documentsDir, fileName)
}

// readContent loads the raw text file. Failure is soft: the record continues
// with null content.
func (r *Reader) readContent(path, fileName string, rowNum int) sql.NullString {
	data, err := os.ReadFile(path)
	if err != nil {
		r.logger.Warn("raw text file unreadable, content will be null",
			logger.String("file_name", fileName),
			logger.String("path", path),
			logger.Int("row", rowNum),
			logger.Error(err))
		return sql.NullString{}
	}
	return sql.NullString{String: string(data), Valid: true}
}

// parseSubAreas accepts either a JSON-encoded list or the catalog's
// semicolon-separated form.
func parseSubAreas(raw string) domain.EncodedList {
	if raw == "" {
		return domain.EncodedList{}
	}
	if strings.HasPrefix(raw, "[") {
		return domain.DecodeList(raw)
	}
	return domain.SplitList(raw, subAreaSeparator)
}
