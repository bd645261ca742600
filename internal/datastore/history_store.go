package datastore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aleister1102/changewatch/internal/config"
	"github.com/aleister1102/changewatch/internal/models"

	"github.com/parquet-go/parquet-go"
	"github.com/rs/zerolog"
)

const checkHistoryFile = "checks.parquet"

// ParquetCheckHistoryStore keeps one parquet file of tick outcomes per task.
// Appends rewrite the file, so each task is serialized on its own mutex.
type ParquetCheckHistoryStore struct {
	dir     string
	limit   int
	codec   string
	mutexes *KeyedMutex
	logger  zerolog.Logger
}

// NewParquetCheckHistoryStore creates a new ParquetCheckHistoryStore.
func NewParquetCheckHistoryStore(cfg config.StorageConfig, logger zerolog.Logger) (*ParquetCheckHistoryStore, error) {
	if err := os.MkdirAll(cfg.HistoryDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to ensure check history directory '%s': %w", cfg.HistoryDir, err)
	}
	limit := cfg.HistoryLimit
	if limit <= 0 {
		limit = config.DefaultStorageHistoryLimit
	}
	return &ParquetCheckHistoryStore{
		dir:     cfg.HistoryDir,
		limit:   limit,
		codec:   cfg.CompressionCodec,
		mutexes: NewKeyedMutex(logger),
		logger:  logger.With().Str("component", "CheckHistoryStore").Logger(),
	}, nil
}

// Append adds a record, dropping the oldest rows beyond the configured limit.
func (s *ParquetCheckHistoryStore) Append(record models.CheckRecord) error {
	path, err := taskPath(s.dir, record.TaskID, checkHistoryFile)
	if err != nil {
		return err
	}

	mu := s.mutexes.Get(record.TaskID)
	mu.Lock()
	defer mu.Unlock()

	existing, err := readCheckRecords(path)
	if err != nil {
		s.logger.Error().Err(err).Str("path", path).Msg("Error reading existing history file, will overwrite")
		existing = nil
	}

	all := append(existing, record)
	sortChronological(all)
	if len(all) > s.limit {
		all = all[len(all)-s.limit:]
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating history directory for task '%s': %w", record.TaskID, err)
	}
	return s.writeCheckRecords(path, all)
}

// List returns up to limit records of a task, newest first. limit <= 0 means all.
func (s *ParquetCheckHistoryStore) List(taskID string, limit int) ([]models.CheckRecord, error) {
	path, err := taskPath(s.dir, taskID, checkHistoryFile)
	if err != nil {
		return nil, err
	}

	mu := s.mutexes.Get(taskID)
	mu.Lock()
	records, err := readCheckRecords(path)
	mu.Unlock()
	if err != nil {
		return nil, err
	}

	sortChronological(records)
	newestFirst := make([]models.CheckRecord, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		newestFirst = append(newestFirst, records[i])
		if limit > 0 && len(newestFirst) == limit {
			break
		}
	}
	return newestFirst, nil
}

// Purge removes a task's history file.
func (s *ParquetCheckHistoryStore) Purge(taskID string) error {
	dir, err := taskPath(s.dir, taskID)
	if err != nil {
		return err
	}

	mu := s.mutexes.Get(taskID)
	mu.Lock()
	err = os.RemoveAll(dir)
	mu.Unlock()
	s.mutexes.Forget(taskID)

	if err != nil {
		return fmt.Errorf("removing history of task '%s': %w", taskID, err)
	}
	return nil
}

func (s *ParquetCheckHistoryStore) writeCheckRecords(path string, records []models.CheckRecord) error {
	tmpPath := path + ".tmp"
	file, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("opening history file '%s': %w", tmpPath, err)
	}

	writer := parquet.NewWriter(file, parquet.SchemaOf(models.CheckRecord{}), compressionOption(s.codec))
	for _, rec := range records {
		if err := writer.Write(rec); err != nil {
			file.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("writing history record for task '%s': %w", rec.TaskID, err)
		}
	}
	if err := writer.Close(); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("closing parquet writer for '%s': %w", tmpPath, err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing history file '%s': %w", tmpPath, err)
	}
	return os.Rename(tmpPath, path)
}

func readCheckRecords(path string) ([]models.CheckRecord, error) {
	osFile, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.CheckRecord{}, nil
		}
		return nil, fmt.Errorf("failed to open history file '%s': %w", path, err)
	}
	defer osFile.Close()

	stat, err := osFile.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat history file '%s': %w", path, err)
	}
	if stat.Size() == 0 {
		return []models.CheckRecord{}, nil
	}

	pqFile, err := parquet.OpenFile(osFile, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file '%s': %w", path, err)
	}

	reader := parquet.NewReader(pqFile)
	defer reader.Close()

	var records []models.CheckRecord
	for {
		var record models.CheckRecord
		if err := reader.Read(&record); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("error reading record from parquet file '%s': %w", path, err)
		}
		records = append(records, record)
	}
	return records, nil
}

func compressionOption(codec string) parquet.WriterOption {
	switch strings.ToLower(codec) {
	case "snappy":
		return parquet.Compression(&parquet.Snappy)
	case "gzip":
		return parquet.Compression(&parquet.Gzip)
	case "zstd":
		return parquet.Compression(&parquet.Zstd)
	default:
		return parquet.Compression(&parquet.Uncompressed)
	}
}

func sortChronological(records []models.CheckRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CheckedAtMs < records[j].CheckedAtMs
	})
}

