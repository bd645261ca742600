package config

// StorageConfig locates every file the monitor writes.
type StorageConfig struct {
	DataDir          string `json:"data_dir,omitempty" yaml:"data_dir,omitempty" validate:"required"`
	SnapshotDir      string `json:"snapshot_dir,omitempty" yaml:"snapshot_dir,omitempty" validate:"required"`
	LastDiffPath     string `json:"last_diff_path,omitempty" yaml:"last_diff_path,omitempty" validate:"required"`
	SQLiteDBPath     string `json:"sqlite_db_path,omitempty" yaml:"sqlite_db_path,omitempty" validate:"required"`
	HistoryDir       string `json:"history_dir,omitempty" yaml:"history_dir,omitempty"`
	HistoryLimit     int    `json:"history_limit,omitempty" yaml:"history_limit,omitempty" validate:"omitempty,min=1"`
	CompressionCodec string `json:"compression_codec,omitempty" yaml:"compression_codec,omitempty" validate:"omitempty,oneof=zstd snappy gzip none"`
	// PurgeSnapshotsOnDelete removes a task's snapshot directory when the task is deleted.
	PurgeSnapshotsOnDelete bool `json:"purge_snapshots_on_delete" yaml:"purge_snapshots_on_delete"`
}

// NewDefaultStorageConfig creates default storage configuration
func NewDefaultStorageConfig() StorageConfig {
	return StorageConfig{
		DataDir:          DefaultStorageDataDir,
		SnapshotDir:      DefaultStorageSnapshotDir,
		LastDiffPath:     DefaultStorageLastDiffPath,
		SQLiteDBPath:     DefaultStorageSQLitePath,
		HistoryDir:       DefaultStorageHistoryDir,
		HistoryLimit:     DefaultStorageHistoryLimit,
		CompressionCodec: DefaultStorageCompressCodec,
	}
}

// HistoryEnabled reports whether tick outcomes are written to parquet.
func (c StorageConfig) HistoryEnabled() bool {
	return c.HistoryDir != ""
}
