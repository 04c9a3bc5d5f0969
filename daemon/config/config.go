package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// CopyMode determines planner semantics for deciding which entries need
// transfer (spec §4.7).
type CopyMode string

const (
	CopyModeCopy   CopyMode = "copy"
	CopyModeSync   CopyMode = "sync"
	CopyModeUpdate CopyMode = "update"
	CopyModeMirror CopyMode = "mirror"
)

// CheckMode selects how files_need_transfer decides equality (spec §4.7).
type CheckMode string

const (
	CheckModeModTime  CheckMode = "modtime"
	CheckModeSize     CheckMode = "size"
	CheckModeChecksum CheckMode = "checksum"
	CheckModeDelta    CheckMode = "delta"
)

// SymlinkMode controls how the planner treats symbolic links.
type SymlinkMode string

const (
	SymlinkSkip     SymlinkMode = "skip"
	SymlinkFollow   SymlinkMode = "follow"
	SymlinkPreserve SymlinkMode = "preserve"
)

// ErrorMode selects the executor's failure-handling policy (spec §4.8).
type ErrorMode string

const (
	ErrorModeAbort   ErrorMode = "abort"
	ErrorModeSkip    ErrorMode = "skip"
	ErrorModePartial ErrorMode = "partial"
)

// InplaceSafety selects the in-place writer's crash-safety level (spec §4.4).
type InplaceSafety string

const (
	InplaceUnsafe    InplaceSafety = "unsafe"
	InplaceJournaled InplaceSafety = "journaled"
	InplaceReflink   InplaceSafety = "reflink"
)

// CompressionKind names the wire compression codec, if any.
type CompressionKind string

const (
	CompressionNone CompressionKind = "none"
	CompressionLZ4  CompressionKind = "lz4"
	CompressionZstd CompressionKind = "zstd"
)

// Compression carries the codec plus its level (meaningful for Zstd only).
type Compression struct {
	Kind  CompressionKind `yaml:"kind"`
	Level int             `yaml:"level"`
}

// Config holds copy-engine configuration. Fields map directly to the
// configuration contract enumerated in spec §6.
type Config struct {
	// RemoteListenAddress is the QUIC listener address used when this
	// config drives an internal/backend/remote.Server, rather than a
	// local-to-local job.
	RemoteListenAddress string `yaml:"remote_listen_address"`

	// Copy-engine options (spec §6 configuration contract).
	CopyMode         CopyMode      `yaml:"copy_mode"`
	CheckMode        CheckMode     `yaml:"check_mode"`
	Recursive        bool          `yaml:"recursive"`
	PreserveMetadata bool          `yaml:"preserve_metadata"`
	ResumeEnabled    bool          `yaml:"resume_enabled"`
	VerifyChecksum   bool          `yaml:"verify_checksum"`
	Compression      Compression   `yaml:"compression"`
	ChunkSize        int64         `yaml:"chunk_size"`
	BlockSize        int           `yaml:"block_size"`
	RetryAttempts    uint32        `yaml:"retry_attempts"`
	RetryDelaySecs   uint64        `yaml:"retry_delay_secs"`
	ExponentialBackoff bool        `yaml:"exponential_backoff"`
	MaxBandwidth     uint64        `yaml:"max_bandwidth"`
	Parallel         int           `yaml:"parallel"`
	SymlinkMode      SymlinkMode   `yaml:"symlink_mode"`
	ExcludePatterns  []string      `yaml:"exclude_patterns"`
	IncludePatterns  []string      `yaml:"include_patterns"`
	FilterFrom       string        `yaml:"filter_from"`
	DryRun           bool          `yaml:"dry_run"`
	UseZeroCopy      bool          `yaml:"use_zero_copy"`
	ErrorMode        ErrorMode     `yaml:"error_mode"`
	InplaceSafety    InplaceSafety `yaml:"inplace_safety"`
}

// DefaultConfig returns default configuration.
func DefaultConfig() *Config {
	return &Config{
		RemoteListenAddress: ":4433",

		CopyMode:           CopyModeCopy,
		CheckMode:          CheckModeModTime,
		Recursive:          false,
		PreserveMetadata:   false,
		ResumeEnabled:      false,
		VerifyChecksum:     true,
		Compression:        Compression{Kind: CompressionNone},
		ChunkSize:          1048576, // 1 MiB
		BlockSize:          4096,
		RetryAttempts:      3,
		RetryDelaySecs:     1,
		ExponentialBackoff: false,
		MaxBandwidth:       0,
		Parallel:           0,
		SymlinkMode:        SymlinkSkip,
		DryRun:             false,
		UseZeroCopy:        true,
		ErrorMode:          ErrorModeAbort,
		InplaceSafety:      InplaceJournaled,
	}
}

// LoadConfig reads a YAML configuration file, applying values on top of
// DefaultConfig so a partial file only overrides the fields it sets.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()
	if configPath == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
