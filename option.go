package blocktree

// SyncMode controls whether closing a tree flushes file data to disk
type SyncMode int

const (
	// SyncOnClose fdatasyncs the file after the header is written on Close.
	SyncOnClose SyncMode = iota

	// SyncOff leaves flushing to the operating system (testing/bulk loads
	// only). Data written since the last flush may be lost on power failure.
	SyncOff
)

// DefaultCacheSize is the default capacity, in node records, of the cache
// that serves repeated reads within a single operation.
const DefaultCacheSize = 64

// TreeOptions configures tree behavior.
type TreeOptions struct {
	logger    Logger
	syncMode  SyncMode
	cacheSize int // Records cached during one operation. 0 disables.
}

// DefaultTreeOptions returns safe default configuration.
func DefaultTreeOptions() TreeOptions {
	return TreeOptions{
		logger:    DiscardLogger{},
		syncMode:  SyncOnClose,
		cacheSize: DefaultCacheSize,
	}
}

// TreeOption configures tree options using the functional options pattern.
type TreeOption func(*TreeOptions)

// WithLogger sets the logger for tree lifecycle and structural events.
// *slog.Logger satisfies Logger directly.
func WithLogger(logger Logger) TreeOption {
	return func(opts *TreeOptions) {
		if logger == nil {
			logger = DiscardLogger{}
		}
		opts.logger = logger
	}
}

// WithSyncMode sets when file data is synced to disk.
func WithSyncMode(mode SyncMode) TreeOption {
	return func(opts *TreeOptions) {
		opts.syncMode = mode
	}
}

// WithCacheSize sets how many node records one operation may keep in
// memory. Nothing is cached across operations; 0 disables the cache and
// every node visit reads the file.
func WithCacheSize(records int) TreeOption {
	return func(opts *TreeOptions) {
		opts.cacheSize = max(records, 0)
	}
}
