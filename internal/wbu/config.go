package wbu

import "time"

// Config configures one Uploader instance.
type Config struct {
	CacheDir      string `json:"cache_dir"`
	PrefixDepth   uint32 `json:"prefix_depth"`
	PeriodMs      uint64 `json:"period_ms"`
	UploadWorkers int    `json:"upload_workers"`
	ForceFsync    bool   `json:"force_fsync"`

	// UploadMBPS caps aggregate upload bandwidth across the whole uploader
	// loop. Zero means unlimited.
	UploadMBPS int `json:"upload_mbps"`
}

func (c *Config) period() time.Duration {
	if c.PeriodMs == 0 {
		return time.Second
	}
	return time.Duration(c.PeriodMs) * time.Millisecond
}

func (c *Config) workers() int {
	if c.UploadWorkers <= 0 {
		return 16
	}
	return c.UploadWorkers
}
