package mop

// Config bundles everything a daemon needs to stand up one partition's
// operator pipeline: the Apply Queue shard count and the lease window the
// Node uses to decide whether reads may bypass Propose.
type Config struct {
	ApplyQueueShards int          `json:"apply_queue_shards"`
	Lease            LeaseConfig `json:"lease"`
}

func (c Config) shards() int {
	if c.ApplyQueueShards <= 0 {
		return 8
	}
	return c.ApplyQueueShards
}

// NewApplyQueueFromConfig builds the ApplyQueue a Node should be constructed
// with, sized per cfg.
func NewApplyQueueFromConfig(cfg Config) *ApplyQueue {
	return NewApplyQueue(cfg.shards())
}
