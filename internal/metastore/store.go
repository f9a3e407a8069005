package metastore

import (
	"context"

	"github.com/cubefs/diskcache/common/kvstore"
)

// Config mirrors shardserver/store.Config: a rocksdb data directory plus the
// tuning knobs exposed through kvstore.Option.
type Config struct {
	Path     string         `json:"path"`
	KVOption kvstore.Option `json:"kv_option"`
}

// Store is the Metastore's durable backing: one rocksdb column family per
// entity kind (dentry, inode, xattr, partition, volume extent, s3 chunk
// info, deallocatable block group). Generalized from
// shardserver/store.Store, which wraps a single kvstore.Store the same way
// but leaves column-family creation to its caller.
type Store struct {
	kv kvstore.Store
}

func NewStore(ctx context.Context, cfg *Config) (*Store, error) {
	kv, err := kvstore.NewKVStore(ctx, cfg.Path+"/kv", kvstore.RocksdbLsmKVType, &cfg.KVOption)
	if err != nil {
		return nil, err
	}
	for _, cf := range allColumnFamilies() {
		if kv.CheckColumns(cf) {
			continue
		}
		if err := kv.CreateColumn(cf); err != nil {
			kv.Close()
			return nil, err
		}
	}
	return &Store{kv: kv}, nil
}

func (s *Store) KVStore() kvstore.Store { return s.kv }

func (s *Store) Close() { s.kv.Close() }
