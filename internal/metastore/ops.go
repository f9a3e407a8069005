package metastore

import (
	"context"
	"encoding/json"

	"github.com/cubefs/diskcache/common/kvstore"
	"github.com/cubefs/diskcache/internal/mop"
)

// Store implements mop.Metastore: every OnApply arm from the operator
// pipeline lands here. Values are JSON-encoded, matching the Log Codec's own
// choice of plain encoding/json over codegen'd wire-protobuf (see
// internal/mop/logcodec.go) - one consistent serialization convention
// end to end rather than two.

func get(ctx context.Context, kv kvstore.Store, col kvstore.CF, key []byte, out interface{}) (bool, error) {
	raw, err := kv.GetRaw(ctx, col, key, nil)
	if err != nil {
		if err == kvstore.ErrNotFound {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, err
	}
	return true, nil
}

func put(ctx context.Context, kv kvstore.Store, col kvstore.CF, key []byte, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return kv.SetRaw(ctx, col, key, raw, nil)
}

func (s *Store) GetDentry(ctx context.Context, req *mop.GetDentryRequest, resp *mop.GetDentryResponse) error {
	kv := s.kv
	var d mop.Dentry
	found, err := get(ctx, kv, cfDentry, dentryKey(req.ParentInode, req.Name), &d)
	if err != nil {
		return err
	}
	if !found {
		resp.SetStatusCode(mop.StatusNotFound)
		return nil
	}
	resp.Dentry = d
	return nil
}

func (s *Store) ListDentry(ctx context.Context, req *mop.ListDentryRequest, resp *mop.ListDentryResponse) error {
	kv := s.kv
	prefix := dentryPrefix(req.ParentInode)
	marker := []byte(nil)
	if req.Start != "" {
		marker = dentryKey(req.ParentInode, req.Start)
	}
	lr := kv.List(ctx, cfDentry, prefix, marker, nil)
	defer lr.Close()

	limit := req.Limit
	dentries := make([]mop.Dentry, 0, limit)
	for {
		if limit > 0 && uint32(len(dentries)) >= limit {
			break
		}
		kg, vg, err := lr.ReadNext()
		if err != nil {
			break
		}
		if vg == nil {
			break
		}
		var d mop.Dentry
		if err := json.Unmarshal(vg.Value(), &d); err != nil {
			kg.Close()
			vg.Close()
			return err
		}
		kg.Close()
		vg.Close()
		dentries = append(dentries, d)
	}
	resp.Dentries = dentries
	return nil
}

func (s *Store) CreateDentry(ctx context.Context, req *mop.CreateDentryRequest, resp *mop.CreateDentryResponse) error {
	key := dentryKey(req.Dentry.ParentInode, req.Dentry.Name)
	if _, err := s.kv.GetRaw(ctx, cfDentry, key, nil); err == nil {
		resp.SetStatusCode(mop.StatusExists)
		return nil
	} else if err != kvstore.ErrNotFound {
		return err
	}
	return put(ctx, s.kv, cfDentry, key, req.Dentry)
}

func (s *Store) DeleteDentry(ctx context.Context, req *mop.DeleteDentryRequest, resp *mop.DeleteDentryResponse) error {
	key := dentryKey(req.ParentInode, req.Name)
	if _, err := s.kv.GetRaw(ctx, cfDentry, key, nil); err != nil {
		if err == kvstore.ErrNotFound {
			return nil // replaying a delete for an already-deleted dentry is a no-op
		}
		return err
	}
	return s.kv.Delete(ctx, cfDentry, key, nil)
}

func (s *Store) GetInode(ctx context.Context, req *mop.GetInodeRequest, resp *mop.GetInodeResponse) error {
	var a mop.InodeAttr
	found, err := get(ctx, s.kv, cfInode, inodeKey(req.Inode), &a)
	if err != nil {
		return err
	}
	if !found {
		resp.SetStatusCode(mop.StatusNotFound)
		return nil
	}
	resp.Attr = a
	return nil
}

func (s *Store) BatchGetInodeAttr(ctx context.Context, req *mop.BatchGetInodeAttrRequest, resp *mop.BatchGetInodeAttrResponse) error {
	keys := make([][]byte, len(req.Inodes))
	for i, ino := range req.Inodes {
		keys[i] = inodeKey(ino)
	}
	values, err := s.kv.MultiGet(ctx, cfInode, keys, nil)
	if err != nil {
		return err
	}
	attrs := make([]mop.InodeAttr, 0, len(values))
	for _, v := range values {
		if v == nil {
			continue
		}
		var a mop.InodeAttr
		if err := json.Unmarshal(v.Value(), &a); err != nil {
			v.Close()
			return err
		}
		v.Close()
		attrs = append(attrs, a)
	}
	resp.Attrs = attrs
	return nil
}

func (s *Store) BatchGetXAttr(ctx context.Context, req *mop.BatchGetXAttrRequest, resp *mop.BatchGetXAttrResponse) error {
	keys := make([][]byte, len(req.Keys))
	for i, k := range req.Keys {
		keys[i] = xattrKey(req.Inode, k)
	}
	values, err := s.kv.MultiGet(ctx, cfXAttr, keys, nil)
	if err != nil {
		return err
	}
	out := make([]mop.XAttr, 0, len(values))
	for i, v := range values {
		if v == nil {
			continue
		}
		out = append(out, mop.XAttr{Inode: req.Inode, Key: req.Keys[i], Value: append([]byte(nil), v.Value()...)})
		v.Close()
	}
	resp.XAttrs = out
	return nil
}

func (s *Store) CreateInode(ctx context.Context, req *mop.CreateInodeRequest, resp *mop.CreateInodeResponse) error {
	if err := put(ctx, s.kv, cfInode, inodeKey(req.Attr.Inode), req.Attr); err != nil {
		return err
	}
	resp.Inode = req.Attr.Inode
	return nil
}

func (s *Store) UpdateInode(ctx context.Context, req *mop.UpdateInodeRequest, resp *mop.UpdateInodeResponse) error {
	if _, err := s.kv.GetRaw(ctx, cfInode, inodeKey(req.Attr.Inode), nil); err != nil {
		if err == kvstore.ErrNotFound {
			resp.SetStatusCode(mop.StatusNotFound)
			return nil
		}
		return err
	}
	return put(ctx, s.kv, cfInode, inodeKey(req.Attr.Inode), req.Attr)
}

func (s *Store) DeleteInode(ctx context.Context, req *mop.DeleteInodeRequest, resp *mop.DeleteInodeResponse) error {
	if _, err := s.kv.GetRaw(ctx, cfInode, inodeKey(req.Inode), nil); err != nil {
		if err == kvstore.ErrNotFound {
			return nil
		}
		return err
	}
	return s.kv.Delete(ctx, cfInode, inodeKey(req.Inode), nil)
}

func (s *Store) CreateRootInode(ctx context.Context, req *mop.CreateRootInodeRequest, resp *mop.CreateRootInodeResponse) error {
	if _, err := s.kv.GetRaw(ctx, cfInode, inodeKey(req.Attr.Inode), nil); err == nil {
		return nil // root inode already created, idempotent
	} else if err != kvstore.ErrNotFound {
		return err
	}
	return put(ctx, s.kv, cfInode, inodeKey(req.Attr.Inode), req.Attr)
}

func (s *Store) CreateManageInode(ctx context.Context, req *mop.CreateManageInodeRequest, resp *mop.CreateManageInodeResponse) error {
	return put(ctx, s.kv, cfInode, inodeKey(req.Attr.Inode), req.Attr)
}

func (s *Store) CreatePartition(ctx context.Context, req *mop.CreatePartitionRequest, resp *mop.CreatePartitionResponse) error {
	key := partitionKey(req.Partition.PartitionID)
	if _, err := s.kv.GetRaw(ctx, cfPartition, key, nil); err == nil {
		resp.SetStatusCode(mop.StatusExists)
		return nil
	} else if err != kvstore.ErrNotFound {
		return err
	}
	return put(ctx, s.kv, cfPartition, key, req.Partition)
}

func (s *Store) DeletePartition(ctx context.Context, req *mop.DeletePartitionRequest, resp *mop.DeletePartitionResponse) error {
	key := partitionKey(req.PartitionIDToDelete)
	if _, err := s.kv.GetRaw(ctx, cfPartition, key, nil); err != nil {
		if err == kvstore.ErrNotFound {
			return nil
		}
		return err
	}
	return s.kv.Delete(ctx, cfPartition, key, nil)
}

// PrepareRenameTx writes the rename's dentry mutations as a single write
// batch, so either every dentry change lands or none of them does.
func (s *Store) PrepareRenameTx(ctx context.Context, req *mop.PrepareRenameTxRequest, resp *mop.PrepareRenameTxResponse) error {
	batch := s.kv.NewWriteBatch()
	defer batch.Close()
	for _, d := range req.Dentries {
		raw, err := json.Marshal(d)
		if err != nil {
			return err
		}
		batch.Put(cfDentry, dentryKey(d.ParentInode, d.Name), raw)
	}
	return s.kv.Write(ctx, batch, nil)
}

func (s *Store) GetVolumeExtent(ctx context.Context, req *mop.GetVolumeExtentRequest, resp *mop.GetVolumeExtentResponse) error {
	lr := s.kv.List(ctx, cfVolExtent, volExtentPrefix(req.Inode), nil, nil)
	defer lr.Close()
	var slices []mop.VolumeExtentSlice
	for {
		kg, vg, err := lr.ReadNext()
		if err != nil || vg == nil {
			break
		}
		var sl mop.VolumeExtentSlice
		if err := json.Unmarshal(vg.Value(), &sl); err != nil {
			kg.Close()
			vg.Close()
			return err
		}
		kg.Close()
		vg.Close()
		slices = append(slices, sl)
	}
	resp.Slices = slices
	return nil
}

func (s *Store) UpdateVolumeExtent(ctx context.Context, req *mop.UpdateVolumeExtentRequest, resp *mop.UpdateVolumeExtentResponse) error {
	batch := s.kv.NewWriteBatch()
	defer batch.Close()
	for _, sl := range req.Slices {
		raw, err := json.Marshal(sl)
		if err != nil {
			return err
		}
		batch.Put(cfVolExtent, volExtentKey(req.Inode, sl.SliceID), raw)
	}
	return s.kv.Write(ctx, batch, nil)
}

func (s *Store) UpdateDeallocatableBlockGroup(ctx context.Context, req *mop.UpdateDeallocatableBlockGroupRequest, resp *mop.UpdateDeallocatableBlockGroupResponse) error {
	return put(ctx, s.kv, cfDeallocBG, deallocBGKey(req.Group.BlockGroupID), req.Group)
}

func (s *Store) GetOrModifyS3ChunkInfo(ctx context.Context, req *mop.GetOrModifyS3ChunkInfoRequest, resp *mop.GetOrModifyS3ChunkInfoResponse) error {
	if len(req.Modifications) > 0 {
		batch := s.kv.NewWriteBatch()
		defer batch.Close()
		for _, c := range req.Modifications {
			raw, err := json.Marshal(c)
			if err != nil {
				return err
			}
			batch.Put(cfS3Chunk, s3ChunkKey(req.Inode, c.ChunkID), raw)
		}
		if err := s.kv.Write(ctx, batch, nil); err != nil {
			return err
		}
	}

	if !req.ReturnS3ChunkInfoMap {
		return nil
	}

	lr := s.kv.List(ctx, cfS3Chunk, s3ChunkPrefix(req.Inode), nil, nil)
	defer lr.Close()
	var chunks []mop.S3ChunkInfo
	for {
		kg, vg, err := lr.ReadNext()
		if err != nil || vg == nil {
			break
		}
		var c mop.S3ChunkInfo
		if err := json.Unmarshal(vg.Value(), &c); err != nil {
			kg.Close()
			vg.Close()
			return err
		}
		kg.Close()
		vg.Close()
		chunks = append(chunks, c)
	}
	resp.ChunkInfo = chunks
	return nil
}
