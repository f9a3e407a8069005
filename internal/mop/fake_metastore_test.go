package mop

import (
	"context"
	"sync"
)

// fakeMetastore keeps inodes in memory; it is just enough to drive the
// operator dispatch tables end to end in tests.
type fakeMetastore struct {
	mu            sync.Mutex
	inodes        map[uint64]InodeAttr
	nextID        uint64
	volumeExtents map[uint64][]VolumeExtentSlice
	s3ChunkInfo   map[uint64][]S3ChunkInfo
}

func newFakeMetastore() *fakeMetastore {
	return &fakeMetastore{
		inodes:        map[uint64]InodeAttr{},
		volumeExtents: map[uint64][]VolumeExtentSlice{},
		s3ChunkInfo:   map[uint64][]S3ChunkInfo{},
	}
}

func (m *fakeMetastore) GetDentry(context.Context, *GetDentryRequest, *GetDentryResponse) error {
	return nil
}
func (m *fakeMetastore) ListDentry(context.Context, *ListDentryRequest, *ListDentryResponse) error {
	return nil
}
func (m *fakeMetastore) CreateDentry(context.Context, *CreateDentryRequest, *CreateDentryResponse) error {
	return nil
}
func (m *fakeMetastore) DeleteDentry(context.Context, *DeleteDentryRequest, *DeleteDentryResponse) error {
	return nil
}

func (m *fakeMetastore) GetInode(ctx context.Context, req *GetInodeRequest, resp *GetInodeResponse) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	resp.Attr = m.inodes[req.Inode]
	return nil
}
func (m *fakeMetastore) BatchGetInodeAttr(context.Context, *BatchGetInodeAttrRequest, *BatchGetInodeAttrResponse) error {
	return nil
}
func (m *fakeMetastore) BatchGetXAttr(context.Context, *BatchGetXAttrRequest, *BatchGetXAttrResponse) error {
	return nil
}
func (m *fakeMetastore) CreateInode(ctx context.Context, req *CreateInodeRequest, resp *CreateInodeResponse) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := m.nextID
	req.Attr.Inode = id
	m.inodes[id] = req.Attr
	resp.Inode = id
	return nil
}
func (m *fakeMetastore) UpdateInode(ctx context.Context, req *UpdateInodeRequest, resp *UpdateInodeResponse) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inodes[req.Attr.Inode] = req.Attr
	return nil
}
func (m *fakeMetastore) DeleteInode(ctx context.Context, req *DeleteInodeRequest, resp *DeleteInodeResponse) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.inodes, req.Inode)
	return nil
}
func (m *fakeMetastore) CreateRootInode(context.Context, *CreateRootInodeRequest, *CreateRootInodeResponse) error {
	return nil
}
func (m *fakeMetastore) CreateManageInode(context.Context, *CreateManageInodeRequest, *CreateManageInodeResponse) error {
	return nil
}
func (m *fakeMetastore) CreatePartition(context.Context, *CreatePartitionRequest, *CreatePartitionResponse) error {
	return nil
}
func (m *fakeMetastore) DeletePartition(context.Context, *DeletePartitionRequest, *DeletePartitionResponse) error {
	return nil
}
func (m *fakeMetastore) PrepareRenameTx(context.Context, *PrepareRenameTxRequest, *PrepareRenameTxResponse) error {
	return nil
}
func (m *fakeMetastore) GetVolumeExtent(ctx context.Context, req *GetVolumeExtentRequest, resp *GetVolumeExtentResponse) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	resp.Slices = m.volumeExtents[req.Inode]
	return nil
}
func (m *fakeMetastore) UpdateVolumeExtent(context.Context, *UpdateVolumeExtentRequest, *UpdateVolumeExtentResponse) error {
	return nil
}
func (m *fakeMetastore) UpdateDeallocatableBlockGroup(context.Context, *UpdateDeallocatableBlockGroupRequest, *UpdateDeallocatableBlockGroupResponse) error {
	return nil
}
func (m *fakeMetastore) GetOrModifyS3ChunkInfo(ctx context.Context, req *GetOrModifyS3ChunkInfoRequest, resp *GetOrModifyS3ChunkInfoResponse) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, mod := range req.Modifications {
		m.s3ChunkInfo[req.Inode] = append(m.s3ChunkInfo[req.Inode], mod)
	}
	if req.ReturnS3ChunkInfoMap {
		resp.ChunkInfo = m.s3ChunkInfo[req.Inode]
	}
	return nil
}
