package wbu

import "context"

// ObjectStore is the external object-store collaborator. UploadAsync submits
// ctx for one upload attempt; the client invokes ctx.Callback(ctx) exactly
// once per attempt, from one of its own worker goroutines. The callback may
// resubmit the same context for a retry.
//
// Grounded on yandex-cloud/geesefs's aws-sdk-go S3 usage: this is the shape
// of an async wrapper around an S3-style PutObject, generalized to any
// object store.
type ObjectStore interface {
	UploadAsync(ctx context.Context, upload *UploadContext)
}

// UploadContext is the per-object transient upload state. The buffer is
// exclusively owned by the context from creation until the terminal
// callback releases it; no other observer may read it, and it is never
// duplicated across retries.
type UploadContext struct {
	Key      ObjName
	Buffer   []byte
	Size     int
	RetCode  int
	Callback func(*UploadContext)

	submittedAt int64 // unix nanos slot for a submission time; nothing in this package sets or reads it
}
