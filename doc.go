/*
 *
 * Copyright 2023 CubeFS authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

/*

# diskcache: a write-back disk cache uploader and metaserver operator pipeline

diskcache bundles two subsystems that run together in the diskcached daemon:

  - internal/wbu, the write-back disk cache Uploader (WBU): objects land in a
    local staging store first and are asynchronously uploaded to an object
    store in the background, with a residency index tracking what is still
    only on local disk.

  - internal/mop, the Metaserver Operator Pipeline (MOP): every metadata
    operation against a partition is dispatched through a raft-backed
    operator that either proposes through consensus or, for read-only
    operators under an active leader lease, applies immediately and skips the
    round trip.

  - internal/metastore backs MOP's Metastore interface with a rocksdb column
    family per entity kind (dentries, inodes, xattrs, partitions, volume
    extents, S3 chunk info, deallocatable block groups).

  - common/raft and common/kvstore are the thin consensus and storage
    abstractions both subsystems are built on.

## Building Blocks

* gorocksdb
* Prometheus
* golang.org/x/sync/errgroup
* golang.org/x/time/rate

*/

package diskcache
