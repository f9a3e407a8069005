// Copyright 2023 The CubeFS Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"

	"github.com/cubefs/cubefs/blobstore/common/config"
	"github.com/cubefs/cubefs/blobstore/common/profile"
	"github.com/cubefs/cubefs/blobstore/common/rpc"
	"github.com/cubefs/cubefs/blobstore/util/errors"
	"github.com/cubefs/cubefs/blobstore/util/log"
	_ "github.com/cubefs/cubefs/blobstore/util/version"

	craft "github.com/cubefs/diskcache/common/raft"
	"github.com/cubefs/diskcache/internal/metastore"
	"github.com/cubefs/diskcache/internal/mop"
	"github.com/cubefs/diskcache/internal/wbu"
)

// Config is the diskcached daemon's top-level config: one write-back
// uploader plus one metaserver operator pipeline partition, following
// cmd/cmd.go's flat json-config-plus-profile-http-port shape.
type Config struct {
	HttpBindPort  uint32    `json:"http_bind_port"`
	GrpcBindPort  uint32    `json:"grpc_bind_port"`
	MaxProcessors int       `json:"max_processors"`
	LogLevel      log.Level `json:"log_level"`

	Uploader  wbu.Config       `json:"uploader"`
	Metastore metastore.Config `json:"metastore"`
	Operator  mop.Config       `json:"operator"`
	PartitionID uint64         `json:"partition_id"`
}

func main() {
	config.Init("f", "", "diskcached.json")

	cfg := &Config{}
	if err := config.Load(cfg); err != nil {
		log.Fatal(errors.Detail(err))
	}
	if cfg.MaxProcessors > 0 {
		runtime.GOMAXPROCS(cfg.MaxProcessors)
	}
	log.SetOutputLevel(cfg.LogLevel)
	registerLogLevel()

	ctx := context.Background()

	store, err := metastore.NewStore(ctx, &cfg.Metastore)
	if err != nil {
		log.Fatalf("open metastore failed: %s", err)
	}

	queue := mop.NewApplyQueueFromConfig(cfg.Operator)
	node := mop.NewNode(cfg.PartitionID, cfg.Operator.Lease, queue, store)
	// The consensus Group's StateMachine replays committed entries back
	// through this same node, so the Group must be built after the node and
	// then bound onto it (see Node.BindGroup's doc comment).
	sm := mop.NewStateMachine(node)
	group := craft.NewRaftGroup(&craft.Config{SM: sm, Raft: &craft.NoopRaft{}})
	node.BindGroup(group)
	group.Start()

	// A production deployment swaps this for a real object-store backend
	// (S3 or equivalent); diskcached itself only depends on the
	// wbu.ObjectStore interface (see internal/wbu/objectstore.go).
	objectStore := wbu.NewFakeObjectStore()
	uploader := wbu.NewUploader(cfg.Uploader, objectStore)
	if err := uploader.Start(ctx); err != nil {
		log.Fatalf("start uploader failed: %s", err)
	}

	httpServer := &http.Server{Addr: ":" + strconv.Itoa(int(cfg.HttpBindPort))}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("http server stopped: %s", err)
		}
	}()

	grpcListener, err := net.Listen("tcp", ":"+strconv.Itoa(int(cfg.GrpcBindPort)))
	if err != nil {
		log.Fatalf("listen grpc port failed: %s", err)
	}
	grpcServer := mop.NewGRPCServerRegistrar(mop.NewGRPCServer(node))
	go func() {
		if err := grpcServer.Serve(grpcListener); err != nil {
			log.Errorf("grpc server stopped: %s", err)
		}
	}()

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT)
	<-ch

	if err := uploader.Stop(); err != nil {
		log.Errorf("stop uploader failed: %s", err)
	}
	_ = httpServer.Close()
	grpcServer.GracefulStop()
	group.Close()
	store.Close()
}

func registerLogLevel() {
	logLevelPath, logLevelHandler := log.ChangeDefaultLevelHandler()
	profile.HandleFunc(http.MethodPost, logLevelPath, func(c *rpc.Context) {
		logLevelHandler.ServeHTTP(c.Writer, c.Request)
	})
	profile.HandleFunc(http.MethodGet, logLevelPath, func(c *rpc.Context) {
		logLevelHandler.ServeHTTP(c.Writer, c.Request)
	})
}
