// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// This file defines the ObjectStore abstraction over the supported object
// storage backends. The pipeline only ever talks to an ObjectStore; whether
// objects land in GCS or S3 is decided once, from the [storage] config
// section, at startup.
package cloud

import (
	"context"
	"fmt"
	"time"
)

// ObjectStore is the narrow storage contract the edit pipeline needs:
// stream a finished asset up, pull a source object down, and mint presigned
// PUT URLs so mobile clients can upload without routing bytes through the
// service.
type ObjectStore interface {
	// Upload stores the local file at the given key and returns the public
	// URL of the stored object.
	Upload(ctx context.Context, localPath string, key string, contentType string) (string, error)
	// Download copies the object at key into a local file.
	Download(ctx context.Context, key string, localPath string) error
	// PresignPut returns a URL a client can PUT the object body to directly.
	PresignPut(ctx context.Context, key string, contentType string, expires time.Duration) (string, error)
	// ObjectURL returns the public URL for a key without touching the backend.
	ObjectURL(key string) string
}

// NewObjectStore selects the ObjectStore implementation named by the
// [storage] config section.
func NewObjectStore(ctx context.Context, clients *ServiceClients, cfg *Storage) (ObjectStore, error) {
	switch cfg.Backend {
	case StorageBackendGCS:
		return NewGCSObjectStore(clients.StorageClient, clients.IAMClient, cfg), nil
	case StorageBackendS3:
		return NewS3ObjectStore(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
