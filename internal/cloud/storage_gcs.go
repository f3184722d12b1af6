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

// This file implements the ObjectStore contract on Google Cloud Storage.
// Presigned URLs are V4-signed through the IAM Credentials API, so the
// service never needs a private key on disk.
package cloud

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	credentials "cloud.google.com/go/iam/credentials/apiv1"
	credentialspb "cloud.google.com/go/iam/credentials/apiv1/credentialspb"
	"cloud.google.com/go/storage"
)

// GCSObjectStore stores pipeline assets in a single GCS bucket.
type GCSObjectStore struct {
	client      *storage.Client
	iamClient   *credentials.IamCredentialsClient
	bucket      string
	signerEmail string
	urlPrefix   string
}

// NewGCSObjectStore wraps the shared storage and IAM clients for the
// configured bucket.
func NewGCSObjectStore(client *storage.Client, iamClient *credentials.IamCredentialsClient, cfg *Storage) *GCSObjectStore {
	prefix := cfg.PublicURLPrefix
	if prefix == "" {
		prefix = fmt.Sprintf("https://storage.googleapis.com/%s", cfg.Bucket)
	}
	return &GCSObjectStore{
		client:      client,
		iamClient:   iamClient,
		bucket:      cfg.Bucket,
		signerEmail: cfg.SignerEmail,
		urlPrefix:   prefix,
	}
}

// Upload streams the local file into the bucket. The writer is chunked by
// the client library, so large renders do not need to fit in memory.
func (g *GCSObjectStore) Upload(ctx context.Context, localPath string, key string, contentType string) (string, error) {
	source, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open %s for upload: %w", localPath, err)
	}
	defer func() { _ = source.Close() }()

	writer := g.client.Bucket(g.bucket).Object(key).NewWriter(ctx)
	writer.ContentType = contentType
	if _, err = io.Copy(writer, source); err != nil {
		_ = writer.Close()
		return "", fmt.Errorf("failed to write gs://%s/%s: %w", g.bucket, key, err)
	}
	if err = writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize gs://%s/%s: %w", g.bucket, key, err)
	}
	return g.ObjectURL(key), nil
}

// Download copies the object into localPath, creating parent directories as
// needed.
func (g *GCSObjectStore) Download(ctx context.Context, key string, localPath string) error {
	reader, err := g.client.Bucket(g.bucket).Object(key).NewReader(ctx)
	if err != nil {
		return fmt.Errorf("failed to open gs://%s/%s: %w", g.bucket, key, err)
	}
	defer func() { _ = reader.Close() }()

	if err = os.MkdirAll(filepath.Dir(localPath), 0o750); err != nil {
		return err
	}
	target, err := os.Create(localPath)
	if err != nil {
		return err
	}
	defer func() { _ = target.Close() }()
	_, err = io.Copy(target, reader)
	return err
}

// PresignPut mints a V4 signed PUT URL. Signing is delegated to the IAM
// Credentials API under the configured service account identity.
func (g *GCSObjectStore) PresignPut(ctx context.Context, key string, contentType string, expires time.Duration) (string, error) {
	opts := &storage.SignedURLOptions{
		Scheme:         storage.SigningSchemeV4,
		Method:         "PUT",
		GoogleAccessID: g.signerEmail,
		Expires:        time.Now().Add(expires),
		ContentType:    contentType,
		SignBytes: func(b []byte) ([]byte, error) {
			resp, err := g.iamClient.SignBlob(ctx, &credentialspb.SignBlobRequest{
				Name:    "projects/-/serviceAccounts/" + g.signerEmail,
				Payload: b,
			})
			if err != nil {
				return nil, err
			}
			return resp.SignedBlob, nil
		},
	}
	return g.client.Bucket(g.bucket).SignedURL(key, opts)
}

// ObjectURL returns the public URL for a stored key.
func (g *GCSObjectStore) ObjectURL(key string) string {
	return g.urlPrefix + "/" + key
}
