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

// This file implements the ObjectStore contract on Amazon S3 using the AWS
// SDK v2. Credentials come from the default provider chain (environment,
// shared config, instance role).
package cloud

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3ObjectStore stores pipeline assets in a single S3 bucket.
type S3ObjectStore struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
	urlPrefix string
}

// NewS3ObjectStore resolves AWS configuration for the configured region and
// builds the S3 and presign clients.
func NewS3ObjectStore(ctx context.Context, cfg *Storage) (*S3ObjectStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg)
	prefix := cfg.PublicURLPrefix
	if prefix == "" {
		prefix = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
	return &S3ObjectStore{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.Bucket,
		urlPrefix: prefix,
	}, nil
}

// Upload streams the local file to the bucket under key.
func (s *S3ObjectStore) Upload(ctx context.Context, localPath string, key string, contentType string) (string, error) {
	source, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open %s for upload: %w", localPath, err)
	}
	defer func() { _ = source.Close() }()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &key,
		Body:        source,
		ContentType: &contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to put s3://%s/%s: %w", s.bucket, key, err)
	}
	return s.ObjectURL(key), nil
}

// Download copies the object into localPath, creating parent directories as
// needed.
func (s *S3ObjectStore) Download(ctx context.Context, key string, localPath string) error {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		return fmt.Errorf("failed to get s3://%s/%s: %w", s.bucket, key, err)
	}
	defer func() { _ = result.Body.Close() }()

	if err = os.MkdirAll(filepath.Dir(localPath), 0o750); err != nil {
		return err
	}
	target, err := os.Create(localPath)
	if err != nil {
		return err
	}
	defer func() { _ = target.Close() }()
	_, err = io.Copy(target, result.Body)
	return err
}

// PresignPut returns a presigned PUT URL for a direct client upload.
func (s *S3ObjectStore) PresignPut(ctx context.Context, key string, contentType string, expires time.Duration) (string, error) {
	result, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &key,
		ContentType: &contentType,
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", err
	}
	return result.URL, nil
}

// ObjectURL returns the public URL for a stored key.
func (s *S3ObjectStore) ObjectURL(key string) string {
	return s.urlPrefix + "/" + key
}
