// Copyright 2020 Fugue, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package sentinelstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

type s3Store struct {
	bucket string
	prefix string
	api    s3iface.S3API
}

// NewS3 returns a Store backed by an S3 bucket, for a cluster submit command
// whose workers do not share a filesystem with the scheduler process.
// Grounded on the teacher's store/s3.go, generalized with a key prefix so one
// bucket can host sentinels for multiple concurrent runs.
func NewS3(api s3iface.S3API, bucket, prefix string) Store {
	return &s3Store{bucket: bucket, prefix: prefix, api: api}
}

func (s *s3Store) fullKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return strings.TrimSuffix(s.prefix, "/") + "/" + key
}

func isNotFound(err error) bool {
	if aerr, ok := err.(awserr.Error); ok {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchKey, "NotFound":
			return true
		}
	}
	return false
}

func (s *s3Store) Get(ctx context.Context, key, dst string) error {
	object, err := s.api.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(key)),
	})
	if err != nil {
		if isNotFound(err) {
			return NotFound(fmt.Sprintf("not found: %s/%s", s.bucket, key))
		}
		return fmt.Errorf("failed to get %s/%s: %w", s.bucket, key, err)
	}
	defer object.Body.Close()

	file, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer file.Close()

	if _, err := io.Copy(file, object.Body); err != nil {
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}
	return nil
}

func (s *s3Store) Put(ctx context.Context, key, src string, meta map[string]string) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer f.Close()

	metadata := map[string]*string{}
	for k, v := range meta {
		metadata[k] = aws.String(v)
	}

	_, err = s.api.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:   aws.String(s.bucket),
		Key:      aws.String(s.fullKey(key)),
		Body:     f,
		Metadata: metadata,
	})
	if err != nil {
		return fmt.Errorf("failed to put %s: %w", key, err)
	}
	return nil
}

func (s *s3Store) Head(ctx context.Context, key string) (ItemMeta, error) {
	output, err := s.api.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(key)),
	})
	if err != nil {
		if isNotFound(err) {
			return ItemMeta{}, NotFound(fmt.Sprintf("not found: %s/%s", s.bucket, key))
		}
		return ItemMeta{}, fmt.Errorf("head failed for %s: %w", key, err)
	}
	meta := ItemMeta{Meta: map[string]string{}}
	for k, v := range output.Metadata {
		if v != nil {
			meta.Meta[strings.ToLower(k)] = *v
		}
	}
	return meta, nil
}

func (s *s3Store) Remove(ctx context.Context, key string) error {
	_, err := s.api.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(key)),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}
