package fs

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ezshield/logrelay/glob"
	"github.com/ezshield/logrelay/log"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type S3Config struct {
	// Name is the name of the filesystem
	Name            string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Bucket          string
	UseSSL          bool

	// Timeout for a single request, defaults to 30 seconds
	Timeout time.Duration

	Logger log.Logger
}

type s3Filesystem struct {
	name string

	endpoint string
	region   string
	bucket   string
	timeout  time.Duration

	client *minio.Client

	logger log.Logger
}

// NewS3Filesystem connects to the bucket described by config. The bucket will
// be created if it doesn't exist.
func NewS3Filesystem(config S3Config) (Filesystem, error) {
	fs := &s3Filesystem{
		name:     config.Name,
		endpoint: config.Endpoint,
		region:   config.Region,
		bucket:   config.Bucket,
		timeout:  config.Timeout,
		logger:   config.Logger,
	}

	if fs.logger == nil {
		fs.logger = log.New("")
	}

	if fs.timeout <= 0 {
		fs.timeout = 30 * time.Second
	}

	client, err := minio.New(fs.endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKeyID, config.SecretAccessKey, ""),
		Region: fs.region,
		Secure: config.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("can't connect to s3 endpoint %s: %w", fs.endpoint, err)
	}

	fs.logger = fs.logger.WithFields(log.Fields{
		"name":     fs.name,
		"type":     "s3",
		"bucket":   fs.bucket,
		"region":   fs.region,
		"endpoint": fs.endpoint,
	})

	ctx, cancel := context.WithTimeout(context.Background(), fs.timeout)
	defer cancel()

	exists, err := client.BucketExists(ctx, fs.bucket)
	if err != nil {
		fs.logger.WithError(err).Log("Can't access bucket")
		return nil, fmt.Errorf("can't access bucket %s: %w", fs.bucket, err)
	}

	if !exists {
		err = client.MakeBucket(ctx, fs.bucket, minio.MakeBucketOptions{Region: fs.region})
		if err != nil {
			fs.logger.WithError(err).Log("Can't create bucket")
			return nil, fmt.Errorf("can't create bucket %s: %w", fs.bucket, err)
		}

		fs.logger.Debug().Log("Bucket created")
	}

	fs.client = client

	return fs, nil
}

func (fs *s3Filesystem) Name() string {
	return fs.name
}

func (fs *s3Filesystem) Type() string {
	return "s3"
}

// key returns the object key for path, i.e. the clean path without
// the leading "/".
func (fs *s3Filesystem) key(path string) string {
	return cleanPath(path)[1:]
}

func (fs *s3Filesystem) wrapError(key string, err error) error {
	code := minio.ToErrorResponse(err).Code
	if code == "NoSuchKey" || code == "NotFound" {
		return fmt.Errorf("%s: %w", key, ErrNotExist)
	}

	return err
}

func (fs *s3Filesystem) Stat(path string) (FileInfo, error) {
	key := fs.key(path)

	if len(key) == 0 {
		return &s3FileInfo{
			name:         "/",
			dir:          true,
			lastModified: time.Now(),
		}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), fs.timeout)
	defer cancel()

	stat, err := fs.client.StatObject(ctx, fs.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if fs.isDir(key) {
			return &s3FileInfo{
				name:         "/" + key,
				dir:          true,
				lastModified: time.Now(),
			}, nil
		}

		return nil, fs.wrapError(key, err)
	}

	return &s3FileInfo{
		name:         "/" + stat.Key,
		size:         stat.Size,
		lastModified: stat.LastModified,
	}, nil
}

func (fs *s3Filesystem) isDir(key string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), fs.timeout)
	defer cancel()

	ch := fs.client.ListObjects(ctx, fs.bucket, minio.ListObjectsOptions{
		Prefix:    strings.TrimSuffix(key, "/") + "/",
		Recursive: true,
		MaxKeys:   1,
	})

	for object := range ch {
		if object.Err == nil {
			return true
		}
	}

	return false
}

func (fs *s3Filesystem) ReadFile(path string) ([]byte, error) {
	key := fs.key(path)

	ctx, cancel := context.WithTimeout(context.Background(), fs.timeout)
	defer cancel()

	object, err := fs.client.GetObject(ctx, fs.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fs.wrapError(key, err)
	}

	defer object.Close()

	buf := &bytes.Buffer{}

	if _, err := buf.ReadFrom(object); err != nil {
		return nil, fs.wrapError(key, err)
	}

	return buf.Bytes(), nil
}

func (fs *s3Filesystem) WriteFile(path string, data []byte) (int64, bool, error) {
	key := fs.key(path)

	if len(key) == 0 {
		return -1, false, fmt.Errorf("invalid path")
	}

	ctx, cancel := context.WithTimeout(context.Background(), fs.timeout)
	defer cancel()

	overwrite := false

	if _, err := fs.client.StatObject(ctx, fs.bucket, key, minio.StatObjectOptions{}); err == nil {
		overwrite = true
	}

	info, err := fs.client.PutObject(ctx, fs.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:      "application/octet-stream",
		DisableMultipart: true,
	})
	if err != nil {
		fs.logger.WithError(err).WithField("key", key).Log("Failed to store file")
		return -1, false, err
	}

	return info.Size, !overwrite, nil
}

// WriteFileSafe is the same as WriteFile. A PUT of a single object is
// atomic in S3.
func (fs *s3Filesystem) WriteFileSafe(path string, data []byte) (int64, bool, error) {
	return fs.WriteFile(path, data)
}

// MkdirAll does nothing. Directories are implied by the object keys.
func (fs *s3Filesystem) MkdirAll(path string, perm os.FileMode) error {
	return nil
}

func (fs *s3Filesystem) Remove(path string) int64 {
	key := fs.key(path)

	ctx, cancel := context.WithTimeout(context.Background(), fs.timeout)
	defer cancel()

	stat, err := fs.client.StatObject(ctx, fs.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return -1
	}

	err = fs.client.RemoveObject(ctx, fs.bucket, key, minio.RemoveObjectOptions{
		GovernanceBypass: true,
	})
	if err != nil {
		fs.logger.WithError(err).WithField("key", stat.Key).Log("Failed to delete file")
		return -1
	}

	return stat.Size
}

func (fs *s3Filesystem) List(path, pattern string) []FileInfo {
	files := []FileInfo{}

	var compiledPattern glob.Glob
	if len(pattern) != 0 {
		var err error
		compiledPattern, err = glob.Compile(pattern, '/')
		if err != nil {
			return files
		}
	}

	prefix := fs.key(path)
	if len(prefix) != 0 {
		prefix += "/"
	}

	ctx, cancel := context.WithTimeout(context.Background(), fs.timeout)
	defer cancel()

	ch := fs.client.ListObjects(ctx, fs.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	for object := range ch {
		if object.Err != nil {
			fs.logger.WithError(object.Err).Log("Listing object failed")
			continue
		}

		name := "/" + object.Key

		if compiledPattern != nil && !compiledPattern.Match(name) {
			continue
		}

		files = append(files, &s3FileInfo{
			name:         name,
			size:         object.Size,
			lastModified: object.LastModified,
		})
	}

	return files
}

type s3FileInfo struct {
	name         string
	size         int64
	dir          bool
	lastModified time.Time
}

func (f *s3FileInfo) Name() string {
	return f.name
}

func (f *s3FileInfo) Size() int64 {
	return f.size
}

func (f *s3FileInfo) ModTime() time.Time {
	return f.lastModified
}

func (f *s3FileInfo) IsDir() bool {
	return f.dir
}
