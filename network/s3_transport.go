package network

import (
	"fmt"
	"github.com/minio/minio-go"
	"github.com/op/go-logging"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// S3Transport lets the loader pick up ETD archives from an S3 bucket
// (or any S3-compatible service) instead of an FTP server. Directories
// map to key prefixes within the bucket.
type S3Transport struct {
	endpoint string
	bucket   string
	useSSL   bool
	prefix   string
	client   *minio.Client
	logger   *logging.Logger
}

// NewS3Transport returns a transport for bucket on endpoint. For
// endpoint, do not include protocol. E.g. Use "s3.amazonaws.com"
// not "https://s3.amazonaws.com".
func NewS3Transport(endpoint, bucket string, useSSL bool, logger *logging.Logger) *S3Transport {
	return &S3Transport{
		endpoint: endpoint,
		bucket:   bucket,
		useSSL:   useSSL,
		logger:   logger,
	}
}

// Login creates the S3 client. For S3, user is the access key id
// and password is the secret access key.
func (transport *S3Transport) Login(user, password string) error {
	client, err := minio.New(transport.endpoint, user, password, transport.useSSL)
	if err != nil {
		return fmt.Errorf("Cannot create S3 client for %s: %v", transport.endpoint, err)
	}
	exists, err := client.BucketExists(transport.bucket)
	if err != nil {
		return fmt.Errorf("Cannot reach bucket %s: %v", transport.bucket, err)
	}
	if !exists {
		return fmt.Errorf("Bucket %s does not exist", transport.bucket)
	}
	transport.client = client
	transport.logger.Info("Connected to bucket %s at %s", transport.bucket, transport.endpoint)
	return nil
}

// ChangeDir sets the key prefix used by ListFiles and Fetch.
func (transport *S3Transport) ChangeDir(dir string) error {
	transport.prefix = strings.Trim(dir, "/")
	return nil
}

// Prefix returns the current key prefix.
func (transport *S3Transport) Prefix() string {
	return transport.prefix
}

// Key returns the S3 key for name in directory dir.
func (transport *S3Transport) Key(dir, name string) string {
	return strings.TrimLeft(path.Join(strings.Trim(dir, "/"), name), "/")
}

func (transport *S3Transport) ListFiles(pattern string) ([]string, error) {
	if transport.client == nil {
		return nil, fmt.Errorf("Not connected to bucket %s", transport.bucket)
	}
	listPrefix := ""
	if transport.prefix != "" {
		listPrefix = transport.prefix + "/"
	}
	doneCh := make(chan struct{})
	defer close(doneCh)
	files := make([]string, 0)
	for objInfo := range transport.client.ListObjects(transport.bucket, listPrefix, false, doneCh) {
		if objInfo.Err != nil {
			return nil, fmt.Errorf("Cannot list %s/%s: %v", transport.bucket, listPrefix, objInfo.Err)
		}
		name := strings.TrimPrefix(objInfo.Key, listPrefix)
		if name == "" || strings.HasSuffix(name, "/") {
			continue
		}
		matched, err := filepath.Match(pattern, name)
		if err != nil {
			return nil, fmt.Errorf("Bad file pattern %s: %v", pattern, err)
		}
		if matched {
			files = append(files, name)
		}
	}
	sort.Strings(files)
	return files, nil
}

func (transport *S3Transport) Fetch(localPath, remotePath string) error {
	if transport.client == nil {
		return fmt.Errorf("Not connected to bucket %s", transport.bucket)
	}
	key := transport.Key(transport.prefix, remotePath)
	err := transport.client.FGetObject(transport.bucket, key, localPath, minio.GetObjectOptions{})
	if err != nil {
		return fmt.Errorf("Cannot retrieve %s/%s: %v", transport.bucket, key, err)
	}
	transport.logger.Debug("Fetched %s/%s to %s", transport.bucket, key, localPath)
	return nil
}

// Move copies the object to its new key, then deletes the original.
func (transport *S3Transport) Move(name, fromDir, toDir string) error {
	if transport.client == nil {
		return fmt.Errorf("Not connected to bucket %s", transport.bucket)
	}
	fromKey := transport.Key(fromDir, name)
	toKey := transport.Key(toDir, name)
	src := minio.NewSourceInfo(transport.bucket, fromKey, nil)
	dst, err := minio.NewDestinationInfo(transport.bucket, toKey, nil, nil)
	if err != nil {
		return err
	}
	if err = transport.client.CopyObject(dst, src); err != nil {
		return fmt.Errorf("Cannot copy %s to %s: %v", fromKey, toKey, err)
	}
	if err = transport.client.RemoveObject(transport.bucket, fromKey); err != nil {
		return fmt.Errorf("Copied %s to %s but could not delete the original: %v", fromKey, toKey, err)
	}
	return nil
}

func (transport *S3Transport) Close() error {
	transport.client = nil
	return nil
}
