package fetch

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GoogleStorage retrieves files from a bucket that mirrors the GEO tree, e.g.
// gs://my-bucket/geo-mirror/geo/series/GSE68nnn/...
type GoogleStorage struct {
	Bucket string
	Prefix string
	Client *storage.Client
}

// NewGoogleStorage opens a client with default credentials unless opts say
// otherwise (for example option.WithoutAuthentication for public buckets).
func NewGoogleStorage(ctx context.Context, gsPath string, opts ...option.ClientOption) (*GoogleStorage, error) {
	bucket, prefix, err := SplitGoogleStoragePath(gsPath)
	if err != nil {
		return nil, err
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return &GoogleStorage{
		Bucket: bucket,
		Prefix: prefix,
		Client: client,
	}, nil
}

// SplitGoogleStoragePath detects the bucket and the object prefix in a gs://
// path. The prefix may be empty.
func SplitGoogleStoragePath(gsPath string) (bucket, prefix string, err error) {
	if !strings.HasPrefix(gsPath, "gs://") {
		return "", "", fmt.Errorf("%s is not a google storage path", gsPath)
	}

	pathParts := strings.SplitN(strings.TrimPrefix(gsPath, "gs://"), "/", 2)
	if pathParts[0] == "" {
		return "", "", fmt.Errorf("no bucket in google storage path %s", gsPath)
	}
	if len(pathParts) == 1 {
		return pathParts[0], "", nil
	}

	return pathParts[0], strings.Trim(pathParts[1], "/"), nil
}

func (g *GoogleStorage) String() string {
	return "gs://" + path.Join(g.Bucket, g.Prefix)
}

func (g *GoogleStorage) Open(ctx context.Context, remotePath string) (io.ReadCloser, error) {
	objectName := path.Join(g.Prefix, remotePath)

	return g.Client.Bucket(g.Bucket).Object(objectName).NewReader(ctx)
}

func (g *GoogleStorage) Close() error {
	return g.Client.Close()
}
