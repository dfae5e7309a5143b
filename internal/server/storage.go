package server

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// AudioStore persists finished podcast audio. When no S3 bucket is
// configured it keeps files on local disk and the server streams them
// directly.
type AudioStore struct {
	client     *s3.Client
	bucket     string
	cdnBaseURL string
	localDir   string
}

// NewAudioStore creates a store backed by S3 when bucket is non-empty,
// otherwise by localDir.
func NewAudioStore(client *s3.Client, bucket, cdnBaseURL, localDir string) *AudioStore {
	return &AudioStore{
		client:     client,
		bucket:     bucket,
		cdnBaseURL: strings.TrimSuffix(cdnBaseURL, "/"),
		localDir:   localDir,
	}
}

// Local reports whether audio is kept on local disk rather than S3.
func (as *AudioStore) Local() bool {
	return as.bucket == ""
}

// Store persists the audio file for a podcast and returns its object key
// and public URL. For local storage the URL is a server-relative path.
func (as *AudioStore) Store(ctx context.Context, podcastID, srcPath string) (key, url string, err error) {
	key = "audio/" + podcastID + ".mp3"

	if as.Local() {
		dst := as.LocalPath(podcastID)
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return "", "", fmt.Errorf("create audio dir: %w", err)
		}
		if err := os.Rename(srcPath, dst); err != nil {
			// Rename fails across filesystems; fall back to a copy.
			if err := copyFile(srcPath, dst); err != nil {
				return "", "", fmt.Errorf("store audio locally: %w", err)
			}
			os.Remove(srcPath)
		}
		return key, "/podcasts/" + podcastID + "/audio", nil
	}

	f, err := os.Open(srcPath)
	if err != nil {
		return "", "", fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()

	_, err = as.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &as.bucket,
		Key:         &key,
		Body:        f,
		ContentType: aws.String("audio/mpeg"),
	})
	if err != nil {
		return "", "", fmt.Errorf("upload audio to s3: %w", err)
	}

	if as.cdnBaseURL != "" {
		url = as.cdnBaseURL + "/" + key
	} else {
		url = fmt.Sprintf("https://%s.s3.amazonaws.com/%s", as.bucket, key)
	}
	return key, url, nil
}

// LocalPath returns the on-disk location for a podcast's audio when using
// local storage.
func (as *AudioStore) LocalPath(podcastID string) string {
	return filepath.Join(as.localDir, podcastID+".mp3")
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}
