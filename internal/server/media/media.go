// Package media copies remote audio and artwork into S3-compatible object
// storage and hands back the public URL of the stored copy.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/trackshare/internal/netx"
	"github.com/google/uuid"
)

type Kind string

const (
	Audio Kind = "audio"
	Image Kind = "image"
)

var ErrUnsupportedSource = errors.New("media source must be an http(s) URL")

// Uploader stores the resource at sourceURL and returns a URL clients can
// fetch it from.
type Uploader interface {
	Upload(ctx context.Context, sourceURL string, kind Kind) (string, error)
}

type Options struct {
	AccessKey    string
	SecretKey    string
	Region       string
	BaseEndpoint string
	Bucket       string
	// PublicURL is the base under which stored objects are served. Defaults
	// to BaseEndpoint/Bucket.
	PublicURL string
	MaxBytes  int64
	// HTTPClient downloads sources. Defaults to a client that refuses
	// non-public addresses.
	HTTPClient *http.Client
}

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	fetch = netx.Fetch
)

type S3Uploader struct {
	client     objectPutter
	httpClient *http.Client
	bucket     string
	publicBase string
	maxBytes   int64
	now        func() time.Time
	newID      func() string
}

func NewS3Uploader(ctx context.Context, opts Options) (*S3Uploader, error) {
	if opts.Bucket == "" {
		return nil, errors.New("media: bucket is required")
	}

	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(opts.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			opts.AccessKey,
			opts.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("media: load aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if opts.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(opts.BaseEndpoint)
		}
		o.UsePathStyle = true
	})

	hc := opts.HTTPClient
	if hc == nil {
		hc = netx.NewPublicClient(time.Minute)
	}

	public := opts.PublicURL
	if public == "" {
		public = strings.TrimRight(opts.BaseEndpoint, "/") + "/" + opts.Bucket
	}

	return &S3Uploader{
		client:     client,
		httpClient: hc,
		bucket:     opts.Bucket,
		publicBase: strings.TrimRight(public, "/"),
		maxBytes:   opts.MaxBytes,
		now:        time.Now,
		newID:      func() string { return uuid.NewString() },
	}, nil
}

func (u *S3Uploader) Upload(ctx context.Context, sourceURL string, kind Kind) (string, error) {
	src, err := url.Parse(sourceURL)
	if err != nil || (src.Scheme != "http" && src.Scheme != "https") || src.Host == "" {
		return "", ErrUnsupportedSource
	}

	obj, err := fetch(ctx, u.httpClient, sourceURL, u.maxBytes)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", kind, err)
	}

	key := StorageKey(kind, u.now(), u.newID(), extension(src.Path, obj.ContentType))
	bucket := u.bucket
	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        &bucket,
		Key:           &key,
		Body:          bytes.NewReader(obj.Body),
		ContentLength: aws.Int64(int64(len(obj.Body))),
		ContentType:   aws.String(obj.ContentType),
	})
	if err != nil {
		return "", fmt.Errorf("store %s: %w", kind, err)
	}

	return u.publicBase + "/" + key, nil
}

// StorageKey lays objects out by kind and upload date.
func StorageKey(kind Kind, d time.Time, id, ext string) string {
	return fmt.Sprintf("tracks/%s/%04d/%02d/%02d/%s%s", kind, d.Year(), int(d.Month()), d.Day(), id, ext)
}

func extension(urlPath, contentType string) string {
	if ext := path.Ext(urlPath); ext != "" && len(ext) <= 6 {
		return strings.ToLower(ext)
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	exts, err := mime.ExtensionsByType(mediaType)
	if err != nil || len(exts) == 0 {
		return ""
	}
	return exts[0]
}
