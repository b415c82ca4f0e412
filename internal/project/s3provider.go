package project

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Options configures access to an S3 compatible object store.
type S3Options struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// NewS3Client builds an S3 client for the given options. A non-empty
// endpoint switches to path-style addressing for S3 compatible stores.
func NewS3Client(ctx context.Context, options S3Options) (*s3.Client, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(
		func(service, region string, _ ...interface{}) (aws.Endpoint, error) {
			if options.Endpoint != "" {
				return aws.Endpoint{
					URL:               options.Endpoint,
					HostnameImmutable: true,
					Source:            aws.EndpointSourceCustom,
				}, nil
			}
			return aws.Endpoint{}, &aws.EndpointNotFoundError{}
		})

	loadOptions := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(options.Region),
		awsconfig.WithEndpointResolverWithOptions(resolver),
	}
	if options.AccessKeyID != "" {
		loadOptions = append(loadOptions, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(options.AccessKeyID, options.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = options.Endpoint != ""
	}), nil
}

// S3ImageProvider maps object keys in one bucket to s3:// URIs. The client
// is optional and only needed for readability probing.
type S3ImageProvider struct {
	bucket string
	client *s3.Client
}

// NewS3ImageProvider creates a provider for the given bucket.
func NewS3ImageProvider(bucket string, client *s3.Client) *S3ImageProvider {
	return &S3ImageProvider{bucket: bucket, client: client}
}

// URI returns the s3:// URI of the object key id.
func (p *S3ImageProvider) URI(id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("object key must not be empty")
	}
	return fmt.Sprintf("s3://%s/%s", p.bucket, strings.TrimPrefix(id, "/")), nil
}

// ID returns the object key of an s3:// URI in this provider's bucket.
func (p *S3ImageProvider) ID(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("not a valid uri %q: %w", uri, err)
	}
	if u.Scheme != "s3" {
		return "", fmt.Errorf("not an s3 uri: %q", uri)
	}
	if u.Host != p.bucket {
		return "", fmt.Errorf("uri %q does not address bucket %q", uri, p.bucket)
	}
	key := strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", fmt.Errorf("uri %q has no object key", uri)
	}
	return key, nil
}

// Rebase maps the given URIs through the uri-to-uri table.
func (p *S3ImageProvider) Rebase(uris []string, mapping map[string]string) ([]string, error) {
	rebased := make([]string, len(uris))
	for i, uri := range uris {
		rebased[i] = mapping[uri]
	}
	return rebased, nil
}

// IsReadable probes the object behind the URI with a HeadObject request.
// Without a configured client every URI counts as unreadable.
func (p *S3ImageProvider) IsReadable(ctx context.Context, uri string) (bool, error) {
	if p.client == nil {
		return false, nil
	}
	key, err := p.ID(uri)
	if err != nil {
		return false, err
	}
	_, err = p.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return false, nil
	}
	return true, nil
}
