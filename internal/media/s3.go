package media

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"path"
	"strings"

	"github.com/areiqi/sitedb/internal/config"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
)

type objectPutter interface {
	PutObjectWithContext(ctx aws.Context, input *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error)
}

// S3Publisher uploads images to a bucket and returns their public URL
type S3Publisher struct {
	svc     objectPutter
	bucket  string
	baseURL string
}

// NewS3Publisher creates a publisher for MEDIA_S3_BUCKET. Credentials come from
// the standard AWS environment.
func NewS3Publisher(cfg *config.Config) (*S3Publisher, error) {
	awsCfg := &aws.Config{Region: aws.String(cfg.MediaS3Region)}
	if cfg.MediaS3Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.MediaS3Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("s3 session: %w", err)
	}

	baseURL := cfg.MediaPublicBaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.MediaS3Bucket, cfg.MediaS3Region)
	}
	return &S3Publisher{svc: s3.New(sess), bucket: cfg.MediaS3Bucket, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

func (p *S3Publisher) Publish(ctx context.Context, u Upload) (string, error) {
	key := path.Join("media", uuid.NewString()+extension(u))
	_, err := p.svc.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(u.Data),
		ContentType: aws.String(u.ContentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", u.Name, err)
	}
	return p.baseURL + "/" + key, nil
}

func extension(u Upload) string {
	if ext := path.Ext(u.Name); ext != "" {
		return strings.ToLower(ext)
	}
	if exts, _ := mime.ExtensionsByType(u.ContentType); len(exts) > 0 {
		return exts[0]
	}
	return ""
}
