package services

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/dmitrijs2005/yanplatform/internal/common"
	sc "github.com/dmitrijs2005/yanplatform/internal/server/config"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PresignExpiry bounds how long an upload URL stays usable.
const PresignExpiry = 15 * time.Minute

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
)

// PresignedUpload is what a client needs to PUT a document and later
// reference it from an application.
type PresignedUpload struct {
	Key       string    `json:"key"`
	UploadURL string    `json:"uploadUrl"`
	Location  string    `json:"location"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// DocumentService hands out presigned S3 upload URLs. It never proxies file
// contents.
type DocumentService struct {
	config *sc.Config
	now    func() time.Time
}

func NewDocumentService(config *sc.Config) *DocumentService {
	return &DocumentService{config: config, now: time.Now}
}

// StorageKey places an upload under the owning user and the current date.
func StorageKey(userID, fileName string, d time.Time) string {
	return fmt.Sprintf("applications/%s/%d/%02d/%02d/%v-%s", userID, d.Year(), d.Month(), d.Day(), uuid.New(), fileName)
}

func (s *DocumentService) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return newS3PresignClient(client), nil
}

// PresignUpload returns a PUT URL for fileName owned by userID.
func (s *DocumentService) PresignUpload(ctx context.Context, userID, fileName string) (*PresignedUpload, error) {
	name := sanitizeFileName(fileName)
	if name == "" {
		return nil, fmt.Errorf("%w: file name is required", common.ErrorValidation)
	}

	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("s3 config: %w", err)
	}

	now := s.now().UTC()
	bucket := s.config.S3Bucket
	key := StorageKey(userID, name, now)

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(PresignExpiry))
	if err != nil {
		return nil, fmt.Errorf("presign put: %w", err)
	}

	return &PresignedUpload{
		Key:       key,
		UploadURL: req.URL,
		Location:  strings.TrimRight(s.config.S3BaseEndpoint, "/") + "/" + bucket + "/" + key,
		ExpiresAt: now.Add(PresignExpiry),
	}, nil
}

func sanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return strings.ReplaceAll(name, " ", "_")
}
