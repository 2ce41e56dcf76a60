package services

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/aquatrack/internal/server/config"
	"github.com/google/uuid"
)

// ComputeAvatarURL returns the Gravatar image URL for email, which is
// trimmed and lowercased before hashing as Gravatar requires.
func ComputeAvatarURL(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return "https://www.gravatar.com/avatar/" + hex.EncodeToString(sum[:]) + "?s=100"
}

const avatarUploadTTL = 15 * time.Minute

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

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

// AvatarStorage hands out presigned upload URLs for avatar images in an
// S3-compatible bucket.
type AvatarStorage struct {
	region       string
	rootUser     string
	rootPassword string
	bucket       string
	baseEndpoint string
	publicURL    string
}

func NewAvatarStorage(cfg *config.Config) *AvatarStorage {
	return &AvatarStorage{
		region:       cfg.S3Region,
		rootUser:     cfg.S3RootUser,
		rootPassword: cfg.S3RootPassword,
		bucket:       cfg.S3Bucket,
		baseEndpoint: cfg.S3BaseEndpoint,
		publicURL:    cfg.S3PublicURL,
	}
}

// KeyPrefix is the part of the object key reserved for userID.
func KeyPrefix(userID string) string {
	return "avatars/" + userID + "/"
}

func (s *AvatarStorage) presignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(s.region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(s.rootUser, s.rootPassword, "")))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.baseEndpoint)
		o.UsePathStyle = true
	})
	return newS3PresignClient(client), nil
}

// PresignUpload returns a fresh key under the user's prefix and a PUT URL for it.
func (s *AvatarStorage) PresignUpload(ctx context.Context, userID string) (string, string, error) {
	pc, err := s.presignClient(ctx)
	if err != nil {
		return "", "", fmt.Errorf("s3 client: %w", err)
	}

	key := KeyPrefix(userID) + uuid.NewString()
	req, err := presignPutObject(pc, ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(avatarUploadTTL))
	if err != nil {
		return "", "", fmt.Errorf("presign put: %w", err)
	}
	return key, req.URL, nil
}

// PublicURL is the address an uploaded object is served from.
func (s *AvatarStorage) PublicURL(key string) string {
	return strings.TrimRight(s.publicURL, "/") + "/" + s.bucket + "/" + key
}
