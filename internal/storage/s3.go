package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
	config "github.com/thirdweb-dev/tracecollector/configs"
	"github.com/thirdweb-dev/tracecollector/internal/common"
)

type s3PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader uploads the output file once it has been written.
type S3Uploader struct {
	client   s3PutObjectAPI
	cfg      *config.S3Config
	filePath string
}

func NewS3Uploader(ctx context.Context, cfg *config.S3Config, filePath string) (*S3Uploader, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
			return aws.Credentials{
				AccessKeyID:     cfg.AccessKeyID,
				SecretAccessKey: cfg.SecretAccessKey,
			}, nil
		})))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3Uploader(client, cfg, filePath), nil
}

func newS3Uploader(client s3PutObjectAPI, cfg *config.S3Config, filePath string) *S3Uploader {
	return &S3Uploader{client: client, cfg: cfg, filePath: filePath}
}

func (u *S3Uploader) Name() string {
	return "s3"
}

func (u *S3Uploader) Write(ctx context.Context, blockRange common.BlockRange, result common.CollectResult) error {
	file, err := os.Open(u.filePath)
	if err != nil {
		return fmt.Errorf("failed to open output file: %w", err)
	}
	defer file.Close()

	fileInfo, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to get file info: %w", err)
	}
	checksum, err := calculateFileChecksum(file)
	if err != nil {
		return fmt.Errorf("failed to calculate file checksum: %w", err)
	}

	key := generateS3Key(u.cfg.Prefix, blockRange, filepath.Ext(u.filePath))
	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.cfg.Bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String(contentType(u.filePath)),
		Metadata: map[string]string{
			"start_block": fmt.Sprintf("%d", blockRange.StartBlock),
			"end_block":   fmt.Sprintf("%d", blockRange.EndBlock),
			"block_count": fmt.Sprintf("%d", len(result.Blocks)),
			"tx_count":    fmt.Sprintf("%d", len(result.Txs)),
			"checksum":    checksum,
			"file_size":   fmt.Sprintf("%d", fileInfo.Size()),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}
	log.Info().Str("bucket", u.cfg.Bucket).Str("key", key).Msg("Uploaded output file")
	return nil
}

func (u *S3Uploader) Close() error {
	return nil
}

func generateS3Key(prefix string, blockRange common.BlockRange, ext string) string {
	name := fmt.Sprintf("traces_%d_%d%s", blockRange.StartBlock, blockRange.EndBlock, ext)
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

func contentType(filePath string) string {
	if filepath.Ext(filePath) == ".json" {
		return "application/json"
	}
	return "application/octet-stream"
}

// calculateFileChecksum computes the SHA256 checksum of the file content and rewinds it.
func calculateFileChecksum(file *os.File) (string, error) {
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to seek to beginning of file: %w", err)
	}

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", fmt.Errorf("failed to read file for checksum: %w", err)
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to rewind file: %w", err)
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
