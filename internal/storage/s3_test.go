package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	config "github.com/thirdweb-dev/tracecollector/configs"
	"github.com/thirdweb-dev/tracecollector/internal/common"
)

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = params
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.body = body
	return &s3.PutObjectOutput{}, nil
}

func TestS3Uploader_UploadsOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces.json")
	blockRange := common.NewBlockRange(100, 101)
	result := sampleResult()
	require.NoError(t, NewJSONFileSink(path, false).Write(context.Background(), blockRange, result))

	client := &fakeS3{}
	uploader := newS3Uploader(client, &config.S3Config{Bucket: "traces", Prefix: "sepolia"}, path)
	require.NoError(t, uploader.Write(context.Background(), blockRange, result))

	require.NotNil(t, client.input)
	assert.Equal(t, "traces", aws.ToString(client.input.Bucket))
	assert.Equal(t, "sepolia/traces_100_101.json", aws.ToString(client.input.Key))
	assert.Equal(t, "application/json", aws.ToString(client.input.ContentType))

	sum := sha256.Sum256(client.body)
	assert.Equal(t, hex.EncodeToString(sum[:]), client.input.Metadata["checksum"])
	assert.Equal(t, "100", client.input.Metadata["start_block"])
	assert.Equal(t, "101", client.input.Metadata["end_block"])
	assert.Equal(t, "2", client.input.Metadata["block_count"])
	assert.Equal(t, "2", client.input.Metadata["tx_count"])
}

func TestS3Uploader_Errors(t *testing.T) {
	uploader := newS3Uploader(&fakeS3{}, &config.S3Config{Bucket: "traces"}, filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, uploader.Write(context.Background(), common.NewBlockRange(1, 1), common.NewCollectResult()))

	path := filepath.Join(t.TempDir(), "traces.json")
	require.NoError(t, NewJSONFileSink(path, false).Write(context.Background(), common.NewBlockRange(1, 1), common.NewCollectResult()))
	uploader = newS3Uploader(&fakeS3{err: errors.New("access denied")}, &config.S3Config{Bucket: "traces"}, path)
	assert.ErrorContains(t, uploader.Write(context.Background(), common.NewBlockRange(1, 1), common.NewCollectResult()), "access denied")
}

func TestGenerateS3Key(t *testing.T) {
	assert.Equal(t, "traces_1_2.parquet", generateS3Key("", common.NewBlockRange(1, 2), ".parquet"))
	assert.Equal(t, "a/b/traces_7_7.json", generateS3Key("a/b/", common.NewBlockRange(7, 7), ".json"))
}
