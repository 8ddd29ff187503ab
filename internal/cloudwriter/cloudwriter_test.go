package cloudwriter

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	bucket string
	key    string
	body   []byte
	err    error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.bucket = *in.Bucket
	f.key = *in.Key
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.body = body
	return &s3.PutObjectOutput{}, nil
}

func TestS3WriterUploadsOnClose(t *testing.T) {
	client := &fakeS3{}
	w, err := NewS3WriterFactoryWithClient(client).NewWriter("exports", "predictions/a.parquet")
	require.NoError(t, err)

	_, err = w.Write([]byte("PAR1"))
	require.NoError(t, err)
	_, err = w.Write([]byte("data"))
	require.NoError(t, err)
	assert.Nil(t, client.body, "nothing is uploaded before Close")

	require.NoError(t, w.Close())
	assert.Equal(t, "exports", client.bucket)
	assert.Equal(t, "predictions/a.parquet", client.key)
	assert.Equal(t, []byte("PAR1data"), client.body)
}

func TestS3WriterUploadError(t *testing.T) {
	client := &fakeS3{err: errors.New("access denied")}
	w, err := NewS3WriterFactoryWithClient(client).NewWriter("exports", "x")
	require.NoError(t, err)

	err = w.Close()
	assert.ErrorContains(t, err, "s3://exports/x")
	assert.ErrorContains(t, err, "access denied")
}

func TestWriterRequiresBucket(t *testing.T) {
	_, err := NewS3WriterFactoryWithClient(&fakeS3{}).NewWriter("", "x")
	assert.Error(t, err)
	_, err = NewMemoryWriterFactory().NewWriter("", "x")
	assert.Error(t, err)
}

func TestMemoryWriter(t *testing.T) {
	f := NewMemoryWriterFactory()
	w, err := f.NewWriter("b", "k")
	require.NoError(t, err)

	_, err = w.Write([]byte("hello"))
	require.NoError(t, err)
	_, ok := f.Object("b", "k")
	assert.False(t, ok)

	require.NoError(t, w.Close())
	got, ok := f.Object("b", "k")
	require.True(t, ok)
	assert.Equal(t, "hello", string(got))
	assert.Equal(t, []string{"b/k"}, f.Keys())

	_, err = w.Write([]byte("again"))
	assert.Error(t, err)
}
