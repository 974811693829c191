package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestKey(t *testing.T) {
	u := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	a := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	assert.Equal(t,
		"11111111-1111-1111-1111-111111111111/app_22222222-2222-2222-2222-222222222222_COVER_LETTER.txt",
		Key(u, a, "COVER_LETTER"))
	assert.Equal(t,
		"11111111-1111-1111-1111-111111111111/app_22222222-2222-2222-2222-222222222222_a_b.txt",
		Key(u, a, "a/../b"))
}

func TestLocalPersistAndRemove(t *testing.T) {
	root := filepath.Join(t.TempDir(), "generated")
	l := NewLocal(root, quiet())
	ctx := context.Background()

	loc, err := l.Persist(ctx, "u1/app_a1_COVER_LETTER.txt", []byte("Dear team"))
	require.NoError(t, err)
	assert.Equal(t, filepath.ToSlash(filepath.Join(root, "u1", "app_a1_COVER_LETTER.txt")), loc)

	b, err := os.ReadFile(filepath.FromSlash(loc))
	require.NoError(t, err)
	assert.Equal(t, "Dear team", string(b))

	loc2, err := l.Persist(ctx, "u1/app_a1_COVER_LETTER.txt", []byte("v2"))
	require.NoError(t, err)
	assert.Equal(t, loc, loc2)
	b, _ = os.ReadFile(filepath.FromSlash(loc))
	assert.Equal(t, "v2", string(b))

	require.NoError(t, l.Remove(ctx, loc))
	_, err = os.Stat(filepath.FromSlash(loc))
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, l.Remove(ctx, loc), "removing twice is fine")
}

func TestLocalRejectsEscapes(t *testing.T) {
	l := NewLocal(t.TempDir(), quiet())
	_, err := l.Persist(context.Background(), "../../etc/passwd", []byte("x"))
	assert.Error(t, err)
	assert.Error(t, l.Remove(context.Background(), "/etc/passwd"))
}

type fakeUploader struct {
	input *s3manager.UploadInput
	body  []byte
	err   error
}

func (f *fakeUploader) Upload(in *s3manager.UploadInput, opts ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	return f.UploadWithContext(context.Background(), in, opts...)
}

func (f *fakeUploader) UploadWithContext(_ aws.Context, in *s3manager.UploadInput, _ ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3manager.UploadOutput{Location: "https://bucket.s3/" + aws.StringValue(in.Key)}, nil
}

type fakeDeleter struct{ input *s3.DeleteObjectInput }

func (f *fakeDeleter) DeleteObjectWithContext(_ aws.Context, in *s3.DeleteObjectInput, _ ...request.Option) (*s3.DeleteObjectOutput, error) {
	f.input = in
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3PersistAndRemove(t *testing.T) {
	up, del := &fakeUploader{}, &fakeDeleter{}
	s := newS3(S3Config{Bucket: "docs", Prefix: "generated"}, up, del, quiet())
	ctx := context.Background()

	loc, err := s.Persist(ctx, "u1/app_a1_CV.txt", []byte("cv body"))
	require.NoError(t, err)
	assert.Equal(t, "s3://docs/generated/u1/app_a1_CV.txt", loc)
	assert.Equal(t, "docs", aws.StringValue(up.input.Bucket))
	assert.Equal(t, "cv body", string(up.body))

	require.NoError(t, s.Remove(ctx, loc))
	assert.Equal(t, "docs", aws.StringValue(del.input.Bucket))
	assert.Equal(t, "generated/u1/app_a1_CV.txt", aws.StringValue(del.input.Key))

	assert.Error(t, s.Remove(ctx, "generated/u1/x.txt"))
}

func TestS3PersistError(t *testing.T) {
	s := newS3(S3Config{Bucket: "docs"}, &fakeUploader{err: errors.New("denied")}, &fakeDeleter{}, quiet())
	_, err := s.Persist(context.Background(), "k", []byte("x"))
	assert.ErrorContains(t, err, "denied")
}
