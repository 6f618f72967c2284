package store

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// fakeS3 is an in-memory S3API double keyed by object key.
type fakeS3 struct {
	objects  map[string][]byte
	metadata map[string]map[string]string
	err      error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{
		objects:  make(map[string][]byte),
		metadata: make(map[string]map[string]string),
	}
}

func (f *fakeS3) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*params.Key] = data
	f.metadata[*params.Key] = params.Metadata
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, ok := f.objects[*params.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body:     io.NopCloser(bytes.NewReader(data)),
		Metadata: f.metadata[*params.Key],
	}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	delete(f.objects, *params.Key)
	delete(f.metadata, *params.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3StoreContract(t *testing.T) {
	s := NewS3Store(newFakeS3(), "bucket", "sessions/")
	defer s.Close()
	testStoreContract(t, s)
}

func TestS3StorePrefixesKeys(t *testing.T) {
	fake := newFakeS3()
	s := NewS3Store(fake, "bucket", "sessions/")
	ctx := context.Background()

	if err := s.Save(ctx, &Snapshot{SessionID: "abc", Data: []byte("x")}); err != nil {
		t.Fatal(err)
	}
	if _, ok := fake.objects["sessions/abc"]; !ok {
		t.Errorf("object keys = %v, want sessions/abc", keysOf(fake.objects))
	}
}

func TestS3StoreRoundTripsUpdatedAt(t *testing.T) {
	s := NewS3Store(newFakeS3(), "bucket", "")
	ctx := context.Background()

	saved := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	if err := s.Save(ctx, &Snapshot{SessionID: "ts", Data: []byte("x"), UpdatedAt: saved}); err != nil {
		t.Fatal(err)
	}

	got, err := s.Load(ctx, "ts")
	if err != nil {
		t.Fatal(err)
	}
	if !got.UpdatedAt.Equal(saved) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, saved)
	}
}

func TestS3StoreWrapsBackendErrors(t *testing.T) {
	fake := newFakeS3()
	fake.err = errors.New("throttled")
	s := NewS3Store(fake, "bucket", "")
	ctx := context.Background()

	if err := s.Save(ctx, &Snapshot{SessionID: "x"}); err == nil {
		t.Error("Save did not surface the backend error")
	}
	if _, err := s.Load(ctx, "x"); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("Load err = %v, want a wrapped backend error", err)
	}
}

func keysOf(m map[string][]byte) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
