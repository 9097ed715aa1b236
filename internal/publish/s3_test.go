package publish

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/go-cmp/cmp"
)

type memoryBucket struct {
	objects      map[string]string
	contentTypes map[string]string
	failOn       string
}

func (m *memoryBucket) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if *in.Key == m.failOn {
		return nil, errors.New("access denied")
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	if m.objects == nil {
		m.objects = map[string]string{}
		m.contentTypes = map[string]string{}
	}
	m.objects[*in.Bucket+"/"+*in.Key] = string(body)
	m.contentTypes[*in.Key] = *in.ContentType
	return &s3.PutObjectOutput{}, nil
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestUploadFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "news_chart_by_newspaper.html", "<html>a</html>")
	b := writeFile(t, dir, "news_chart_total_only.png", "png")

	bucket := &memoryBucket{}
	u := NewUploaderWithClient(bucket, "charts", "/archive/")

	keys, err := u.UploadFiles(context.Background(), a, b)
	if err != nil {
		t.Fatalf("UploadFiles: %v", err)
	}
	want := []string{"archive/news_chart_by_newspaper.html", "archive/news_chart_total_only.png"}
	if diff := cmp.Diff(want, keys); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
	if got := bucket.objects["charts/archive/news_chart_by_newspaper.html"]; got != "<html>a</html>" {
		t.Errorf("stored body = %q", got)
	}
	if ct := bucket.contentTypes[want[0]]; !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %q, want text/html", ct)
	}
	if ct := bucket.contentTypes[want[1]]; ct != "image/png" {
		t.Errorf("content type = %q, want image/png", ct)
	}
}

func TestUploadFilesStopsOnError(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.html", "a")
	b := writeFile(t, dir, "b.html", "b")

	u := NewUploaderWithClient(&memoryBucket{failOn: "a.html"}, "charts", "")
	keys, err := u.UploadFiles(context.Background(), a, b)
	if err == nil {
		t.Fatal("UploadFiles should fail")
	}
	if len(keys) != 0 {
		t.Errorf("keys = %v, want none", keys)
	}
}

func TestNewUploaderRequiresBucket(t *testing.T) {
	if _, err := NewUploader(context.Background(), Config{}); err == nil {
		t.Error("NewUploader without bucket should fail")
	}
}
