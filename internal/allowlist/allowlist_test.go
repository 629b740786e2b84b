package allowlist

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gzipLines(t *testing.T, lines []string) []byte {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	_, err := gw.Write([]byte(strings.Join(lines, "\n") + "\n"))
	require.NoError(t, err)
	require.NoError(t, gw.Close())
	return buf.Bytes()
}

// createTestFile writes a gzipped allow-list file and returns its path.
func createTestFile(t *testing.T, name string, lines []string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, gzipLines(t, lines), 0o644))
	return path
}

func TestParse(t *testing.T) {
	tests := []struct {
		name            string
		lines           []string
		expectedEmails  []string
		expectedSkipped int
	}{
		{
			name: "Header, comments and blanks ignored",
			lines: []string{
				"email,name,phone",
				"# exported 2024-05-01",
				"",
				"asha@example.com,Asha Rao,98450",
				"ravi@example.com,Ravi,",
			},
			expectedEmails: []string{"asha@example.com", "ravi@example.com"},
		},
		{
			name: "Malformed emails skipped",
			lines: []string{
				"not-an-email,Nobody,1",
				"@example.com,Empty local,2",
				"ok@example.com,Ok,3",
				"trailing@,Trailing,4",
			},
			expectedEmails:  []string{"ok@example.com"},
			expectedSkipped: 3,
		},
		{
			name: "Duplicate emails are case insensitive",
			lines: []string{
				"Asha@Example.com,Asha,1",
				"asha@example.com,Asha again,2",
			},
			expectedEmails:  []string{"Asha@Example.com"},
			expectedSkipped: 1,
		},
		{
			name: "Quoted name with comma",
			lines: []string{
				`lee@example.com,"Lee, Jr.",555`,
			},
			expectedEmails: []string{"lee@example.com"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := Parse(context.Background(), bytes.NewReader(gzipLines(t, tt.lines)))
			require.NoError(t, err)

			emails := []string{}
			for _, e := range list.Entries {
				emails = append(emails, e.Email)
			}
			assert.Equal(t, tt.expectedEmails, emails)
			assert.Equal(t, tt.expectedSkipped, list.Skipped)
		})
	}
}

func TestParse_DefaultsNameToLocalPart(t *testing.T) {
	list, err := Parse(context.Background(), bytes.NewReader(gzipLines(t, []string{"meera@example.com"})))
	require.NoError(t, err)
	require.Len(t, list.Entries, 1)
	assert.Equal(t, "meera", list.Entries[0].Name)
	assert.Equal(t, "", list.Entries[0].Phone)
}

func TestParse_NotGzip(t *testing.T) {
	_, err := Parse(context.Background(), strings.NewReader("plain text"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gzip")
}

func TestParse_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Parse(ctx, bytes.NewReader(gzipLines(t, []string{"a@example.com"})))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileLoader_Load(t *testing.T) {
	loader := NewFileLoader(zerolog.Nop())

	path := createTestFile(t, "customers.gz", []string{"a@example.com,A,1", "b@example.com,B,2"})
	list, err := loader.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, list.Size())

	_, err = loader.Load(context.Background(), filepath.Join(t.TempDir(), "missing.gz"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open allow-list file")
}

type fakeS3 struct {
	objects map[string][]byte
	mu      sync.Mutex
	keys    []string
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	f.keys = append(f.keys, *in.Key)
	f.mu.Unlock()

	data, ok := f.objects[*in.Key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func TestS3Loader_Load(t *testing.T) {
	client := &fakeS3{objects: map[string][]byte{
		"allowlists/july.gz": gzipLines(t, []string{"s3@example.com,From S3,1"}),
	}}
	loader := NewS3LoaderWithClient(client, "bucket", zerolog.Nop())

	list, err := loader.Load(context.Background(), "allowlists/july.gz")
	require.NoError(t, err)
	require.Equal(t, 1, list.Size())
	assert.Equal(t, "From S3", list.Entries[0].Name)

	_, err = loader.Load(context.Background(), "allowlists/none.gz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket=bucket")
}

// mockLoader is a mock implementation of the Loader interface for testing.
type mockLoader struct {
	loadFunc func(ctx context.Context, path string) (*List, error)
}

func (m *mockLoader) Load(ctx context.Context, path string) (*List, error) {
	return m.loadFunc(ctx, path)
}

func listOf(emails ...string) *List {
	l := &List{Entries: []Entry{}}
	for _, e := range emails {
		l.Entries = append(l.Entries, Entry{Email: e, Name: e})
	}
	return l
}

func TestFallbackLoader(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.Nop()

	t.Run("S3 success", func(t *testing.T) {
		s3L := &mockLoader{loadFunc: func(_ context.Context, path string) (*List, error) {
			assert.Equal(t, "allowlists/july.gz", path)
			return listOf("s3@example.com"), nil
		}}
		fileL := &mockLoader{loadFunc: func(context.Context, string) (*List, error) {
			t.Error("file loader should not be called when S3 succeeds")
			return nil, errors.New("unexpected")
		}}

		list, err := NewFallbackLoader(s3L, fileL, "allowlists/", true, logger).Load(ctx, "july.gz")
		require.NoError(t, err)
		assert.Equal(t, "s3@example.com", list.Entries[0].Email)
	})

	t.Run("S3 failure falls back to local", func(t *testing.T) {
		s3L := &mockLoader{loadFunc: func(context.Context, string) (*List, error) {
			return nil, errors.New("S3 connection failed")
		}}
		fileL := &mockLoader{loadFunc: func(_ context.Context, path string) (*List, error) {
			assert.Equal(t, "july.gz", path)
			return listOf("local@example.com"), nil
		}}

		list, err := NewFallbackLoader(s3L, fileL, "allowlists/", true, logger).Load(ctx, "july.gz")
		require.NoError(t, err)
		assert.Equal(t, "local@example.com", list.Entries[0].Email)
	})

	t.Run("S3 disabled", func(t *testing.T) {
		fileL := &mockLoader{loadFunc: func(context.Context, string) (*List, error) {
			return listOf("local@example.com"), nil
		}}

		list, err := NewFallbackLoader(nil, fileL, "allowlists/", false, logger).Load(ctx, "july.gz")
		require.NoError(t, err)
		assert.Equal(t, 1, list.Size())
	})
}

func TestLoadAll(t *testing.T) {
	ctx := context.Background()

	t.Run("Merges in path order and drops cross-file duplicates", func(t *testing.T) {
		files := map[string]*List{
			"a.gz": listOf("one@example.com", "two@example.com"),
			"b.gz": listOf("TWO@example.com", "three@example.com"),
		}
		loader := &mockLoader{loadFunc: func(_ context.Context, path string) (*List, error) {
			return files[path], nil
		}}

		list, err := LoadAll(ctx, loader, []string{"a.gz", "b.gz"}, zerolog.Nop())
		require.NoError(t, err)

		emails := []string{}
		for _, e := range list.Entries {
			emails = append(emails, e.Email)
		}
		assert.Equal(t, []string{"one@example.com", "two@example.com", "three@example.com"}, emails)
		assert.Equal(t, 1, list.Skipped)
	})

	t.Run("Any failure fails the load", func(t *testing.T) {
		loader := &mockLoader{loadFunc: func(_ context.Context, path string) (*List, error) {
			if path == "bad.gz" {
				return nil, errors.New("corrupt")
			}
			return listOf("ok@example.com"), nil
		}}

		_, err := LoadAll(ctx, loader, []string{"good.gz", "bad.gz"}, zerolog.Nop())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bad.gz")
	})
}
