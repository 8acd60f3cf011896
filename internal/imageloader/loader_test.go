package imageloader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/otcheredev/dicom-standalone-viewer/internal/cache"
)

func TestSplitImageID(t *testing.T) {
	tests := []struct {
		imageID     string
		wantScheme  string
		wantLocator string
		wantErr     bool
	}{
		{"dicomweb:https://example.org/image.dcm", "dicomweb", "https://example.org/image.dcm", false},
		{"wadouri:http://pacs/wado?x=1", "wadouri", "http://pacs/wado?x=1", false},
		{"https://example.org/image.dcm", "https", "//example.org/image.dcm", false},
		{"noscheme", "", "", true},
		{":missing", "", "", true},
		{"dicomweb:", "", "", true},
	}

	for _, tt := range tests {
		scheme, locator, err := SplitImageID(tt.imageID)
		if (err != nil) != tt.wantErr {
			t.Errorf("SplitImageID(%q) error = %v, wantErr %v", tt.imageID, err, tt.wantErr)
			continue
		}
		if scheme != tt.wantScheme || locator != tt.wantLocator {
			t.Errorf("SplitImageID(%q) = %q, %q", tt.imageID, scheme, locator)
		}
	}
}

func TestDICOMWebLoader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if r.URL.Path == "/missing.dcm" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/dicom")
		w.Write([]byte("DICM-payload"))
	}))
	defer srv.Close()

	loader := NewDICOMWebLoader(DICOMWebConfig{Timeout: 5 * time.Second, BearerToken: "secret"})
	defer loader.Close()
	ctx := context.Background()

	img, err := loader.LoadImage(ctx, ImageID(SchemeDICOMWeb, srv.URL+"/image.dcm"))
	if err != nil {
		t.Fatalf("LoadImage failed: %v", err)
	}
	if string(img.Data) != "DICM-payload" {
		t.Errorf("Unexpected payload %q", img.Data)
	}
	if img.ContentType != "application/dicom" {
		t.Errorf("Unexpected content type %q", img.ContentType)
	}

	_, err = loader.LoadImage(ctx, ImageID(SchemeDICOMWeb, srv.URL+"/missing.dcm"))
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("Expected 404 error, got %v", err)
	}
}

func TestDICOMWebLoaderSizeLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer srv.Close()

	loader := NewDICOMWebLoader(DICOMWebConfig{MaxImageBytes: 16})
	_, err := loader.LoadImage(context.Background(), ImageID(SchemeDICOMWeb, srv.URL))
	if err == nil {
		t.Error("Expected size limit error")
	}
}

func TestDICOMWebLoaderRejectsNonHTTP(t *testing.T) {
	loader := NewDICOMWebLoader(DICOMWebConfig{})
	_, err := loader.LoadImage(context.Background(), "dicomweb:file:///etc/passwd")
	if err == nil {
		t.Error("Expected error for non-http locator")
	}
}

type fakeLoader struct {
	calls  atomic.Int32
	closed atomic.Int32
	data   []byte
	err    error
}

func (f *fakeLoader) LoadImage(ctx context.Context, imageID string) (*Image, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &Image{ImageID: imageID, Data: f.data}, nil
}

func (f *fakeLoader) Close() error {
	f.closed.Add(1)
	return nil
}

func TestRegistryDispatch(t *testing.T) {
	web := &fakeLoader{data: []byte("web")}
	reg := NewRegistry()
	reg.Register(SchemeDICOMWeb, web)
	reg.Register(SchemeWADOURI, web)
	ctx := context.Background()

	if _, err := reg.LoadImage(ctx, "dicomweb:https://a/1"); err != nil {
		t.Fatalf("LoadImage failed: %v", err)
	}
	if _, err := reg.LoadImage(ctx, "wadouri:https://a/2"); err != nil {
		t.Fatalf("LoadImage failed: %v", err)
	}
	if web.calls.Load() != 2 {
		t.Errorf("Expected 2 calls, got %d", web.calls.Load())
	}

	if _, err := reg.LoadImage(ctx, "ftp:server/x"); !errors.Is(err, ErrUnsupportedScheme) {
		t.Errorf("Expected ErrUnsupportedScheme, got %v", err)
	}
	if _, err := reg.LoadImage(ctx, "nocolon"); !errors.Is(err, ErrInvalidImageID) {
		t.Errorf("Expected ErrInvalidImageID, got %v", err)
	}

	if err := reg.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if web.closed.Load() != 1 {
		t.Errorf("Shared loader should be closed once, got %d", web.closed.Load())
	}
}

func TestCachedLoader(t *testing.T) {
	backend := &fakeLoader{data: []byte("payload")}
	mc := cache.NewMemoryCache(time.Minute, 0)
	defer mc.Close()

	loader := NewCachedLoader(backend, mc, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		img, err := loader.LoadAndCacheImage(ctx, "dicomweb:https://a/1")
		if err != nil {
			t.Fatalf("LoadAndCacheImage failed: %v", err)
		}
		if string(img.Data) != "payload" {
			t.Errorf("Unexpected payload %q", img.Data)
		}
	}

	if backend.calls.Load() != 1 {
		t.Errorf("Expected a single backend load, got %d", backend.calls.Load())
	}
}

func TestCachedLoaderError(t *testing.T) {
	backend := &fakeLoader{err: errors.New("boom")}
	mc := cache.NewMemoryCache(time.Minute, 0)
	defer mc.Close()

	loader := NewCachedLoader(backend, mc, time.Minute)
	if _, err := loader.LoadAndCacheImage(context.Background(), "dicomweb:https://a/1"); err == nil {
		t.Error("Expected error")
	}
	if mc.Len() != 0 {
		t.Error("Failed loads must not be cached")
	}
}

func TestCachedLoaderWithoutCache(t *testing.T) {
	backend := &fakeLoader{data: []byte("payload")}
	loader := NewCachedLoader(backend, nil, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := loader.LoadAndCacheImage(context.Background(), "dicomweb:https://a/1"); err != nil {
			t.Fatalf("LoadAndCacheImage failed: %v", err)
		}
	}
	if backend.calls.Load() != 2 {
		t.Errorf("Expected every load to reach the backend, got %d", backend.calls.Load())
	}
}
