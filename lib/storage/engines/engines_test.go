package engines

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/ValentinKolb/tKV/lib/storage"
)

func TestOpenAll(t *testing.T) {
	for _, impl := range storage.Implementations {
		t.Run(impl.String(), func(t *testing.T) {
			s, err := Open(impl, &storage.Options{Dir: filepath.Join(t.TempDir(), "db")})
			if err != nil {
				t.Fatalf("Open(%s) failed: %v", impl, err)
			}
			defer s.Close()

			ctx := context.Background()
			if err := s.Set(ctx, "k", storage.NewString("v", -1)); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			v, found, err := s.Get(ctx, "k")
			if err != nil || !found || string(v.Data) != "v" {
				t.Errorf("Get returned %v, %v, %v", v, found, err)
			}
		})
	}
}

func TestOpenUnknown(t *testing.T) {
	if _, err := Open("sqlite", nil); !errors.Is(err, storage.ErrInitialFailed) {
		t.Errorf("expected InitialFailed, got %v", err)
	}
	if _, err := OpenByName("nope", nil); !errors.Is(err, storage.ErrInitialFailed) {
		t.Errorf("expected InitialFailed, got %v", err)
	}
	s, err := OpenByName("bredis", nil)
	if err != nil {
		t.Fatalf("alias must resolve: %v", err)
	}
	_ = s.Close()
}
