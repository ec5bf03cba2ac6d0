package cache

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
)

type failingStore struct {
	loads int
	saves int
}

func (f *failingStore) Load(context.Context, string) (string, error) {
	f.loads++
	return "", errors.New("backend down")
}

func (f *failingStore) Save(context.Context, string, string, []string) error {
	f.saves++
	return errors.New("backend down")
}

func (f *failingStore) Clean(context.Context, ...string) error {
	return nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestGateDisabledSkipsStore(t *testing.T) {
	store := &failingStore{}
	gate := NewGate(store, false, quietLogger())

	if _, ok := gate.Load(context.Background(), "k"); ok {
		t.Fatalf("disabled gate should never hit")
	}
	gate.Save(context.Background(), "k", "v", "block_html")
	if store.loads != 0 || store.saves != 0 {
		t.Fatalf("disabled gate touched the store: loads=%d saves=%d", store.loads, store.saves)
	}
}

func TestGateTreatsErrorsAsMiss(t *testing.T) {
	store := &failingStore{}
	gate := NewGate(store, true, quietLogger())

	if _, ok := gate.Load(context.Background(), "k"); ok {
		t.Fatalf("failing backend should be a miss")
	}
	gate.Save(context.Background(), "k", "v")
	if store.loads != 1 || store.saves != 1 {
		t.Fatalf("enabled gate should reach the store once each: loads=%d saves=%d", store.loads, store.saves)
	}
}

func TestGateWithoutStore(t *testing.T) {
	gate := NewGate(nil, true, nil)
	if gate.Enabled() {
		t.Fatalf("gate without store must be disabled")
	}
	if err := gate.Clean(context.Background()); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	if _, err := Open(Options{Backend: "memcached"}); err == nil {
		t.Fatalf("unknown backend should fail")
	}
}
