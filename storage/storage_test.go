package storage

import (
	"bytes"
	"reflect"
	"testing"
)

// storeContract exercises the KeyValueStore behavior both engines share.
func storeContract(t *testing.T, store KeyValueStore) {
	if _, err := store.Get("28823174:skel:0-64_0-64_0-64"); err != ErrKeyNotFound {
		t.Errorf("expected ErrKeyNotFound for missing key, got %v\n", err)
	}

	pairs := map[string][]byte{
		"28823174:skel:0-64_0-64_0-64":   []byte("fragment a"),
		"28823174:skel:32-96_0-64_0-64":  []byte("fragment b"),
		"28823174.json":                  []byte(`{"fragments":[]}`),
		"999:skel:0-64_0-64_0-64":        []byte("other object"),
		"skeletons/28823174":             []byte("merged"),
	}
	for k, v := range pairs {
		if err := store.Put(k, v); err != nil {
			t.Fatalf("couldn't put %q: %v\n", k, err)
		}
	}
	for k, v := range pairs {
		got, err := store.Get(k)
		if err != nil {
			t.Fatalf("couldn't get %q: %v\n", k, err)
		}
		if !bytes.Equal(got, v) {
			t.Errorf("bad value for %q: got %q\n", k, got)
		}
	}

	keys, err := store.ListPrefix("28823174:skel:")
	if err != nil {
		t.Fatalf("couldn't list prefix: %v\n", err)
	}
	want := []string{
		"28823174:skel:0-64_0-64_0-64",
		"28823174:skel:32-96_0-64_0-64",
	}
	if !reflect.DeepEqual(keys, want) {
		t.Errorf("expected keys %v, got %v\n", want, keys)
	}

	if err := store.Delete(want...); err != nil {
		t.Fatalf("couldn't delete keys: %v\n", err)
	}
	keys, err = store.ListPrefix("28823174:skel:")
	if err != nil {
		t.Fatalf("couldn't list prefix after delete: %v\n", err)
	}
	if len(keys) != 0 {
		t.Errorf("expected no fragment keys after delete, got %v\n", keys)
	}
	if _, err := store.Get("skeletons/28823174"); err != nil {
		t.Errorf("unrelated key should survive delete: %v\n", err)
	}

	// Deleting missing keys is not an error.
	if err := store.Delete("no-such-key"); err != nil {
		t.Errorf("deleting a missing key should be a no-op, got %v\n", err)
	}
}

func TestMemStore(t *testing.T) {
	store, err := NewStore("memstore", "")
	if err != nil {
		t.Fatalf("couldn't create memstore: %v\n", err)
	}
	defer store.Close()
	storeContract(t, store)
}

func TestBadgerStore(t *testing.T) {
	store, err := NewStore("badger", t.TempDir())
	if err != nil {
		t.Fatalf("couldn't create badger store: %v\n", err)
	}
	defer store.Close()
	storeContract(t, store)
}

func TestUnknownEngine(t *testing.T) {
	if _, err := NewStore("no-such-engine", ""); err == nil {
		t.Errorf("expected error for unregistered engine\n")
	}
}
