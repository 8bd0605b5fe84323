package core

import "testing"

func TestRawIDZipUnzip(t *testing.T) {
	id := Zip(7, 3)
	index, epoch := id.Unzip()
	if index != 7 || epoch != 3 {
		t.Fatalf("Unzip() = (%d, %d), want (7, 3)", index, epoch)
	}
	if id.Index() != 7 {
		t.Errorf("Index() = %d, want 7", id.Index())
	}
	if id.Epoch() != 3 {
		t.Errorf("Epoch() = %d, want 3", id.Epoch())
	}
}

func TestRawIDIsZero(t *testing.T) {
	if !RawID(0).IsZero() {
		t.Fatal("RawID(0) must be zero")
	}
	if Zip(1, 0).IsZero() {
		t.Fatal("a RawID with a non-zero index must not be zero")
	}
}

func TestTextureRegistryRegisterAndGet(t *testing.T) {
	reg := NewTextureRegistry[string]()
	id := reg.Register("gbuffer-albedo")
	if id.IsZero() {
		t.Fatal("Register must return a non-zero ID")
	}
	got, err := reg.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "gbuffer-albedo" {
		t.Fatalf("Get() = %q, want %q", got, "gbuffer-albedo")
	}
}

func TestTextureRegistryGetUnknownIDFails(t *testing.T) {
	reg := NewTextureRegistry[int]()
	if _, err := reg.Get(TextureID{}); err != ErrInvalidID {
		t.Fatalf("Get(zero ID) = %v, want ErrInvalidID", err)
	}
}

func TestTextureRegistryUnregisterReleasesID(t *testing.T) {
	reg := NewTextureRegistry[int]()
	id := reg.Register(42)
	val, err := reg.Unregister(id)
	if err != nil {
		t.Fatalf("Unregister: %v", err)
	}
	if val != 42 {
		t.Fatalf("Unregister() = %d, want 42", val)
	}
	if reg.Contains(id) {
		t.Fatal("a registry must not contain an unregistered ID")
	}
}

func TestBufferRegistryForEachVisitsEveryEntry(t *testing.T) {
	reg := NewBufferRegistry[string]()
	want := map[string]bool{"a": true, "b": true, "c": true}
	for name := range want {
		reg.Register(name)
	}
	seen := map[string]bool{}
	reg.ForEach(func(id BufferID, v string) bool {
		seen[v] = true
		return true
	})
	for name := range want {
		if !seen[name] {
			t.Errorf("ForEach did not visit %q", name)
		}
	}
}

func TestBufferRegistryCount(t *testing.T) {
	reg := NewBufferRegistry[int]()
	if reg.Count() != 0 {
		t.Fatalf("fresh registry Count() = %d, want 0", reg.Count())
	}
	reg.Register(1)
	reg.Register(2)
	if reg.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", reg.Count())
	}
}
