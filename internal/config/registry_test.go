package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()

	if reg.Version != 1 {
		t.Errorf("NewRegistry().Version = %v, want 1", reg.Version)
	}
	if reg.Servers == nil {
		t.Error("NewRegistry().Servers should be initialized")
	}
	if name, s := reg.MostRecent(); name != "" || s != nil {
		t.Errorf("MostRecent() on empty registry = %q, %v", name, s)
	}
}

func TestRegistryEnsureServer(t *testing.T) {
	reg := &Registry{Version: 1}

	s1 := reg.EnsureServer("bench")
	if s1 == nil {
		t.Fatal("EnsureServer() returned nil")
	}
	s2 := reg.EnsureServer("bench")
	if s1 != s2 {
		t.Error("EnsureServer() should return the existing entry")
	}
	if reg.GetServer("other") != nil {
		t.Error("GetServer() for an unknown instance should be nil")
	}
}

func TestRegistryUpdateServerSeen(t *testing.T) {
	reg := NewRegistry()
	reg.SetServerNickname("bench", "Lab bench")

	before := time.Now()
	reg.UpdateServerSeen("bench", "192.168.1.20:8740", "/dev/video0", "1.2.0")

	s := reg.GetServer("bench")
	if s.Address != "192.168.1.20:8740" || s.Device != "/dev/video0" || s.Version != "1.2.0" {
		t.Errorf("UpdateServerSeen() stored %+v", s)
	}
	if s.Nickname != "Lab bench" {
		t.Errorf("Nickname = %q, should survive a sighting", s.Nickname)
	}
	if s.LastSeen.Before(before) {
		t.Error("LastSeen should be updated")
	}
}

func TestRegistryMostRecent(t *testing.T) {
	reg := NewRegistry()
	reg.Servers["old"] = &Server{Address: "a:1", LastSeen: time.Now().Add(-time.Hour)}
	reg.Servers["new"] = &Server{Address: "b:2", LastSeen: time.Now()}

	name, s := reg.MostRecent()
	if name != "new" || s.Address != "b:2" {
		t.Errorf("MostRecent() = %q, %+v", name, s)
	}

	if got := reg.Instances(); len(got) != 2 || got[0] != "new" || got[1] != "old" {
		t.Errorf("Instances() = %v, want sorted names", got)
	}
}

func TestRegistrySaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "servers.yaml")

	reg := NewRegistry()
	reg.UpdateServerSeen("bench", "192.168.1.20:8740", "/dev/video0", "1.2.0")
	reg.SetServerNickname("bench", "Lab bench")

	if err := reg.SaveFile(path); err != nil {
		t.Fatalf("SaveFile() error = %v", err)
	}

	loaded, err := LoadRegistryFile(path)
	if err != nil {
		t.Fatalf("LoadRegistryFile() error = %v", err)
	}

	s := loaded.GetServer("bench")
	if s == nil {
		t.Fatal("server missing after reload")
	}
	if s.Address != "192.168.1.20:8740" || s.Nickname != "Lab bench" {
		t.Errorf("reloaded server = %+v", s)
	}
}

func TestLoadRegistryFile(t *testing.T) {
	dir := t.TempDir()

	reg, err := LoadRegistryFile(filepath.Join(dir, "missing.yaml"))
	if err != nil {
		t.Fatalf("missing file should yield an empty registry, got %v", err)
	}
	if len(reg.Servers) != 0 {
		t.Errorf("expected empty registry, got %d servers", len(reg.Servers))
	}

	badVersion := filepath.Join(dir, "v2.yaml")
	if err := os.WriteFile(badVersion, []byte("version: 2\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadRegistryFile(badVersion); err == nil {
		t.Error("unsupported version should fail")
	}

	empty := filepath.Join(dir, "empty.yaml")
	if err := os.WriteFile(empty, []byte("version: 1\n"), 0600); err != nil {
		t.Fatal(err)
	}
	reg, err = LoadRegistryFile(empty)
	if err != nil {
		t.Fatal(err)
	}
	if reg.Servers == nil {
		t.Error("Servers should be initialized after load")
	}
}

func BenchmarkGetConfigDir(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = GetConfigDir()
	}
}
