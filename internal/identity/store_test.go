package identity

import (
	"errors"
	"sync"
	"testing"
)

func realDevice() Device {
	return Device{
		Attributes: map[Key]string{
			KeyBrand:        "Xiaomi",
			KeyManufacturer: "Xiaomi",
			KeyDevice:       "alioth",
			KeyProduct:      "alioth",
			KeyModel:        "M2012K11AG",
			KeyFingerprint:  "Xiaomi/alioth/alioth:13/TKQ1.220829.002/V14.0.6.0:user/release-keys",
			KeyType:         "userdebug",
			KeyTags:         "test-keys",
		},
		Incremental: "V14.0.6.0",
		InitialSDK:  30,
	}
}

func TestParseKey(t *testing.T) {
	for _, k := range Keys {
		got, err := ParseKey(KeyString(k))
		if err != nil || got != k {
			t.Errorf("ParseKey(%q) = %v, %v", KeyString(k), got, err)
		}
	}

	if got, err := ParseKey(" model "); err != nil || got != KeyModel {
		t.Errorf("ParseKey should be case-insensitive, got %v, %v", got, err)
	}
	if _, err := ParseKey("SERIAL"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("ParseKey(SERIAL) error = %v, want ErrUnknownKey", err)
	}
}

func TestKeyText(t *testing.T) {
	b, err := KeyFingerprint.MarshalText()
	if err != nil || string(b) != "FINGERPRINT" {
		t.Errorf("MarshalText = %q, %v", b, err)
	}
	var k Key
	if err := k.UnmarshalText([]byte("tags")); err != nil || k != KeyTags {
		t.Errorf("UnmarshalText = %v, %v", k, err)
	}
	if _, err := Key(42).MarshalText(); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("MarshalText of invalid key error = %v", err)
	}
}

func TestStoreSetGet(t *testing.T) {
	s := NewStore(realDevice())

	if got := s.Get(KeyModel); got != "M2012K11AG" {
		t.Errorf("initial MODEL = %q", got)
	}
	if err := s.Set(KeyModel, "Pixel 5"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if got := s.Get(KeyModel); got != "Pixel 5" {
		t.Errorf("MODEL = %q, want Pixel 5", got)
	}
	if err := s.Set(Key(99), "x"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("Set unknown key error = %v, want ErrUnknownKey", err)
	}
	if s.Incremental() != "V14.0.6.0" {
		t.Errorf("Incremental = %q", s.Incremental())
	}
}

func TestStoreVersion(t *testing.T) {
	s := NewStore(realDevice())
	if got := s.Version(VersionDeviceInitialSDK); got != 30 {
		t.Errorf("initial sdk = %d, want 30", got)
	}
	if err := s.SetVersion(VersionDeviceInitialSDK, 26); err != nil {
		t.Fatalf("SetVersion failed: %v", err)
	}
	if got := s.Version(VersionDeviceInitialSDK); got != 26 {
		t.Errorf("initial sdk = %d, want 26", got)
	}
	if err := s.SetVersion(VersionField(7), 1); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("SetVersion unknown field error = %v", err)
	}
}

func TestStoreSeal(t *testing.T) {
	s := NewStore(realDevice())
	s.Seal()

	if !s.Sealed() {
		t.Fatal("store should be sealed")
	}
	if err := s.Set(KeyModel, "Pixel 5"); !errors.Is(err, ErrSealed) {
		t.Errorf("Set after seal error = %v, want ErrSealed", err)
	}
	if err := s.SetVersion(VersionDeviceInitialSDK, 26); !errors.Is(err, ErrSealed) {
		t.Errorf("SetVersion after seal error = %v, want ErrSealed", err)
	}
	if got := s.Get(KeyModel); got != "M2012K11AG" {
		t.Errorf("sealed MODEL changed to %q", got)
	}
}

func TestStoreSnapshotIsCopy(t *testing.T) {
	s := NewStore(realDevice())
	snap := s.Snapshot()
	snap["MODEL"] = "mutated"

	if s.Get(KeyModel) != "M2012K11AG" {
		t.Error("mutating a snapshot must not change the store")
	}
	if len(snap) != len(Keys) {
		t.Errorf("snapshot has %d keys, want %d", len(snap), len(Keys))
	}
}

func TestProcessFlagsConcurrentReads(t *testing.T) {
	p := NewProcess("com.google.android.gms", "com.google.android.gms.unstable", NewStore(realDevice()))
	p.Flags.MarkCoreService()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !p.Flags.CoreService() || p.Flags.InstallVerifier() || p.Flags.PhotosApp() {
				t.Error("unexpected flag state")
			}
		}()
	}
	wg.Wait()
}
