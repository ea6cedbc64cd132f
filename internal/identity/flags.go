package identity

import "sync/atomic"

// ProcessFlags are set once while the engine runs and read later by the
// attestation guard from arbitrary goroutines.
type ProcessFlags struct {
	coreService     atomic.Bool
	installVerifier atomic.Bool
	photosApp       atomic.Bool
}

func (f *ProcessFlags) MarkCoreService()     { f.coreService.Store(true) }
func (f *ProcessFlags) MarkInstallVerifier() { f.installVerifier.Store(true) }
func (f *ProcessFlags) MarkPhotosApp()       { f.photosApp.Store(true) }

// CoreService reports whether the legacy identity path claimed this process.
func (f *ProcessFlags) CoreService() bool { return f.coreService.Load() }

// InstallVerifier reports whether the process is the store client.
func (f *ProcessFlags) InstallVerifier() bool { return f.installVerifier.Load() }

func (f *ProcessFlags) PhotosApp() bool { return f.photosApp.Load() }

// Process is the per-process context threaded from the engine to the guard.
type Process struct {
	PackageName string
	ProcessName string
	Store       *Store
	Flags       *ProcessFlags
}

// NewProcess
func NewProcess(packageName, processName string, store *Store) *Process {
	return &Process{
		PackageName: packageName,
		ProcessName: processName,
		Store:       store,
		Flags:       &ProcessFlags{},
	}
}
