// Package permission answers whether a caller may skip the task-management
// permission check because it is the core host service.
package permission

import (
	"context"
	"fmt"

	"github.com/propguard/propguard/internal/observability/logging"
)

// UIDResolver maps an installed package to its UID.
type UIDResolver interface {
	PackageUID(pkg string) (int, error)
}

// StaticResolver resolves from a fixed map
type StaticResolver map[string]int

func (r StaticResolver) PackageUID(pkg string) (int, error) {
	uid, ok := r[pkg]
	if !ok {
		return 0, fmt.Errorf("package %q not installed", pkg)
	}
	return uid, nil
}

// ShouldBypassTaskPermission reports whether callingUID belongs to
// servicePackage. Resolution failures deny.
func ShouldBypassTaskPermission(ctx context.Context, callingUID int, servicePackage string, r UIDResolver) bool {
	log := logging.From(ctx)
	serviceUID, err := r.PackageUID(servicePackage)
	if err != nil {
		log.Error("permission", "unable to resolve service uid", "package", servicePackage, "error", err.Error())
		return false
	}
	log.Debug("permission", "bypass check", "service_uid", serviceUID, "calling_uid", callingUID)
	return serviceUID == callingUID
}
