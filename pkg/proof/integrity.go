package proof

import (
	"fmt"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/isl-lang/chaoscore/pkg/canonicalize"
)

// computeIntegrityHash hashes the canonical serialization of the bundle
// with the integrity hash field itself excluded. GeneratedAt is
// informational wall time and is excluded as well: two builds of the same
// run content hash identically.
//
// The exclusion works by hashing a copy with fixed placeholders, never by
// any form of recursive serialization.
func computeIntegrityHash(b *Bundle) (string, error) {
	hashable := *b
	hashable.IntegrityHash = ""
	hashable.GeneratedAt = time.Time{}

	hash, err := canonicalize.CanonicalHash(&hashable)
	if err != nil {
		return "", fmt.Errorf("proof: compute integrity hash: %w", err)
	}
	return hash, nil
}

// VerifyProofIntegrity recomputes the bundle's integrity hash and compares
// it to the stored value. True means the bundle has not been tampered with
// since it was built.
func VerifyProofIntegrity(b *Bundle) (bool, error) {
	if b == nil {
		return false, fmt.Errorf("proof: bundle is nil")
	}
	expected, err := computeIntegrityHash(b)
	if err != nil {
		return false, err
	}
	return expected == b.IntegrityHash, nil
}

// supportedVersions gates which bundle format lines this auditor accepts.
var supportedVersions = semver.MustParse(BundleVersion)

// CheckBundleVersion rejects bundles from an incompatible format line.
// Only the major version participates: a 1.x bundle is readable by any
// 1.y auditor.
func CheckBundleVersion(b *Bundle) error {
	v, err := semver.NewVersion(b.Version)
	if err != nil {
		return fmt.Errorf("proof: unparseable bundle version %q: %w", b.Version, err)
	}
	if v.Major() != supportedVersions.Major() {
		return fmt.Errorf("proof: unsupported bundle version %s (supported line: %d.x)",
			b.Version, supportedVersions.Major())
	}
	return nil
}
