// SPDX-License-Identifier: MPL-2.0

package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// fallbackPackage is used when neither config nor pyproject.toml names
// the package under orchestration.
const fallbackPackage = "claasp"

// pyproject is the subset of PEP 621 metadata the orchestrator cares about.
type pyproject struct {
	Project struct {
		Name string `toml:"name"`
	} `toml:"project"`
}

// detectPackageName derives the package name from the target repository's
// pyproject.toml. Detection is best-effort: a missing or unparseable file
// falls back to the historical default rather than failing, because every
// task can still run with an explicitly configured name.
func detectPackageName(repoRoot string) string {
	data, err := os.ReadFile(filepath.Join(repoRoot, "pyproject.toml"))
	if err != nil {
		return fallbackPackage
	}

	var meta pyproject
	if err := toml.Unmarshal(data, &meta); err != nil {
		return fallbackPackage
	}
	if meta.Project.Name == "" {
		return fallbackPackage
	}
	return meta.Project.Name
}
