// SPDX-License-Identifier: MPL-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	root := t.TempDir()
	cfg, err := Load(root, "")
	require.NoError(t, err)

	assert.Equal(t, "master", cfg.TrunkBranch)
	assert.Equal(t, "claasp", cfg.Package)
	assert.Equal(t, ".py", cfg.SourceExt)
	assert.Equal(t, "docker", cfg.ContainerEngine)
	assert.Equal(t, "docker/Dockerfile", cfg.Dockerfile)
	assert.Equal(t, root, cfg.RepoRoot)
}

func TestLoad_PackageFromPyproject(t *testing.T) {
	root := t.TempDir()
	pyproject := "[project]\nname = \"mathlib\"\nversion = \"1.0.0\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "pyproject.toml"), []byte(pyproject), 0o644))

	cfg, err := Load(root, "")
	require.NoError(t, err)
	assert.Equal(t, "mathlib", cfg.Package)
}

func TestLoad_BrokenPyprojectFallsBack(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "pyproject.toml"), []byte("not toml ["), 0o644))

	cfg, err := Load(root, "")
	require.NoError(t, err)
	assert.Equal(t, fallbackPackage, cfg.Package)
}

func TestLoad_RepoConfigFile(t *testing.T) {
	root := t.TempDir()
	content := "trunk_branch = \"main\"\npackage = \"mathlib\"\nimage_name = \"mathlib-dev\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, ".sagemake.toml"), []byte(content), 0o644))

	cfg, err := Load(root, "")
	require.NoError(t, err)
	assert.Equal(t, "main", cfg.TrunkBranch)
	assert.Equal(t, "mathlib", cfg.Package)
	assert.Equal(t, "mathlib-dev", cfg.ImageName)
}

func TestLoad_ExplicitConfigFileMustExist(t *testing.T) {
	_, err := Load(t.TempDir(), filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoad_TestedModuleEnvOverride(t *testing.T) {
	t.Setenv("TESTED_MODULE", "claasp/cipher_modules")

	cfg, err := Load(t.TempDir(), "")
	require.NoError(t, err)
	assert.Equal(t, "claasp/cipher_modules", cfg.TestedModule)
	assert.Equal(t, "claasp/cipher_modules", cfg.FullSuiteTarget())
}

func TestFullSuiteTarget_DefaultsToPackage(t *testing.T) {
	cfg, err := Load(t.TempDir(), "")
	require.NoError(t, err)
	assert.Equal(t, cfg.Package, cfg.FullSuiteTarget())
}

func TestLoad_DotenvFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte("TESTED_MODULE=claasp/utils\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("TESTED_MODULE") })

	cfg, err := Load(root, "")
	require.NoError(t, err)
	assert.Equal(t, "claasp/utils", cfg.TestedModule)
}
