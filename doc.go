// Package pyext packages a CMake-built native library as a Python
// distribution.
//
// It bridges a configure -> build -> install pipeline with a packager that
// expects a flat tree of files, and decides per packaging command which
// tree that is.
//
// # Packaging Modes
//
//   - BinaryBuild - run CMake's configure and install stages into a
//     temporary prefix, then package that prefix
//   - SourceDist - package the repository as-is; CMake is never invoked
//
// # Basic Usage
//
//	project := pyext.DefaultProject()
//
//	dist, err := pyext.LoadDistribution(repoRoot, project)
//	if err != nil {
//	    return err // e.g. a missing NB_VERSION_PATCH
//	}
//
//	artifact, err := pyext.Run(ctx, dist, pyext.Request{
//	    Mode:     pyext.BinaryBuild,
//	    RepoRoot: repoRoot,
//	    Config:   project.BuildConfig(repoRoot, os.LookupEnv),
//	    Producer: &pyext.Orchestrator{Prefix: project.Name},
//	    Packager: &pyext.ArchivePackager{OutDir: "dist"},
//	})
//
// # Architecture
//
//	Run
//	├── SelectRoot (BinaryBuild | SourceDist)
//	│   └── Orchestrator.ProduceInstallTree (BinaryBuild only)
//	│       └── BuildTool: CMakeTool.Configure, CMakeTool.Install
//	├── Distribution.SetRoot
//	└── Packager.Package (manifest patterns against the active root)
//
// # Errors
//
// ErrToolNotFound, *StageError and *VersionFieldError are all fatal. None
// is retried and there is no fallback from a binary to a source build.
//
// # Requirements
//
// Requires Go 1.25 or later and, for binary builds, cmake on PATH.
package pyext
