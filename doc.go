// Package angrnative builds the angr_native shared library while the angr
// Python package is being packaged.
//
// The package drives an external build tool over the native sources, pointing
// it at the headers and libraries of the installed unicorn and pyvex packages,
// and installs the resulting library into the package's runtime data
// directory. It hooks this step into the packaging lifecycle so that "build",
// "develop", "install" and the bdist commands always ship a fresh library.
//
// # Basic Usage
//
// Build and install the library directly:
//
//	config := &angrnative.BuildConfig{
//	    ProjectDir: "/path/to/angr",
//	    Finder:     &angrnative.PythonFinder{Python: "python3"},
//	}
//
//	result, err := angrnative.BuildNative(ctx, config)
//
// Or hook it into the packaging commands:
//
//	toolchain := &angrnative.ExternalToolchain{
//	    Frontend: []string{"python3", "setup.py"},
//	    Dir:      "/path/to/angr",
//	}
//	registry := angrnative.NewRegistry(toolchain)
//	err := angrnative.InjectHooks(ctx, registry, toolchain, angrnative.NativeBuildStep(config), logger)
//
//	argv, _ := angrnative.ApplyPlatformTag(os.Args[1:], angrnative.DetectHost())
//	err = registry.Run(ctx, argv)
//
// # Architecture
//
//	Registry (cmdclass)
//	├── build       → HookedCommand → BuildNative → toolchain "build"
//	├── develop     → HookedCommand → BuildNative → toolchain "develop" (when offered)
//	├── install     → HookedCommand → BuildNative → toolchain "install"
//	└── bdist_wheel → HookedCommand → BuildNative → toolchain "bdist_wheel" (and other bdist*)
//
//	BuildNative runs at most once per Registry.Run.
//
//	BuildNative
//	├── RequirePackages (MissingPrerequisiteError)
//	├── Locate          (Overlay of dependency paths)
//	├── Dispatch        (nmake /f Makefile-win, then make; BuildToolError)
//	└── InstallArtifact (angr/lib/angr_native.{so,dylib,dll})
//
// # Build Tool Fallback
//
// Dispatch only falls through to the next candidate when the current one
// cannot be started. A tool that starts and fails ends the build.
//
// # Platform Support
//
// Linux, macOS and Windows. Linux wheels are tagged manylinux1_<machine>.
package angrnative
