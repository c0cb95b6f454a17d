package angrnative

import (
	"context"
)

var defaultSteps = nativeBuildSteps{
	RequireFunc:  requirePackages,
	LocateFunc:   locateDependencies,
	DispatchFunc: dispatchBuild,
	InstallFunc:  installArtifact,
}

// BuildNative builds angr_native and installs it into the runtime data directory.
//
// # Process Flow
//
//  1. Check that the upstream packages are importable
//  2. Resolve the dependency overlay
//  3. Run the build tool candidates in the native directory
//  4. Replace the runtime data directory with the fresh artifact
//
// If any step fails, processing stops and the error is returned unmodified
// with Success=false. A MissingPrerequisiteError is returned before any build
// tool runs; build tool failures are *BuildToolError values.
func BuildNative(ctx context.Context, config *BuildConfig) (*BuildResult, error) {
	return runNativeBuild(ctx, config, defaultSteps)
}

func runNativeBuild(ctx context.Context, config *BuildConfig, steps nativeBuildSteps) (*BuildResult, error) {
	result := &BuildResult{
		Success: false,
		Output:  []string{},
	}

	cfg, err := config.resolved()
	if err != nil {
		result.Error = err
		return result, err
	}

	// Step 1: Prerequisites
	if err := steps.RequireFunc(ctx, cfg); err != nil {
		result.Error = err
		return result, err
	}

	// Step 2: Dependency overlay
	result.Overlay = steps.LocateFunc(ctx, cfg)
	cfg.Logger.Debug("resolved dependency paths", "count", len(result.Overlay))

	// Step 3: Build tool
	if err := steps.DispatchFunc(ctx, cfg, result.Overlay, result); err != nil {
		result.Error = err
		return result, err
	}

	// Step 4: Install
	artifact, err := steps.InstallFunc(cfg)
	if err != nil {
		result.Error = err
		return result, err
	}

	result.Artifact = artifact
	result.Success = true
	cfg.Logger.Info("installed native library", "artifact", artifact, "tool", result.Command.Program())
	return result, nil
}
