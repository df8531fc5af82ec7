package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	pyext "github.com/contriboss/python-extension-go"
)

var buildCmd = &cobra.Command{
	Use:     "build",
	Aliases: []string{"bdist", "build_py"},
	Short:   "Build with CMake and package the install tree",
	Long: `Run CMake's configure and install stages into a temporary prefix, then
package the files the manifest selects from that prefix.

Toggles such as NB_USE_SUBMODULE_DEPS are read from the environment
(or toggles.<name> in the config file) and passed to CMake verbatim.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPackaging(cmd, pyext.BinaryBuild)
	},
}

var sdistCmd = &cobra.Command{
	Use:   "sdist",
	Short: "Package the repository sources",
	Long: `Package the files the manifest selects from the repository root.
CMake is not required and never invoked.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPackaging(cmd, pyext.SourceDist)
	},
}

func runPackaging(cmd *cobra.Command, mode pyext.Mode) error {
	req := pyext.Request{
		Mode:     mode,
		RepoRoot: repoRoot(),
		Packager: &pyext.ArchivePackager{
			OutDir:      settings.GetString("out_dir"),
			Compression: settings.GetString("compression"),
			Logger:      logger,
		},
	}

	if mode == pyext.BinaryBuild {
		req.Config = project.BuildConfig(req.RepoRoot, toggleLookup(settings))
		req.Config.Verbose = settings.GetBool("verbose")
		req.Producer = newProducer(project, logger)

		for _, toggle := range req.Config.Toggles {
			logger.Debug("toggle", "name", toggle.Name, "value", toggle.Value)
		}
	}

	artifact, err := pyext.Run(cmd.Context(), dist, req)
	if err != nil {
		return fmt.Errorf("%s: %w", mode, err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), artifact)
	return nil
}
