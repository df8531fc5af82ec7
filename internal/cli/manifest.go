package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	pyext "github.com/contriboss/python-extension-go"
)

var (
	manifestMode string
	manifestRoot string
)

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "List the files a packaging command would ship",
	Long: `Evaluate the manifest patterns against the active root of the given mode
and print the selected files, one per line, prefixed with the package name.

With --mode bdist the CMake stages run first, unless --root points at an
existing install tree.`,
	Args: cobra.NoArgs,
	RunE: runManifest,
}

func init() {
	manifestCmd.Flags().StringVar(&manifestMode, "mode", "sdist", "packaging mode (sdist, bdist)")
	manifestCmd.Flags().StringVar(&manifestRoot, "root", "", "evaluate patterns against this directory instead")
}

func runManifest(cmd *cobra.Command, args []string) error {
	mode, err := pyext.ParseMode(manifestMode)
	if err != nil {
		return err
	}

	root := manifestRoot
	if root == "" {
		var producer pyext.InstallTreeProducer
		var config *pyext.BuildConfig
		if mode == pyext.BinaryBuild {
			config = project.BuildConfig(repoRoot(), toggleLookup(settings))
			producer = newProducer(project, logger)
		}

		sel, err := pyext.SelectRoot(cmd.Context(), mode, repoRoot(), producer, config)
		if err != nil {
			return err
		}
		defer sel.Close()
		root = sel.Root
	}

	out := cmd.OutOrStdout()
	for _, pkg := range dist.Manifest {
		files, err := pkg.Collect(root)
		if err != nil {
			return err
		}
		for _, f := range files {
			fmt.Fprintf(out, "%s\t%s\n", pkg.Name, f)
		}
	}

	return nil
}
