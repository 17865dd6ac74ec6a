// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/invowk/rtenv/pkg/checksum"
)

func newHashCommand(app *App) *cobra.Command {
	var algorithm string

	cmd := &cobra.Command{
		Use:   "hash <file>...",
		Short: "Print file digests for use in manifests",
		Long: `Print the digest of each file, one per line, in the same format as
sha1sum. SHA-1 digests go into the hash field of an asset as-is; other
algorithms must be written with their prefix, e.g. "sha256:<hex>".`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			alg := checksum.Algorithm(algorithm)
			if err := alg.Validate(); err != nil {
				return err
			}

			hasher := checksum.New(app.fs)
			for _, path := range args {
				sum, err := hasher.SumWith(path, alg)
				if err != nil {
					return err
				}
				if alg != checksum.AlgorithmSHA1 {
					sum = alg.String() + ":" + sum
				}
				fmt.Fprintf(app.stdout, "%s  %s\n", sum, path)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&algorithm, "algorithm", "a", string(checksum.AlgorithmSHA1), "digest algorithm: sha1, sha256 or sha512")
	return cmd
}
