// Copyright 2025 The MetaCache Authors
// This file is part of metacache.
//
// metacache is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// metacache is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with metacache. If not, see <http://www.gnu.org/licenses/>.

// Command metacachectl is a standalone debug tool for the metadata cache:
// it loads a table shape and a file of rows, builds a single MetaCache from
// a column selection and prints the resulting record batch. It exists so
// the configure -> ingest -> prune -> query pipeline can be exercised from
// a shell without a running server, mirroring the teacher repository's own
// single-purpose cmd/ tools.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:   "metacachectl",
		Short: "Inspect a metadata cache built from a table shape and a row file",
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		logger, err := newLogger(verbose)
		if err != nil {
			return err
		}
		cmd.SetContext(withLogger(cmd.Context(), logger))
		return nil
	}
	root.AddCommand(newInspectCmd())
	return root
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	}
	return cfg.Build()
}
