// Copyright (C) 2026 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "toc",
		Short: "List a table's components and whether each file exists",
		RunE: func(c *cobra.Command, _ []string) error {
			filename, err := c.Flags().GetString("file")
			if err != nil {
				return fmt.Errorf("failed to get file flag: %w", err)
			}

			return runTOC(filename)
		},
	}

	rootCmd.AddCommand(cmd)

	cmd.Flags().String("file", "", "TOC.txt file to read")
	if err := cmd.MarkFlagRequired("file"); err != nil {
		panic(fmt.Errorf("failed to mark file flag as required: %w", err))
	}
}

func runTOC(filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", filename, err)
	}
	defer func() {
		_ = f.Close()
	}()

	dir := filepath.Dir(filename)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		name := scanner.Text()
		if name == "" {
			continue
		}
		status := "ok"
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			status = "MISSING"
		}
		fmt.Printf("%-8s %s\n", status, name)
	}
	return scanner.Err()
}
