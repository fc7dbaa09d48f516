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
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cardinalhq/sstable/metadata"
)

func init() {
	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Print the statistics component of a table",
		RunE: func(c *cobra.Command, _ []string) error {
			filename, err := c.Flags().GetString("file")
			if err != nil {
				return fmt.Errorf("failed to get file flag: %w", err)
			}

			return runDescribe(filename)
		},
	}

	rootCmd.AddCommand(cmd)

	cmd.Flags().String("file", "", "Statistics.db file to read")
	if err := cmd.MarkFlagRequired("file"); err != nil {
		panic(fmt.Errorf("failed to mark file flag as required: %w", err))
	}
}

func runDescribe(filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", filename, err)
	}
	defer func() {
		_ = f.Close()
	}()

	components, err := metadata.Read(f)
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", filename, err)
	}

	if v, ok := components[metadata.TypeValidation].(metadata.ValidationMetadata); ok {
		fmt.Printf("partitioner:           %s\n", v.PartitionerName)
		fmt.Printf("bloom filter fp chance: %g\n", v.BloomFilterFPChance)
	}
	if s, ok := components[metadata.TypeStats].(metadata.StatsMetadata); ok {
		fmt.Printf("partitions:            %d (estimated %d)\n", s.PartitionCount, s.EstimatedPartitionCount)
		fmt.Printf("rows:                  %d\n", s.RowCount)
		fmt.Printf("cells:                 %d\n", s.CellCount)
		fmt.Printf("tombstones:            %d\n", s.TombstoneCount)
		fmt.Printf("data length:           %d\n", s.TotalDataLength)
		fmt.Printf("timestamp range:       [%d, %d]\n", s.MinTimestamp, s.MaxTimestamp)
		fmt.Printf("local deletion range:  [%d, %d]\n", s.MinLocalDeletionTime, s.MaxLocalDeletionTime)
		if s.CompressionRatio == metadata.NoCompressionRatio {
			fmt.Printf("compression:           none\n")
		} else {
			fmt.Printf("compression ratio:     %.4f\n", s.CompressionRatio)
		}
		fmt.Printf("repaired at:           %d\n", s.RepairedAt)
	}
	if h, ok := components[metadata.TypeHeader].(metadata.SerializationHeader); ok {
		fmt.Printf("key type:              %s\n", h.KeyType)
		fmt.Printf("clustering types:      %v\n", h.ClusteringTypes)
		fmt.Printf("columns:               %v\n", h.Columns)
	}
	return nil
}
