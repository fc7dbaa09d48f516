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
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cardinalhq/sstable/checksum"
	"github.com/cardinalhq/sstable/compress"
)

func init() {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a data component against its digest file",
		RunE: func(c *cobra.Command, _ []string) error {
			dataFile, err := c.Flags().GetString("data")
			if err != nil {
				return fmt.Errorf("failed to get data flag: %w", err)
			}
			digestFile, err := c.Flags().GetString("digest")
			if err != nil {
				return fmt.Errorf("failed to get digest flag: %w", err)
			}
			infoFile, err := c.Flags().GetString("compression-info")
			if err != nil {
				return fmt.Errorf("failed to get compression-info flag: %w", err)
			}

			return runVerify(dataFile, digestFile, infoFile)
		},
	}

	rootCmd.AddCommand(cmd)

	cmd.Flags().String("data", "", "Data.db file to verify")
	cmd.Flags().String("digest", "", "Digest file recorded at write time")
	cmd.Flags().String("compression-info", "", "CompressionInfo.db file, for compressed tables")
	if err := cmd.MarkFlagRequired("data"); err != nil {
		panic(fmt.Errorf("failed to mark data flag as required: %w", err))
	}
	if err := cmd.MarkFlagRequired("digest"); err != nil {
		panic(fmt.Errorf("failed to mark digest flag as required: %w", err))
	}
}

func runVerify(dataFile, digestFile, infoFile string) error {
	typ, err := digestType(digestFile)
	if err != nil {
		return err
	}
	digest, err := checksum.NewDigest(typ)
	if err != nil {
		return err
	}

	f, err := os.Open(dataFile)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", dataFile, err)
	}
	defer func() {
		_ = f.Close()
	}()

	// The digest always covers the on-disk bytes.
	if _, err := io.Copy(digest, f); err != nil {
		return fmt.Errorf("failed to read %s: %w", dataFile, err)
	}

	want, err := os.ReadFile(digestFile)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", digestFile, err)
	}
	got := digest.String()
	if got != strings.TrimSpace(string(want)) {
		return fmt.Errorf("digest mismatch: computed %s, recorded %s", got, strings.TrimSpace(string(want)))
	}
	fmt.Printf("digest ok (%s %s)\n", typ, got)

	if infoFile == "" {
		return nil
	}

	inf, err := os.Open(infoFile)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", infoFile, err)
	}
	info, err := compress.ReadInfo(inf)
	_ = inf.Close()
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", infoFile, err)
	}

	data, err := compress.ReadAll(f, info)
	if err != nil {
		return fmt.Errorf("chunk verification failed: %w", err)
	}
	fmt.Printf("chunks ok (%d chunks, %d uncompressed bytes)\n", len(info.ChunkOffsets), len(data))
	return nil
}

// digestType reads the checksum algorithm from the digest file suffix,
// e.g. "Digest.xxhash64".
func digestType(path string) (checksum.Type, error) {
	i := strings.LastIndex(path, "Digest.")
	if i < 0 {
		return "", fmt.Errorf("cannot infer checksum type from %s", path)
	}
	typ := checksum.Type(path[i+len("Digest."):])
	if !typ.Valid() {
		return "", fmt.Errorf("unknown checksum type %q in %s", typ, path)
	}
	return typ, nil
}
