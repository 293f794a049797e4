// arcinspect is a small diagnostic CLI over an arcvault archive: given a
// path on disk and a path string (hashed with hash40.FromStr), print what
// the archive knows about it.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/kamiya-labs/arcvault"
	"github.com/kamiya-labs/arcvault/hash40"
	"github.com/kamiya-labs/arcvault/region"
)

func main() {
	archivePath := flag.String("archive", "", "path to the archive file")
	labelsPath := flag.String("labels", "", "optional path-label dictionary, one path per line")
	regionCode := flag.String("region", "us_en", "region code to resolve region-specific files under")
	path := flag.String("path", "", "path string to look up (hashed with the archive's string hash)")
	flag.Parse()

	if *archivePath == "" || *path == "" {
		fmt.Fprintln(os.Stderr, "usage: arcinspect -archive data.arc -path fighter/mario/model.nutexb")
		os.Exit(2)
	}

	var opts []arcvault.Option
	var labels *hash40.Labels
	if *labelsPath != "" {
		var err error
		labels, err = hash40.NewLabels()
		if err != nil {
			slog.Error("open label store", "error", err)
			os.Exit(1)
		}
		defer labels.Close()
		if err := labels.LoadFile(*labelsPath); err != nil {
			slog.Error("load labels", "path", *labelsPath, "error", err)
			os.Exit(1)
		}
		opts = append(opts, arcvault.WithLabels(labels))
	}

	slog.Info("opening archive", "path", *archivePath)
	arc, err := arcvault.Open(*archivePath, opts...)
	if err != nil {
		slog.Error("open archive", "error", err)
		os.Exit(1)
	}
	defer arc.Close()

	hash := hash40.FromStr(*path)
	meta, err := arc.FileMetadata(hash, region.Parse(*regionCode))
	if err != nil {
		slog.Error("lookup", "path", *path, "error", err)
		os.Exit(1)
	}

	fmt.Printf("path:        %s\n", *path)
	fmt.Printf("hash:        %#x\n", hash.AsU64())
	fmt.Printf("offset:      %#x\n", meta.Offset)
	fmt.Printf("comp_size:   %d\n", meta.CompSize)
	fmt.Printf("decomp_size: %d\n", meta.DecompSize)
	fmt.Printf("is_stream:   %v\n", meta.IsStream)
	fmt.Printf("is_shared:   %v\n", meta.IsShared)
	fmt.Printf("is_regional: %v\n", meta.IsRegional)
	fmt.Printf("compressed:  %v (zstd=%v)\n", meta.IsCompressed, meta.UsesZstd)
}
