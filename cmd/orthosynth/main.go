// Command orthosynth produces axial, coronal and sagittal thick-slice scans
// from an isotropic volume, in the layout orthofuse expects as input.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"orthofuse/internal/models"
	"orthofuse/pkg/config"
	"orthofuse/pkg/fusion"
	"orthofuse/pkg/reconstruction"
	"orthofuse/pkg/volumeio"
)

func main() {
	input := flag.String("input", "", "Isotropic volume (.npy, or raw float32 with -dim)")
	outputDir := flag.String("output", ".", "Directory receiving AXL, COR and SAG")
	dim := flag.Int("dim", 0, "Extent of a raw input volume along every axis")
	cubeSize := flag.Int("cube", 3, "Ratio between coarse and isotropic resolution")
	byteOrder := flag.String("byte-order", "little", "Byte order of raw samples: little or big")
	compress := flag.Bool("zstd", false, "Compress the scans with zstd")
	flag.Parse()

	if *input == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg := config.DefaultConfig()
	cfg.Volume.Dim = *dim
	cfg.Volume.CubeSize = *cubeSize
	cfg.Volume.ByteOrder = *byteOrder
	order, err := cfg.ByteOrder()
	if err != nil {
		log.Fatalf("Invalid byte order: %v", err)
	}

	var truth *models.Volume
	if volumeio.IsNpy(*input) {
		truth, err = volumeio.ReadNpy(*input)
	} else {
		truth, err = volumeio.ReadRaw(*input, [3]int{*dim, *dim, *dim}, order)
	}
	if err != nil {
		log.Fatalf("Failed to load %s: %v", *input, err)
	}

	if truth.Shape[0] != truth.Shape[1] || truth.Shape[1] != truth.Shape[2] {
		log.Fatalf("Input must be cubic, got shape %v", truth.Shape)
	}
	layout, err := fusion.NewCubeLayout(*cubeSize)
	if err != nil {
		log.Fatalf("Invalid cube size: %v", err)
	}
	if err := layout.CheckExtent(truth.Shape[0]); err != nil {
		log.Fatalf("Invalid geometry: %v", err)
	}

	native, err := reconstruction.SynthesizeScans(truth, *cubeSize)
	if err != nil {
		log.Fatalf("Failed to synthesize scans: %v", err)
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	names := map[models.Scan]string{
		models.Axial:    "AXL",
		models.Coronal:  "COR",
		models.Sagittal: "SAG",
	}
	for _, scan := range models.Scans {
		name := names[scan]
		if *compress {
			name += ".zst"
		}
		path := filepath.Join(*outputDir, name)
		if err := volumeio.WriteRaw(path, native[scan], order); err != nil {
			log.Fatalf("Failed to write %s scan: %v", scan, err)
		}
		fmt.Printf("Wrote %s scan %v to %s\n", scan, native[scan].Shape, path)
	}
}
