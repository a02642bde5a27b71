package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"orthofuse/internal/models"
	"orthofuse/pkg/config"
	"orthofuse/pkg/reconstruction"
)

func main() {
	// Parse command line arguments. Flags left unset keep the value from the
	// config file (or its defaults).
	configPath := flag.String("config", "orthofuse.yaml", "YAML configuration file")
	writeConfig := flag.Bool("write-config", false, "Write the default configuration to -config and exit")
	axial := flag.String("axial", "", "Axial scan (raw float32, .zst or .npy)")
	coronal := flag.String("coronal", "", "Coronal scan (raw float32, .zst or .npy)")
	sagittal := flag.String("sagittal", "", "Sagittal scan (raw float32, .zst or .npy)")
	truth := flag.String("truth", "", "Optional isotropic reference volume for validation metrics")
	output := flag.String("output", "", "Output path of the fused volume")
	format := flag.String("format", "", "Output format: raw or npy")
	dim := flag.Int("dim", 0, "Isotropic extent of the fused volume")
	cubeSize := flag.Int("cube", 0, "Ratio between coarse and isotropic resolution")
	byteOrder := flag.String("byte-order", "", "Byte order of raw samples: little or big")
	numCores := flag.Int("cores", 0, "Number of CPU cores to use (default: all available)")
	solver := flag.String("solver", "", "Least-squares backend: svd or qr")
	previewDir := flag.String("preview", "", "Directory to save JPEG preview slices")
	quiet := flag.Bool("quiet", false, "Suppress progress output")
	flag.Parse()

	if *writeConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		fmt.Printf("Default configuration written to %s\n", *configPath)
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	setString(&cfg.Input.Axial, *axial)
	setString(&cfg.Input.Coronal, *coronal)
	setString(&cfg.Input.Sagittal, *sagittal)
	setString(&cfg.Input.Truth, *truth)
	setString(&cfg.Output.Path, *output)
	setString(&cfg.Output.Format, *format)
	setString(&cfg.Output.PreviewDir, *previewDir)
	setString(&cfg.Volume.ByteOrder, *byteOrder)
	setString(&cfg.Processing.Solver, *solver)
	setInt(&cfg.Volume.Dim, *dim)
	setInt(&cfg.Volume.CubeSize, *cubeSize)
	setInt(&cfg.Processing.NumCores, *numCores)
	if *quiet {
		cfg.Output.Verbose = false
	}

	if cfg.Output.Verbose {
		fmt.Println("================================")
		fmt.Println("FUSION OF ORTHOGONAL SCANS INTO AN ISOTROPIC VOLUME")
		fmt.Println("================================")
		fmt.Printf("Target: %d³ voxels, cube size %d, %d thick slices per scan\n",
			cfg.Volume.Dim, cfg.Volume.CubeSize, cfg.Depth())
	}

	reconstructor := reconstruction.NewReconstructor(cfg)

	startTime := time.Now()
	if err := reconstructor.Process(); err != nil {
		log.Fatalf("Reconstruction failed: %v", err)
	}
	processingTime := time.Since(startTime)

	if !cfg.Output.Verbose {
		return
	}

	metrics := reconstructor.GetMetrics()
	fmt.Printf("\nReconstruction completed successfully in %.2f seconds!\n", processingTime.Seconds())
	fmt.Printf("Fused volume saved to: %s\n\n", cfg.Output.Path)

	fmt.Printf("Validation Metrics:\n")
	fmt.Printf("===================\n")
	for _, scan := range models.Scans {
		fmt.Printf("Consistency RMSE (%s): %.6g\n", scan, metrics.Consistency[scan])
	}
	if metrics.HasTruth {
		fmt.Printf("Root Mean Square Error (RMSE): %.6g\n", metrics.RMSE)
		fmt.Printf("Peak Signal-to-Noise Ratio (PSNR): %.2f dB\n", metrics.PSNR)
		fmt.Printf("Correlation: %.4f\n", metrics.Correlation)
		fmt.Printf("Structural Similarity Index (SSIM): %.4f\n", metrics.SSIM)
	}
}

func setString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

func setInt(dst *int, value int) {
	if value > 0 {
		*dst = value
	}
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Fuses axial, coronal and sagittal thick-slice scans into one isotropic volume.\n\n")
		flag.PrintDefaults()
	}
}
