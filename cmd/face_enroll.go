package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/servicehub/internal/config"
	"github.com/kozaktomas/servicehub/internal/constants"
	"github.com/kozaktomas/servicehub/internal/database"
	"github.com/kozaktomas/servicehub/internal/facematch"
)

var faceEnrollCmd = &cobra.Command{
	Use:   "enroll <image-or-directory>...",
	Short: "Enroll face images in bulk",
	Long: `Compute embeddings for image files and store them as enrollments.

Each image is enrolled under the identity given by --user, or else under its
file name without extension and numeric suffix ("alice_2.jpg" -> "alice").
Directories are scanned (not recursively) for .jpg, .jpeg, .png, .gif, .bmp
and .webp files. Images without a detectable face are skipped.

Examples:
  # Enroll a directory of labelled photos with 8 workers
  servicehub face enroll ./faces --concurrency 8

  # Enroll two photos of one person
  servicehub face enroll a.jpg b.jpg --user u-123`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFaceEnroll,
}

func init() {
	faceCmd.AddCommand(faceEnrollCmd)

	faceEnrollCmd.Flags().Int("concurrency", constants.WorkerPoolSize, "Number of parallel workers")
	faceEnrollCmd.Flags().String("user", "", "Identity for every image (default: derived from file name)")
	faceEnrollCmd.Flags().Bool("json", false, "Output as JSON instead of progress bar")
}

// EnrollResult is the outcome of a batch enrollment
type EnrollResult struct {
	Success  bool     `json:"success"`
	Images   int      `json:"images"`
	Enrolled int64    `json:"enrolled"`
	NoFace   int64    `json:"no_face"`
	Errors   int64    `json:"errors"`
	Failed   []string `json:"failed,omitempty"`
}

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".bmp": true, ".webp": true,
}

// collectImages expands directories into their image files, sorted by name.
func collectImages(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", arg, err)
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("reading directory %s: %w", arg, err)
		}
		var dirFiles []string
		for _, e := range entries {
			if !e.IsDir() && imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
				dirFiles = append(dirFiles, filepath.Join(arg, e.Name()))
			}
		}
		sort.Strings(dirFiles)
		files = append(files, dirFiles...)
	}
	return files, nil
}

// enrollFiles extracts and stores an enrollment for every file using a bounded worker pool.
// progress is called once per processed file. Every constants.IndexSaveInterval
// enrollments the similarity index is saved.
func enrollFiles(
	ctx context.Context, x *facematch.Extractor, writer database.EnrollmentWriter,
	files []string, user string, concurrency int, progress func(),
) EnrollResult {
	if concurrency <= 0 {
		concurrency = 1
	}

	result := EnrollResult{Images: len(files)}
	var failedMu sync.Mutex
	fail := func(path string) {
		atomic.AddInt64(&result.Errors, 1)
		failedMu.Lock()
		result.Failed = append(result.Failed, path)
		failedMu.Unlock()
	}

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for _, file := range files {
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			defer progress()

			sem <- struct{}{}
			defer func() { <-sem }()

			emb, err := extractFile(ctx, x, path)
			if errors.Is(err, facematch.ErrNoFaceFound) {
				atomic.AddInt64(&result.NoFace, 1)
				return
			}
			if err != nil {
				fail(path)
				return
			}

			identity := user
			if identity == "" {
				identity = identityFromPath(path)
			}
			enrollment := &database.StoredEnrollment{
				Identity:  identity,
				Embedding: emb,
				Encoder:   string(x.Kind()),
				Meta:      map[string]any{"source": filepath.Base(path)},
			}
			if err := writer.SaveEnrollment(ctx, enrollment); err != nil {
				fail(path)
				return
			}

			if n := atomic.AddInt64(&result.Enrolled, 1); n%constants.IndexSaveInterval == 0 {
				saveIndexQuietly()
			}
		}(file)
	}

	wg.Wait()
	sort.Strings(result.Failed)
	result.Success = result.Errors == 0
	return result
}

func saveIndexQuietly() {
	if rebuilder := database.GetEnrollmentIndexRebuilder(); rebuilder != nil && rebuilder.IsIndexEnabled() {
		_ = rebuilder.SaveIndex()
	}
}

func runFaceEnroll(cmd *cobra.Command, args []string) error {
	concurrency := mustGetInt(cmd, "concurrency")
	user := strings.TrimSpace(mustGetString(cmd, "user"))
	jsonOutput := mustGetBool(cmd, "json")

	ctx := context.Background()
	cfg := config.Load()
	if !cmd.Flags().Changed("concurrency") && cfg.Face.Workers > 0 {
		concurrency = cfg.Face.Workers
	}

	files, err := collectImages(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return errors.New("no image files found")
	}

	enrollmentRepo, err := initStorage(cfg)
	if err != nil {
		return err
	}
	if cfg.Database.FaceIndexPath != "" {
		initEnrollmentIndex(ctx, enrollmentRepo, cfg.Database.FaceIndexPath)
	}

	x := facematch.NewExtractor(newFaceSelector(cfg).Encoder(ctx))
	if !jsonOutput {
		fmt.Printf("Enrolling %d images with the %s encoder\n\n", len(files), x.Kind())
	}

	progress := func() {}
	if !jsonOutput {
		bar := progressbar.NewOptions(len(files),
			progressbar.OptionSetDescription("Enrolling faces"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("images"),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionFullWidth(),
		)
		progress = func() { _ = bar.Add(1) }
	}

	result := enrollFiles(ctx, x, enrollmentRepo, files, user, concurrency, progress)
	saveIndexQuietly()

	if jsonOutput {
		return outputJSON(result)
	}

	fmt.Println()
	fmt.Printf("\nCompleted: %d enrolled, %d without a face, %d errors\n", result.Enrolled, result.NoFace, result.Errors)
	for _, f := range result.Failed {
		fmt.Printf("  failed: %s\n", f)
	}
	if count, err := enrollmentRepo.Count(ctx); err == nil {
		fmt.Printf("Total enrollments in database: %d\n", count)
	}
	return nil
}
