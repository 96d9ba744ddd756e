package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/servicehub/internal/config"
	"github.com/kozaktomas/servicehub/internal/database"
	"github.com/kozaktomas/servicehub/internal/facematch"
)

var faceCmd = &cobra.Command{
	Use:   "face",
	Short: "Face embedding, matching and enrollment commands",
}

var faceEmbedCmd = &cobra.Command{
	Use:   "embed <image>",
	Short: "Print the face embedding of an image",
	Long: `Compute the embedding of the first face in an image and print it as JSON.

Uses the face server at FACE_SERVER_URL when reachable, otherwise the
deterministic fallback encoder.

Examples:
  servicehub face embed photo.jpg`,
	Args: cobra.ExactArgs(1),
	RunE: runFaceEmbed,
}

var faceMatchCmd = &cobra.Command{
	Use:   "match <image>",
	Short: "Find the enrolled identity closest to the face in an image",
	Long: `Extract the embedding of an image and match it against every enrollment.

Examples:
  # Use the default threshold of the active encoder
  servicehub face match visitor.jpg

  # Stricter matching
  servicehub face match visitor.jpg --threshold 0.45

  # Output as JSON
  servicehub face match visitor.jpg --json`,
	Args: cobra.ExactArgs(1),
	RunE: runFaceMatch,
}

func init() {
	rootCmd.AddCommand(faceCmd)
	faceCmd.AddCommand(faceEmbedCmd)
	faceCmd.AddCommand(faceMatchCmd)

	faceMatchCmd.Flags().Float64("threshold", 0, "Maximum Euclidean distance for a match (0 = encoder default)")
	faceMatchCmd.Flags().Bool("json", false, "Output as JSON")
}

// EmbedOutput is printed by face embed
type EmbedOutput struct {
	Image     string                `json:"image"`
	Encoder   facematch.EncoderKind `json:"encoder"`
	Embedding facematch.Embedding   `json:"embedding"`
}

// MatchOutput is printed by face match --json
type MatchOutput struct {
	Image       string                 `json:"image"`
	Encoder     facematch.EncoderKind  `json:"encoder"`
	Threshold   float64                `json:"threshold"`
	Enrollments int                    `json:"enrollments"`
	Match       *facematch.MatchResult `json:"match"`
}

func outputJSON(data any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}
	return nil
}

// extractFile reads an image file and computes its embedding.
func extractFile(ctx context.Context, x *facematch.Extractor, path string) (facematch.Embedding, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the command line
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	emb, err := x.Extract(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return emb, nil
}

func runFaceEmbed(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := config.Load()

	x := facematch.NewExtractor(newFaceSelector(cfg).Encoder(ctx))
	emb, err := extractFile(ctx, x, args[0])
	if errors.Is(err, facematch.ErrNoFaceFound) {
		return outputJSON(EmbedOutput{Image: args[0], Encoder: x.Kind()})
	}
	if err != nil {
		return err
	}
	return outputJSON(EmbedOutput{Image: args[0], Encoder: x.Kind(), Embedding: emb})
}

func runFaceMatch(cmd *cobra.Command, args []string) error {
	threshold := mustGetFloat64(cmd, "threshold")
	jsonOutput := mustGetBool(cmd, "json")

	ctx := context.Background()
	cfg := config.Load()

	if _, err := initStorage(cfg); err != nil {
		return err
	}
	enrollments, err := database.GetEnrollmentReader(ctx)
	if err != nil {
		return fmt.Errorf("failed to get enrollment reader: %w", err)
	}

	x := facematch.NewExtractor(newFaceSelector(cfg).Encoder(ctx))
	if threshold <= 0 {
		threshold = cfg.Face.ThresholdFor(x.Kind())
	}

	emb, err := extractFile(ctx, x, args[0])
	if err != nil {
		return err
	}

	stored, err := enrollments.ListEnrollments(ctx)
	if err != nil {
		return fmt.Errorf("failed to load enrollments: %w", err)
	}
	result := facematch.Match(emb, database.EnrollmentRecords(stored, x.Kind()), threshold)

	if jsonOutput {
		return outputJSON(MatchOutput{
			Image:       args[0],
			Encoder:     x.Kind(),
			Threshold:   threshold,
			Enrollments: len(stored),
			Match:       result,
		})
	}

	fmt.Printf("Compared %s against %d enrollments (encoder %s, threshold %.2f)\n",
		filepath.Base(args[0]), len(stored), x.Kind(), threshold)
	if result == nil {
		fmt.Println("No match")
		return nil
	}
	fmt.Printf("Match: %s (distance %.4f)\n", result.Identity, result.Distance)
	return nil
}

// identityFromPath derives an identity from an image file name: "alice_2.jpg" -> "alice".
func identityFromPath(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if idx := strings.LastIndex(name, "_"); idx > 0 {
		suffix := name[idx+1:]
		if suffix != "" && strings.Trim(suffix, "0123456789") == "" {
			name = name[:idx]
		}
	}
	return name
}
