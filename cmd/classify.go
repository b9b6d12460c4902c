package cmd

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-sorter/internal/classifier"
	"github.com/kozaktomas/face-sorter/internal/constants"
	"github.com/kozaktomas/face-sorter/internal/faceapi"
	"github.com/kozaktomas/face-sorter/internal/facematch"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <person-group>",
	Short: "Sort unclassified photos into per-person folders",
	Long: `Sort the photos in faces/unclassified/ using a trained person group.

Every photo is copied into faces/output/<person>/ for each recognized person.
Photos without faces go to "no face found", photos with unknown faces get an
annotated copy in "some faces not recognized" and photos the service could
not identify go to "api_error". Processed photos are removed from
faces/unclassified/, videos are deleted.

Example:
  face-sorter classify family
  face-sorter classify family --route-detection-errors`,
	Args: cobra.ExactArgs(1),
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)

	classifyCmd.Flags().Bool("route-detection-errors", false, "Copy photos whose face detection failed to api_error instead of dropping them")
	classifyCmd.Flags().Int("max-image-size", 0, "Longest side of the image sent to the service (0 = config value)")
	classifyCmd.Flags().Bool("no-progress", false, "Hide the progress bar")
}

func runClassify(cmd *cobra.Command, args []string) error {
	groupID := args[0]

	cfg, layout, client, err := setup(groupID)
	if err != nil {
		return err
	}

	maxImageSize := mustGetInt(cmd, "max-image-size")
	if maxImageSize <= 0 {
		maxImageSize = cfg.Settings.MaxImageSize
	}
	routeDetectionErrors := mustGetBool(cmd, "route-detection-errors") || cfg.Settings.RouteDetectionErrors

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("Classifying photos in: %s\n", layout.Unclassified())
	fmt.Printf("Person group: %s\n", groupID)
	fmt.Printf("Rate limit: %d requests per minute\n\n", cfg.Settings.RequestsPerMinute)

	c := classifier.New(client, layout, newLogger())
	result, err := c.Run(ctx, classifier.Options{
		PersonGroupID:        groupID,
		MaxImageSize:         maxImageSize,
		RouteDetectionErrors: routeDetectionErrors,
		ShowProgress:         !mustGetBool(cmd, "no-progress"),
	})
	if result != nil {
		printClassifyResult(result)
	}
	if err != nil {
		if errors.Is(err, faceapi.ErrUnauthorized) {
			return fmt.Errorf("classification stopped, check the face API key and endpoint: %w", err)
		}
		return fmt.Errorf("classification stopped: %w", err)
	}

	fmt.Printf("\nDone! Sorted photos are in %s\n", layout.Output())
	return nil
}

func printClassifyResult(result *classifier.Result) {
	fmt.Printf("\nProcessed: %d photos\n", result.ProcessedCount)
	if result.ProcessedCount == 0 {
		return
	}
	fmt.Printf("  %-27s%d\n", "With recognized persons:", result.Counts[facematch.BucketRecognized])
	fmt.Printf("  %-27s%d\n", "With unrecognized faces:", result.Counts[facematch.BucketUnrecognized])
	fmt.Printf("  %-27s%d\n", "No face found:", result.Counts[facematch.BucketNoFace])
	fmt.Printf("  %-27s%d\n", constants.APIErrorDir+":", result.Counts[facematch.BucketAPIError])
	if result.DroppedCount > 0 {
		fmt.Printf("  %-27s%d\n", "Dropped:", result.DroppedCount)
	}

	if len(result.PersonCounts) > 0 {
		names := make([]string, 0, len(result.PersonCounts))
		for name := range result.PersonCounts {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Println("\nPersons:")
		for _, name := range names {
			fmt.Printf("  %s: %d\n", name, result.PersonCounts[name])
		}
	}

	if len(result.Errors) > 0 {
		fmt.Printf("\nErrors (%d):\n", len(result.Errors))
		for _, err := range result.Errors {
			fmt.Printf("  - %v\n", err)
		}
	}
}
