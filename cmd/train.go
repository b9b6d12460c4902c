package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-sorter/internal/enroll"
)

var trainCmd = &cobra.Command{
	Use:   "train <person-group>",
	Short: "Enroll reference photos and train a person group",
	Long: `Create a person group from the reference photos in faces/input/.

faces/input/ must contain one folder per person, named after the person,
with at least one photo of that person and no sub-folders. The group must not
exist yet. After all faces are uploaded the group is trained and the command
waits until training finishes.

Example:
  face-sorter train family`,
	Args: cobra.ExactArgs(1),
	RunE: runTrain,
}

func init() {
	rootCmd.AddCommand(trainCmd)

	trainCmd.Flags().Duration("poll-interval", 0, "Time between training status checks (0 = config value)")
	trainCmd.Flags().Int("max-poll-attempts", 0, "Training status checks before giving up (0 = config value)")
	trainCmd.Flags().Bool("no-progress", false, "Hide the progress bar")
}

func runTrain(cmd *cobra.Command, args []string) error {
	groupID := args[0]

	cfg, layout, client, err := setup(groupID)
	if err != nil {
		return err
	}

	pollInterval := mustGetDuration(cmd, "poll-interval")
	if pollInterval <= 0 {
		pollInterval = cfg.Settings.PollInterval
	}
	maxPollAttempts := mustGetInt(cmd, "max-poll-attempts")
	if maxPollAttempts <= 0 {
		maxPollAttempts = cfg.Settings.MaxPollAttempts
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("Enrolling persons from: %s\n", layout.Input())
	fmt.Printf("Person group: %s\n\n", groupID)

	e := enroll.New(client, layout, newLogger())
	result, err := e.Run(ctx, enroll.Options{
		PersonGroupID:   groupID,
		MaxImageSize:    cfg.Settings.MaxImageSize,
		PollInterval:    pollInterval,
		MaxPollAttempts: maxPollAttempts,
		ShowProgress:    !mustGetBool(cmd, "no-progress"),
	})
	if result != nil {
		printTrainResult(result)
	}
	if err != nil {
		return fmt.Errorf("training stopped: %w", err)
	}

	fmt.Printf("\nDone! Person group '%s' is trained, run \"face-sorter classify %s\" to sort photos\n", groupID, groupID)
	return nil
}

func printTrainResult(result *enroll.Result) {
	fmt.Println("\nPersons:")
	for _, p := range result.Persons {
		if p.Failed > 0 {
			fmt.Printf("  %s: %d faces (%d failed)\n", p.Name, p.Added, p.Failed)
			continue
		}
		fmt.Printf("  %s: %d faces\n", p.Name, p.Added)
	}

	if len(result.Errors) > 0 {
		fmt.Printf("\nSkipped (%d):\n", len(result.Errors))
		for _, err := range result.Errors {
			fmt.Printf("  - %v\n", err)
		}
	}

	fmt.Printf("\nTraining status: %s", result.Status)
	if result.PollAttempts > 0 {
		fmt.Printf(" (after %d checks)", result.PollAttempts)
	}
	fmt.Println()
}
