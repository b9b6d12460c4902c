// Package enroll registers reference photos of known persons against a
// person group and trains the group so it can be used for classification.
package enroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/kozaktomas/face-sorter/internal/constants"
	"github.com/kozaktomas/face-sorter/internal/faceapi"
	"github.com/kozaktomas/face-sorter/internal/imageproc"
	"github.com/kozaktomas/face-sorter/internal/workspace"
)

var (
	ErrGroupExists     = errors.New("person group already exists")
	ErrTrainingFailed  = errors.New("training failed")
	ErrTrainingTimeout = errors.New("training did not finish in time")
)

// GroupService is the part of the face API used during enrollment.
type GroupService interface {
	CreatePersonGroup(ctx context.Context, personGroupID string) error
	CreatePerson(ctx context.Context, personGroupID, name string) (string, error)
	AddPersonFace(ctx context.Context, personGroupID, personID, imagePath string) (string, error)
	TrainPersonGroup(ctx context.Context, personGroupID string) error
	GetTrainingStatus(ctx context.Context, personGroupID string) (*faceapi.TrainingStatus, error)
}

// Status is the local view of a person group's training.
type Status string

const (
	StatusUntrained Status = "untrained"
	StatusTraining  Status = "training"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// statusFor maps a service training state onto the local state machine.
func statusFor(state faceapi.TrainingState) Status {
	switch state {
	case faceapi.TrainingSucceeded:
		return StatusSucceeded
	case faceapi.TrainingFailed:
		return StatusFailed
	case faceapi.TrainingNotStarted:
		return StatusUntrained
	default:
		return StatusTraining
	}
}

type Options struct {
	PersonGroupID   string
	MaxImageSize    int
	PollInterval    time.Duration
	MaxPollAttempts int
	ShowProgress    bool
}

// PersonResult reports how many reference faces were accepted for a person.
type PersonResult struct {
	Name     string
	PersonID string
	Added    int
	Failed   int
}

type Result struct {
	Persons      []PersonResult
	Errors       []error
	Status       Status
	PollAttempts int
}

// FacesAdded returns the number of reference faces accepted across all persons.
func (r *Result) FacesAdded() int {
	n := 0
	for _, p := range r.Persons {
		n += p.Added
	}
	return n
}

type Enroller struct {
	groups GroupService
	layout *workspace.Layout
	logger *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

func New(groups GroupService, layout *workspace.Layout, logger *slog.Logger) *Enroller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Enroller{
		groups: groups,
		layout: layout,
		logger: logger,
		sleep:  sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Run validates the enrollment folder, creates the person group, uploads every
// reference image and trains the group. The returned result is non-nil
// whenever uploading started.
func (e *Enroller) Run(ctx context.Context, opts Options) (*Result, error) {
	opts = withDefaults(opts)

	persons, err := workspace.ValidateTrainingStructure(e.layout.Input())
	if err != nil {
		return nil, err
	}

	if err := e.groups.CreatePersonGroup(ctx, opts.PersonGroupID); err != nil {
		if faceapi.IsConflictError(err) {
			return nil, fmt.Errorf("%w: %s, choose another name or delete the group first", ErrGroupExists, opts.PersonGroupID)
		}
		return nil, fmt.Errorf("could not create person group: %w", err)
	}
	e.logger.Info("person group created", "group", opts.PersonGroupID)

	result := &Result{Status: StatusUntrained}
	bar := newProgressBar(countImages(persons), opts.ShowProgress)
	for _, person := range persons {
		pr, err := e.enrollPerson(ctx, person, opts, bar, result)
		result.Persons = append(result.Persons, pr)
		if err != nil {
			_ = bar.Finish()
			return result, err
		}
	}
	_ = bar.Finish()

	if result.FacesAdded() == 0 {
		return result, fmt.Errorf("%w: no reference face was accepted", ErrTrainingFailed)
	}

	status, attempts, err := e.Train(ctx, opts)
	result.Status = status
	result.PollAttempts = attempts
	return result, err
}

func withDefaults(opts Options) Options {
	if opts.MaxImageSize <= 0 {
		opts.MaxImageSize = constants.MaxImageSize
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = constants.DefaultPollInterval
	}
	if opts.MaxPollAttempts <= 0 {
		opts.MaxPollAttempts = constants.DefaultMaxPollAttempts
	}
	return opts
}

func countImages(persons []workspace.TrainingPerson) int {
	n := 0
	for _, p := range persons {
		n += len(p.Images)
	}
	return n
}

// enrollPerson creates the person and adds its reference faces. Errors on a
// single face are recorded and skipped; a returned error stops enrollment.
func (e *Enroller) enrollPerson(ctx context.Context, person workspace.TrainingPerson, opts Options, bar *progressbar.ProgressBar, result *Result) (PersonResult, error) {
	pr := PersonResult{Name: person.Name}
	log := e.logger.With("person", person.Name)

	personID, err := e.groups.CreatePerson(ctx, opts.PersonGroupID, person.Name)
	if err != nil {
		return pr, fmt.Errorf("could not create person %s: %w", person.Name, err)
	}
	pr.PersonID = personID
	log.Debug("person created", "person_id", personID)

	resizedDir := filepath.Join(e.layout.InputResized(), workspace.SafeFolderName(person.Name))
	if err := os.MkdirAll(resizedDir, 0750); err != nil {
		return pr, fmt.Errorf("could not create folder: %w", err)
	}

	for _, img := range person.Images {
		if err := ctx.Err(); err != nil {
			return pr, err
		}

		resized := filepath.Join(resizedDir, filepath.Base(img))
		tr, err := imageproc.Normalize(img, resized, opts.MaxImageSize)
		if err != nil {
			log.Warn("could not normalize reference image", "image", filepath.Base(img), "error", err)
			pr.Failed++
			result.Errors = append(result.Errors, fmt.Errorf("%s/%s: %w", person.Name, filepath.Base(img), err))
			_ = bar.Add(1)
			continue
		}
		if tr.MetadataErr != nil {
			log.Warn("could not read image orientation, treating it as upright", "image", filepath.Base(img), "error", tr.MetadataErr)
		}

		if _, err := e.groups.AddPersonFace(ctx, opts.PersonGroupID, personID, resized); err != nil {
			if ctx.Err() != nil || errors.Is(err, faceapi.ErrUnauthorized) {
				return pr, err
			}
			log.Warn("could not add reference face", "image", filepath.Base(img), "error", err)
			pr.Failed++
			result.Errors = append(result.Errors, fmt.Errorf("%s/%s: %w", person.Name, filepath.Base(img), err))
			_ = bar.Add(1)
			continue
		}
		pr.Added++
		_ = bar.Add(1)
	}

	log.Info("person enrolled", "faces", pr.Added, "failed", pr.Failed)
	return pr, nil
}

// Train queues training and polls until the group reaches a final state or
// the attempts are exhausted. It returns the last observed status and the
// number of status requests made.
func (e *Enroller) Train(ctx context.Context, opts Options) (Status, int, error) {
	opts = withDefaults(opts)

	if err := e.groups.TrainPersonGroup(ctx, opts.PersonGroupID); err != nil {
		return StatusUntrained, 0, fmt.Errorf("could not start training: %w", err)
	}
	status := StatusTraining
	e.logger.Info("training started", "group", opts.PersonGroupID)

	for attempt := 1; attempt <= opts.MaxPollAttempts; attempt++ {
		if err := e.sleep(ctx, opts.PollInterval); err != nil {
			return status, attempt - 1, err
		}

		ts, err := e.groups.GetTrainingStatus(ctx, opts.PersonGroupID)
		if err != nil {
			return status, attempt, fmt.Errorf("could not get training status: %w", err)
		}

		status = statusFor(ts.Status)
		e.logger.Debug("training status", "status", ts.Status, "attempt", attempt)
		switch status {
		case StatusSucceeded:
			return status, attempt, nil
		case StatusFailed:
			if ts.Message != "" {
				return status, attempt, fmt.Errorf("%w: %s", ErrTrainingFailed, ts.Message)
			}
			return status, attempt, ErrTrainingFailed
		}
	}

	return status, opts.MaxPollAttempts, fmt.Errorf("%w: still %s after %d checks", ErrTrainingTimeout, status, opts.MaxPollAttempts)
}

func newProgressBar(total int, show bool) *progressbar.ProgressBar {
	if !show {
		return progressbar.DefaultSilent(int64(total))
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Enrolling"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("faces"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
