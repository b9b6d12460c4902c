// Package classifier sorts the photos of the input queue into per-person
// folders. Each photo goes through normalize, detect, identify and route, and
// is deleted from the queue afterwards so the next run never sees it again.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"

	"github.com/kozaktomas/face-sorter/internal/constants"
	"github.com/kozaktomas/face-sorter/internal/faceapi"
	"github.com/kozaktomas/face-sorter/internal/facematch"
	"github.com/kozaktomas/face-sorter/internal/imageproc"
	"github.com/kozaktomas/face-sorter/internal/workspace"
)

// FaceService is the part of the face API used during classification.
type FaceService interface {
	DetectFaces(ctx context.Context, imagePath string) ([]faceapi.DetectedFace, error)
	IdentifyFaces(ctx context.Context, faceIDs []string, personGroupID string) ([]faceapi.IdentificationResult, error)
	GetPerson(ctx context.Context, personGroupID, personID string) (*faceapi.Person, error)
}

// State is the processing stage a photo reached.
type State string

const (
	StateDiscovered State = "discovered"
	StateNormalized State = "normalized"
	StateDetected   State = "detected"
	StateIdentified State = "identified"
	StateRouted     State = "routed"
	StateConsumed   State = "consumed"
)

// ProgressInfo contains progress information for callbacks
type ProgressInfo struct {
	Current int
	Total   int
	Path    string
	Buckets []facematch.Bucket
}

type Options struct {
	PersonGroupID        string
	MaxImageSize         int                // bound of the normalized copy sent to detection
	RouteDetectionErrors bool               // copy photos whose detection failed to api_error/ instead of dropping them
	ShowProgress         bool               // render a progress bar on stderr
	OnProgress           func(ProgressInfo) // optional callback after each photo
}

// PhotoResult describes what happened to one source photo.
type PhotoResult struct {
	Path         string
	State        State
	Buckets      []facematch.Bucket
	Persons      []string // display names of recognized persons
	Unrecognized int      // faces without a candidate
	Err          error    // absorbed normalization, detection or identification error
}

type Result struct {
	ProcessedCount int
	Counts         map[facematch.Bucket]int
	PersonCounts   map[string]int
	DroppedCount   int // photos consumed without any output
	Photos         []PhotoResult
	Errors         []error
}

func newResult() *Result {
	return &Result{
		Counts:       make(map[facematch.Bucket]int),
		PersonCounts: make(map[string]int),
	}
}

func (r *Result) add(pr PhotoResult) {
	r.ProcessedCount++
	r.Photos = append(r.Photos, pr)
	for _, b := range pr.Buckets {
		r.Counts[b]++
	}
	for _, p := range pr.Persons {
		r.PersonCounts[p]++
	}
	if len(pr.Buckets) == 0 {
		r.DroppedCount++
	}
	if pr.Err != nil {
		r.Errors = append(r.Errors, fmt.Errorf("%s: %w", filepath.Base(pr.Path), pr.Err))
	}
}

type Classifier struct {
	faces  FaceService
	layout *workspace.Layout
	logger *slog.Logger
	names  map[string]string // person ID -> display name, per run
}

func New(faces FaceService, layout *workspace.Layout, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Classifier{
		faces:  faces,
		layout: layout,
		logger: logger,
		names:  make(map[string]string),
	}
}

// Run scans the input queue, drops videos and classifies the remaining photos.
func (c *Classifier) Run(ctx context.Context, opts Options) (*Result, error) {
	paths, err := workspace.ScanInput(c.layout.Unclassified())
	if err != nil {
		return nil, err
	}
	photos, err := workspace.FilterInput(paths, constants.VideoExtensions)
	if err != nil {
		return nil, err
	}
	return c.Classify(ctx, photos, opts)
}

// Classify processes photos one at a time. It stops at the first fatal error
// (invalid credentials, cancellation or a filesystem failure) and returns the
// results gathered so far together with that error.
func (c *Classifier) Classify(ctx context.Context, photos []string, opts Options) (*Result, error) {
	if opts.MaxImageSize <= 0 {
		opts.MaxImageSize = constants.MaxImageSize
	}

	result := newResult()
	bar := newProgressBar(len(photos), opts.ShowProgress)
	defer bar.Finish()

	for i, photo := range photos {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		pr, err := c.processPhoto(ctx, photo, opts)
		if err != nil {
			return result, fmt.Errorf("classify %s: %w", photo, err)
		}
		result.add(pr)

		bar.Add(1)
		if opts.OnProgress != nil {
			opts.OnProgress(ProgressInfo{Current: i + 1, Total: len(photos), Path: photo, Buckets: pr.Buckets})
		}
	}

	return result, nil
}

func newProgressBar(total int, show bool) *progressbar.ProgressBar {
	if !show {
		return progressbar.DefaultSilent(int64(total))
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Classifying photos"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("photos"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
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

// isFatal reports whether an error from the face service must stop the run
// instead of being absorbed into the photo's outcome.
func isFatal(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, faceapi.ErrUnauthorized)
}

// processPhoto drives one photo to StateConsumed. A returned error is fatal
// and leaves the source in place.
func (c *Classifier) processPhoto(ctx context.Context, src string, opts Options) (PhotoResult, error) {
	pr := PhotoResult{Path: src, State: StateDiscovered}
	base := filepath.Base(src)
	log := c.logger.With("photo", base)

	scratch := filepath.Join(c.layout.UnclassifiedResized(), uuid.NewString()+"_"+base)
	tr, err := imageproc.Normalize(src, scratch, opts.MaxImageSize)
	if err != nil {
		_ = os.Remove(scratch)
		log.Warn("could not normalize photo", "error", err)
		pr.Err = err
		return c.consume(pr)
	}
	if tr.MetadataErr != nil {
		log.Warn("could not read photo orientation, treating it as upright", "error", tr.MetadataErr)
	}
	pr.State = StateNormalized

	faces, err := c.faces.DetectFaces(ctx, scratch)
	if rmErr := os.Remove(scratch); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
		return pr, fmt.Errorf("could not remove normalized copy: %w", rmErr)
	}
	if err != nil {
		if isFatal(ctx, err) {
			return pr, err
		}
		log.Warn("face detection failed", "error", err)
		pr.Err = err
		if opts.RouteDetectionErrors {
			plan := facematch.Plan{Buckets: []facematch.Bucket{facematch.BucketAPIError}}
			if err := c.route(src, plan, nil, tr); err != nil {
				return pr, err
			}
			pr.Buckets = plan.Buckets
			pr.State = StateRouted
		}
		return c.consume(pr)
	}
	pr.State = StateDetected

	plan, names, err := c.identify(ctx, faces, opts.PersonGroupID)
	if err != nil {
		if isFatal(ctx, err) {
			return pr, err
		}
		log.Warn("error when resolving faces", "faces", len(faces), "error", err)
		pr.Err = err
	}
	pr.State = StateIdentified

	switch {
	case plan.Has(facematch.BucketNoFace):
		log.Info("no face found")
	case plan.Has(facematch.BucketAPIError):
		log.Info("routing to api_error")
	}
	for _, m := range plan.Matches {
		log.Info("recognized person", "person", names[m.PersonID], "confidence", m.Confidence)
	}
	if n := len(plan.Unrecognized); n > 0 {
		log.Info("faces not recognized", "count", n)
	}

	if err := c.route(src, plan, names, tr); err != nil {
		return pr, err
	}
	pr.State = StateRouted
	pr.Buckets = plan.Buckets
	pr.Unrecognized = len(plan.Unrecognized)
	for _, id := range plan.PersonIDs {
		pr.Persons = append(pr.Persons, names[id])
	}

	return c.consume(pr)
}

// identify matches the detected faces and resolves recognized person IDs to
// names. Any failure, including name resolution, yields an api_error plan
// together with the error.
func (c *Classifier) identify(ctx context.Context, faces []faceapi.DetectedFace, personGroupID string) (facematch.Plan, map[string]string, error) {
	if len(faces) == 0 {
		return facematch.Decide(nil, nil, true), nil, nil
	}

	ids := make([]string, len(faces))
	for i, f := range faces {
		ids[i] = f.FaceID
	}

	results, err := c.faces.IdentifyFaces(ctx, ids, personGroupID)
	if err != nil {
		return facematch.Decide(faces, nil, false), nil, err
	}

	plan := facematch.Decide(faces, results, true)
	names, err := c.resolveNames(ctx, personGroupID, plan.PersonIDs)
	if err != nil {
		return facematch.Decide(faces, nil, false), nil, err
	}
	return plan, names, nil
}

// resolveNames looks up display names, asking the service once per person per run.
func (c *Classifier) resolveNames(ctx context.Context, personGroupID string, personIDs []string) (map[string]string, error) {
	names := make(map[string]string, len(personIDs))
	for _, id := range personIDs {
		if name, ok := c.names[id]; ok {
			names[id] = name
			continue
		}
		person, err := c.faces.GetPerson(ctx, personGroupID, id)
		if err != nil {
			return nil, err
		}
		c.names[id] = person.Name
		names[id] = person.Name
	}
	return names, nil
}

// consume deletes the source photo. It is the only place a source is removed.
func (c *Classifier) consume(pr PhotoResult) (PhotoResult, error) {
	if err := os.Remove(pr.Path); err != nil {
		return pr, fmt.Errorf("could not remove source photo: %w", err)
	}
	pr.State = StateConsumed
	return pr, nil
}
