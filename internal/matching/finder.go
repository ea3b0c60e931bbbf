package matching

import (
	"context"
	"iter"
	"math"
	"sort"

	"github.com/mroshb/match_engine/internal/metrics"
	"github.com/mroshb/match_engine/internal/models"
	"github.com/mroshb/match_engine/pkg/errors"
	"github.com/mroshb/match_engine/pkg/geo"
	"github.com/mroshb/match_engine/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// ProfileSource is the read side of profile storage the finder needs.
type ProfileSource interface {
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	// CandidatePool returns profiles userID may still be shown, excluding
	// those already swiped on.
	CandidatePool(ctx context.Context, userID string) ([]models.UserProfile, error)
}

type CandidateFinder struct {
	profiles  ProfileSource
	evaluator *Evaluator
}

func NewCandidateFinder(profiles ProfileSource, evaluator *Evaluator) *CandidateFinder {
	if evaluator == nil {
		evaluator = NewEvaluator()
	}
	return &CandidateFinder{
		profiles:  profiles,
		evaluator: evaluator,
	}
}

const unknownDistance = math.MaxFloat64

type rankedCandidate struct {
	profile  models.UserProfile
	distance float64
}

// NextCandidates returns the mutually acceptable candidates for userID,
// nearest first with ties broken by id. Storage is read once per call; the
// returned sequence evaluates lazily and can be ranged over more than once.
func (f *CandidateFinder) NextCandidates(ctx context.Context, userID string) (iter.Seq[models.UserProfile], error) {
	var (
		seeker *models.UserProfile
		pool   []models.UserProfile
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := f.profiles.GetProfile(gctx, userID)
		if err != nil {
			return err
		}
		seeker = p
		return nil
	})
	g.Go(func() error {
		p, err := f.profiles.CandidatePool(gctx, userID)
		if err != nil {
			return err
		}
		pool = p
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	origin := seeker.Coordinates()
	if seeker.HasLocation() {
		if err := geo.Validate(origin); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInvalidCoordinate, "seeker location is invalid")
		}
	}

	ranked := make([]rankedCandidate, 0, len(pool))
	for _, c := range pool {
		if c.ID == seeker.ID || !c.IsActive() {
			continue
		}
		// Without both locations the candidate sorts after every located one.
		dist := unknownDistance
		if seeker.HasLocation() && c.HasLocation() {
			d, err := geo.Distance(origin, c.Coordinates())
			if err != nil {
				logger.Warn("Skipping candidate with invalid location", "candidate_id", c.ID, "error", err)
				continue
			}
			dist = d
		}
		ranked = append(ranked, rankedCandidate{profile: c, distance: dist})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].distance != ranked[j].distance {
			return ranked[i].distance < ranked[j].distance
		}
		return ranked[i].profile.ID < ranked[j].profile.ID
	})

	return func(yield func(models.UserProfile) bool) {
		for i := range ranked {
			candidate := ranked[i].profile
			ok, err := f.evaluator.MutuallyAcceptable(seeker, &candidate)
			if err != nil {
				logger.Warn("Candidate evaluation failed", "user_id", seeker.ID, "candidate_id", candidate.ID, "error", err)
				continue
			}
			metrics.RecordCandidateEvaluated(ok)
			if !ok {
				continue
			}
			if !yield(candidate) {
				return
			}
		}
	}, nil
}
