package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"snapgram/internal/domain"
	"snapgram/internal/repository"
)

// maxToggleAttempts bounds the remove/insert loop when concurrent toggles race.
const maxToggleAttempts = 4

type toggleOutcome struct {
	Result domain.ToggleResult
	EdgeID int64
}

// toggler implements create-or-remove over a unique (actor, target) edge.
type toggler struct {
	log logrus.FieldLogger
}

// toggle removes the (actor, target) edge if present, otherwise validates and inserts it.
// Find and delete are one DELETE statement, so two racing toggles cannot both remove the
// same row. A duplicate on insert means another request created the edge between our
// delete and insert; we go round again and remove it.
func (t toggler) toggle(
	ctx context.Context,
	edges repository.EdgeStore,
	actorID, targetID int64,
	validate func(context.Context) error,
) (toggleOutcome, error) {
	for attempt := 1; attempt <= maxToggleAttempts; attempt++ {
		removed, err := edges.Remove(ctx, actorID, targetID)
		if err != nil {
			return toggleOutcome{}, err
		}
		if removed {
			return toggleOutcome{Result: domain.ToggleRemoved}, nil
		}

		if validate != nil {
			if err := validate(ctx); err != nil {
				return toggleOutcome{}, err
			}
		}

		id, err := edges.Insert(ctx, actorID, targetID)
		if err == nil {
			return toggleOutcome{Result: domain.ToggleCreated, EdgeID: id}, nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return toggleOutcome{}, err
		}
		t.log.WithFields(logrus.Fields{
			"actor_id":  actorID,
			"target_id": targetID,
			"attempt":   attempt,
		}).Debug("toggle lost insert race, retrying as removal")
	}
	return toggleOutcome{}, fmt.Errorf("toggle (%d -> %d): no stable outcome after %d attempts", actorID, targetID, maxToggleAttempts)
}
