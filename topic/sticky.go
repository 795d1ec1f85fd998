package topic

import (
	"context"
	"errors"

	"github.com/boardkit/boardkit/pkg/idset"
	"github.com/boardkit/boardkit/pkg/optionstore"
	"github.com/boardkit/boardkit/post"
)

// Sticky placement. A topic lives on at most one of the two lists:
// forum stickies float to the top of their own forum, super stickies
// float to the top of every forum. Stick and Superstick remove the
// topic from the other list before adding, so promotion and demotion
// are single calls.

// Stick pins the topic to the top of its forum's listings.
func (s *Service) Stick(ctx context.Context, topicID int64) error {
	if _, err := s.Get(ctx, topicID); err != nil {
		return err
	}
	if err := s.Unstick(ctx, topicID); err != nil {
		return err
	}
	if err := s.addToList(ctx, post.OptionStickyTopics, topicID); err != nil {
		return err
	}
	return s.setType(ctx, topicID, TypeSticky)
}

// Superstick pins the topic to the top of every forum's listings.
func (s *Service) Superstick(ctx context.Context, topicID int64) error {
	if _, err := s.Get(ctx, topicID); err != nil {
		return err
	}
	if err := s.Unstick(ctx, topicID); err != nil {
		return err
	}
	if err := s.addToList(ctx, post.OptionSuperStickyTopics, topicID); err != nil {
		return err
	}
	return s.setType(ctx, topicID, TypeSuper)
}

// Unstick removes the topic from both sticky lists and resets the
// type mirror. Removing a topic that is not stuck is a no-op.
func (s *Service) Unstick(ctx context.Context, topicID int64) error {
	fromSticky, err := s.removeFromList(ctx, post.OptionStickyTopics, topicID)
	if err != nil {
		return err
	}
	fromSuper, err := s.removeFromList(ctx, post.OptionSuperStickyTopics, topicID)
	if err != nil {
		return err
	}
	if fromSticky || fromSuper {
		return s.setType(ctx, topicID, TypeNormal)
	}
	return nil
}

// IsSticky reports whether the topic is on the forum sticky list.
func (s *Service) IsSticky(ctx context.Context, topicID int64) (bool, error) {
	set, err := s.list(ctx, post.OptionStickyTopics)
	if err != nil {
		return false, err
	}
	return set.Contains(topicID), nil
}

// IsSuperSticky reports whether the topic is on the global list.
func (s *Service) IsSuperSticky(ctx context.Context, topicID int64) (bool, error) {
	set, err := s.list(ctx, post.OptionSuperStickyTopics)
	if err != nil {
		return false, err
	}
	return set.Contains(topicID), nil
}

// Stickies returns the forum sticky list in stored order.
func (s *Service) Stickies(ctx context.Context) ([]int64, error) {
	set, err := s.list(ctx, post.OptionStickyTopics)
	if err != nil {
		return nil, err
	}
	return set.IDs(), nil
}

// SuperStickies returns the global sticky list in stored order.
func (s *Service) SuperStickies(ctx context.Context) ([]int64, error) {
	set, err := s.list(ctx, post.OptionSuperStickyTopics)
	if err != nil {
		return nil, err
	}
	return set.IDs(), nil
}

func (s *Service) list(ctx context.Context, option string) (*idset.Set, error) {
	raw, err := s.options.Get(ctx, option)
	if errors.Is(err, optionstore.ErrNotFound) {
		return idset.New(), nil
	}
	if err != nil {
		return nil, err
	}
	return idset.Parse(raw), nil
}

func (s *Service) addToList(ctx context.Context, option string, topicID int64) error {
	set, err := s.list(ctx, option)
	if err != nil {
		return err
	}
	if !set.Add(topicID) {
		return nil
	}
	return s.options.Set(ctx, option, set.String())
}

func (s *Service) removeFromList(ctx context.Context, option string, topicID int64) (bool, error) {
	set, err := s.list(ctx, option)
	if err != nil {
		return false, err
	}
	if !set.Remove(topicID) {
		return false, nil
	}
	if set.Empty() {
		return true, s.options.Delete(ctx, option)
	}
	return true, s.options.Set(ctx, option, set.String())
}
