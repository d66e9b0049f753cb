package service

import (
	"context"

	"nftrental-backend/internal/domain"
	"nftrental-backend/internal/repository"
)

// ReputationPolicy holds the configured reputation rules. Scores only change
// on return settlement.
type ReputationPolicy struct {
	OnTimeReward       int64
	LatePenaltyPerDay  int64
	MaxLatePenalty     int64 // 0 means unbounded
	ExcellentThreshold int64
	GoodThreshold      int64
}

func DefaultReputationPolicy() ReputationPolicy {
	return ReputationPolicy{
		OnTimeReward:       1,
		LatePenaltyPerDay:  1,
		MaxLatePenalty:     10,
		ExcellentThreshold: 50,
		GoodThreshold:      10,
	}
}

// Delta is the score change for one return.
func (p ReputationPolicy) Delta(onTime bool, daysLate int32) int64 {
	if onTime {
		return p.OnTimeReward
	}
	penalty := p.LatePenaltyPerDay * int64(daysLate)
	if p.MaxLatePenalty > 0 && penalty > p.MaxLatePenalty {
		penalty = p.MaxLatePenalty
	}
	return -penalty
}

// Classify is for display only.
func (p ReputationPolicy) Classify(score int64) domain.ReputationStatus {
	switch {
	case score > p.ExcellentThreshold:
		return domain.ReputationStatusExcellent
	case score > p.GoodThreshold:
		return domain.ReputationStatusGood
	default:
		return domain.ReputationStatusNew
	}
}

type reputationService struct {
	repo   repository.ReputationRepository
	policy ReputationPolicy
}

func NewReputationService(repo repository.ReputationRepository, policy ReputationPolicy) ReputationService {
	return &reputationService{repo: repo, policy: policy}
}

func (s *reputationService) GetReputation(ctx context.Context, identity string) (*domain.Reputation, error) {
	if err := domain.ValidateAddress("identity", identity); err != nil {
		return nil, err
	}
	rep, err := s.repo.Get(ctx, domain.NormalizeAddress(identity))
	if err != nil {
		return nil, err
	}
	rep.Status = s.policy.Classify(rep.Score)
	return rep, nil
}
