package models

// TotalJuz is the fixed number of juz in the Quran; unit of completion
// tracking.
const TotalJuz = 30

// AchievementTier labels cumulative point milestones.
type AchievementTier string

const (
	TierBeginner     AchievementTier = "Beginner"
	TierIntermediate AchievementTier = "Intermediate"
	TierAdvanced     AchievementTier = "Advanced"
	TierExpert       AchievementTier = "Expert"
	TierMaster       AchievementTier = "Master"
)

// tierThresholds in descending order; the highest threshold met wins.
// Boundaries are inclusive of the lower bound.
var tierThresholds = []struct {
	Min  int
	Tier AchievementTier
}{
	{1000, TierMaster},
	{500, TierExpert},
	{200, TierAdvanced},
	{100, TierIntermediate},
	{0, TierBeginner},
}

// TierForPoints maps a cumulative total onto its achievement tier.
func TierForPoints(total int) AchievementTier {
	for _, t := range tierThresholds {
		if total >= t.Min {
			return t.Tier
		}
	}
	return TierBeginner
}

// NextTierThreshold returns the point boundary of the next tier above the
// given total. The second return is false at the Master tier, which has no
// successor.
func NextTierThreshold(total int) (int, bool) {
	next := 0
	found := false
	for _, t := range tierThresholds {
		if total >= t.Min {
			break
		}
		next = t.Min
		found = true
	}
	return next, found
}

// CompletionPercent converts a completed-juz count into a display
// percentage clamped to [0,100].
func CompletionPercent(completed int) float64 {
	pct := float64(completed) / float64(TotalJuz) * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// AchievementSummary is the read-side aggregate shown on the achievements
// screen. Pure derivation of stored state; nothing here mutates.
type AchievementSummary struct {
	SiswaID           string          `json:"siswa_id"`
	TotalPoin         int             `json:"total_poin"`
	Tier              AchievementTier `json:"tier"`
	CompletedJuz      int             `json:"completed_juz"`
	CompletionPercent float64         `json:"completion_percent"`
	Labels            []Label         `json:"labels"`
	NextJuz           *int            `json:"next_juz,omitempty"`
	PointsToNextTier  *int            `json:"points_to_next_tier,omitempty"`
}
