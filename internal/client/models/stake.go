package models

import "time"

// Lock durations accepted by the vault contract, in seconds.
const (
	DurationOneMonth  int64 = 2592000
	DurationSixMonths int64 = 15778463
)

// Contract yield tiers.
const (
	OneMonthBps            int64 = 300
	SixMonthsBps           int64 = 500
	BasisPointsDenominator int64 = 10000
	SecondsInYear          int64 = 31536000
)

const secondsPerDay = 86400

// UserStake is the caller's position in the vault as returned by
// simple_vault::get_stake, plus fields derived at read time.
type UserStake struct {
	Principal           uint64 `json:"principal"`
	TotalReturn         uint64 `json:"total_return"`
	UnlockTimestampSecs int64  `json:"unlock_timestamp_secs"`
	DaysInvested        int64  `json:"days_invested"`
	IsLocked            bool   `json:"is_locked"`
}

// NewUserStake builds a stake and derives DaysInvested and IsLocked at now.
func NewUserStake(principal, totalReturn uint64, unlock int64, now time.Time) *UserStake {
	s := &UserStake{
		Principal:           principal,
		TotalReturn:         totalReturn,
		UnlockTimestampSecs: unlock,
	}
	s.derive(now)
	return s
}

func (s *UserStake) derive(now time.Time) {
	n := now.Unix()
	s.IsLocked = n < s.UnlockTimestampSecs
	s.DaysInvested = (n - s.UnlockTimestampSecs) / secondsPerDay
	if s.DaysInvested < 0 {
		s.DaysInvested = 0
	}
}

// LockedAt reports whether the stake is still locked at now. It does not
// trust the cached IsLocked flag.
func (s *UserStake) LockedAt(now time.Time) bool {
	if s == nil {
		return false
	}
	return now.Unix() < s.UnlockTimestampSecs
}

// UnlockTime returns the unlock timestamp as a time.Time (zero if unset).
func (s *UserStake) UnlockTime() time.Time {
	if s == nil || s.UnlockTimestampSecs == 0 {
		return time.Time{}
	}
	return time.Unix(s.UnlockTimestampSecs, 0).UTC()
}

// Empty reports whether the account has nothing in the vault.
func (s *UserStake) Empty() bool {
	return s == nil || (s.Principal == 0 && s.TotalReturn == 0)
}
