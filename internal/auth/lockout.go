package auth

import "time"

// LockoutPolicy decides what happens to an account after a failed login.
// The counter restarts at zero whenever a lock is set, so it never grows
// past the threshold.
type LockoutPolicy struct {
	MaxFailedAttempts int
	LockDuration      time.Duration
}

// LoginState is the slice of account state the policy operates on.
type LoginState struct {
	FailedLoginCount int
	LockoutEndTime   *time.Time
}

// Fail returns the state after one more failed attempt at the given time.
func (p LockoutPolicy) Fail(state LoginState, now time.Time) LoginState {
	attempts := state.FailedLoginCount + 1
	if attempts >= p.MaxFailedAttempts {
		lockUntil := now.Add(p.LockDuration)
		return LoginState{FailedLoginCount: 0, LockoutEndTime: &lockUntil}
	}
	return LoginState{FailedLoginCount: attempts, LockoutEndTime: state.LockoutEndTime}
}

// Succeed returns the state after a successful login: counter zeroed,
// lockout cleared, regardless of prior state.
func (p LockoutPolicy) Succeed() LoginState {
	return LoginState{}
}
