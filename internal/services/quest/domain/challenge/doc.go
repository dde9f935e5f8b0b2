// Package challenge implements the challenge lifecycle: creation checks,
// join and sponsor accounting, scheduled phase transitions, daily completion
// reports, and proportional prize settlement.
//
// Decide is pure: it reads State and a command and returns events, host
// schedules, and payouts. Fold applies journaled events back onto State.
package challenge
