// Package memory implements the forgetting-curve model shared by scheduling,
// reward calculation and retention projection.
//
// Retrievability follows a single power-law curve,
//
//	R(S, t) = (1 + t/(9·S))^-1
//
// so that S is the number of days after which recall probability drops to
// 90%. Stability and difficulty updates use the 17-weight FSRS-4 family,
// whose forgetting curve is exactly this power law. All functions are pure.
package memory
