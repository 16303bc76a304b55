// Package allocation decides how many new items to introduce per collection
// so that the day's total effort meets its reward target, and creates them.
//
// Recommend is pure and works on the flat per-mode reward estimate only;
// Assigner persists the chosen items round-robin in a single transaction.
package allocation
