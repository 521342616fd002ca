// Package generators derives higher-level artifacts from normalised records:
// user stories from requirements, UAT cases from stories, and the
// traceability matrix joining all three.
//
// Generators are pure functions of their input. They never touch storage;
// the generation service loads records, calls a generator and persists
// the result. Running a generator twice on the same input yields the
// same output, which keeps regenerated artifacts and their ids stable.
package generators
