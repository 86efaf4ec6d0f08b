// Package kinematics computes relative rigid-body poses along a module's
// internal ma-ax-mb chain. Every function is pure: a pose is a function of
// the spec and a joint-angle vector only, so concurrent queries against the
// same spec need no coordination.
package kinematics
