// Package spec defines the physical description of a single ubot module:
// its three rigid bodies, four external connector faces, and the two-joint
// internal chain linking them. A ModuleSpec is built once, validated, and
// treated as read-only by every consumer.
package spec
