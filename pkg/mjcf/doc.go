// Package mjcf loads a ubot module description from an MJCF-style XML
// document. Only static structure is read: body names, hinge joint
// declarations, and connector site annotations on the two connectable
// halves. Simulation elements (actuators, sensors, contacts) are never
// interpreted, so no physics runtime is required.
package mjcf
