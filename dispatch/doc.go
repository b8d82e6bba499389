// Package dispatch provides fan-out execution of one input against a named
// group of agents.
//
// A Manager owns dispatch group definitions (id, display name, member agent
// ids, mode) and resolves member ids to agents through a Resolver at dispatch
// time. Three modes are supported: all (invoke every member concurrently and
// wait for all), race (identical invocation, keyed on whichever member
// settles first) and fallback (strictly sequential, stop at the first
// success).
package dispatch
