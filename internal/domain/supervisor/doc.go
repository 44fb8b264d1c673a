// Package supervisor coordinates lifecycle transitions across an ordered
// collection of activity stacks.
//
// Components:
//   - Registry: creates stacks, resolves them by id, moves tasks between them
//   - Task ids: hands out positive task ids no live task holds
//   - Fan-out: broadcasts lifecycle operations to stacks in a fixed order
//   - Shutdown: waits for each stack to go quiescent within a timeout
//   - Dump: renders a text report, optionally with live per-activity dumps
//
// Every method whose name ends in Locked must be called with the supervisor
// lock held (Lock/Unlock). The home stack always has id 0 and sits first in
// registry order.
//
// Example Usage:
//
//	sup := supervisor.New(stack.Factory(logger))
//	sup.Lock()
//	defer sup.Unlock()
//	if err := sup.InitLocked(); err != nil {
//	    return err
//	}
//	id := sup.CreateStackLocked(supervisor.HomeStackID, 0, 1)
package supervisor
