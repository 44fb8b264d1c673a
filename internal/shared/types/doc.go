// Package types provides the records shared by the supervisor, its stacks
// and the admin API.
//
// Core Types:
//   - Process: a hosting process, optionally serving live dumps
//   - Task: an ordered run of activities owned by one stack
//   - Activity: one screen, identified by an activity token
//   - ConfigChanges: bitmask of configuration fields that changed
//   - UserState: a started user during a switch
//
// Reporting Types:
//   - StackSummary, Stats: snapshots for the admin API
//
// Ownership runs one way: stacks own tasks, tasks own activities. Back
// references (Activity.TaskID, Task.StackID) are integer keys resolved by
// the owner, never pointers.
//
// Example Usage:
//
//	r := &types.Activity{
//	    Token:       id.NewActivityToken(),
//	    PackageName: "com.example.mail",
//	    ShortName:   "com.example.mail/.Inbox",
//	    State:       types.ActivityInitializing,
//	}
package types
