// Package stack implements the activity stack the supervisor fans out to.
//
// A stack owns its tasks, bottom first, and the bookkeeping of its
// activities: the resumed, pausing and last paused activity plus the running,
// waiting-visible, stopping, going-to-sleep and finishing lists shown in
// dumps. Pauses and stops complete asynchronously when the hosting process
// reports them through ActivityPaused and ActivityStopped.
//
// Stacks have no lock of their own; the supervisor lock guards every call.
package stack
