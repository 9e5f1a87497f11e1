// Package notify publishes build progress events. The orchestrator reports
// task lifecycle changes through an Observer, which hands them to a Sink such
// as a socket.io endpoint watched by a dashboard.
package notify
