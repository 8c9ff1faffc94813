// Package daemon runs the pipeline on a fixed interval.
//
// Runs are scheduled with gocron in singleton mode, so a run that outlasts the interval
// delays the next one instead of overlapping it. An optional fsnotify watcher triggers an
// extra run when the identity list changes. The daemon serves /metrics and /healthz and
// reports readiness to systemd when started as a notify service.
package daemon
