// Package pushsync keeps a device's push-notification registration and
// interest subscriptions consistent with a remote service.
//
// Callers submit synchronization jobs (register, subscribe, unsubscribe,
// set-subscriptions, stop, ...) through a single entry point; a single
// worker drains them in submission order. Jobs submitted before the device
// is registered are not lost: the start handler replays them over the
// interest set the server returns at registration time, so user actions
// taken before the engine is ready still shape the final state.
//
// # Quick Start
//
//	store := memory.New()
//	client := api.NewHTTPClient("instance-id", "secret-key")
//
//	eng, err := engine.New(store, client)
//	if err != nil { ... }
//	eng.Start(ctx)
//
//	eng.Submit(job.Subscribe{Interest: "news"})
//	eng.Submit(job.StartRegistration{Token: deviceToken})
//
// # Architecture
//
// Each concern lives in its own package: job defines the closed job sum
// type, queue the pending-job FIFO, api the remote sync client boundary,
// state the persisted device record boundary, retry and backoff the
// retry-policy machinery, and engine the single-worker dispatcher that
// ties them together. Extensions (package ext) observe lifecycle events;
// terminal errors are reported through them rather than returned to the
// submitter.
package pushsync
