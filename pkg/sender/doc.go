// Package sender delivers record batches to the ingestion endpoint over HTTP.
//
// One call to [HTTPSender.Deliver] is one delivery task: it picks the
// single-record or batch endpoint, POSTs the JSON body with a per-attempt
// timeout, retries timeout-class transport failures up to the configured
// budget, and reports a [domain.Result]. It never panics and never returns
// a Go error; failures are described by the result's Outcome.
//
//	s := sender.NewHTTPSender(client, sender.Config{
//	    Endpoints:      sender.NewEndpoints(sender.BaseURL(true), sourceID, token),
//	    Timeout:        15 * time.Second,
//	    RetryOnTimeout: 1,
//	}, logger)
//	res := s.Deliver(ctx, batch)
//
// # Version
//
// Current version: 2.0.0
// Minimum compatible version: 2.0.0
package sender
