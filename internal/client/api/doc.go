// Package api is the HTTP client of the share service.
//
// # Overview
//
// Every per-resource request is authorized with a header signed over the
// last nonce the server issued for that resource. Each response may carry
// a rotated nonce in WWW-Authenticate; the client stores it on the
// capability whatever the status. A 401 whose nonce changed is retried
// exactly once with a freshly signed header. Downloads add an outer policy
// that repeats whole attempts on 401 (DefaultDownloadAttempts).
//
// Errors
//
//   - ErrCancelled: the caller cancelled the context (StatusCode 0)
//   - *StatusError: terminal HTTP status; matches ErrNotFound (404) and
//     ErrAuthRejected (401) through errors.Is
//   - *TransportError: no response was received; never retried
//
// Typical Usage
//
//	c := api.NewHTTPClient("https://send.example", api.WithLogger(log))
//	res, err := c.Upload(ctx, api.UploadRequest{Encrypted: ct, Metadata: meta, Verifier: kc.AuthKeyB64()})
//	data, err := c.Download(ctx, id, kc, func(loaded, total int64) { ... })
package api
