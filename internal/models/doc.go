// Package models defines domain entities shared across the Testivid client.
//
// The package contains two categories of types:
//
// 1. Backend resources: JSON-tagged structs mirroring the Testivid REST API
//   - [User] : Authenticated account record
//   - [Question] : Per-company testimonial question with ordering
//   - [TestimonialRequest] : Outstanding invitation sent to a customer
//   - [Testimonial] / [TestimonialVideo] : Collected responses
//   - [Stats] : Dashboard counters
//
// 2. Client-side values: types owned by the recording and auth workflows
//   - [Recording] : One accepted take (question id, media bytes, background color)
//   - [GoogleProfile] : Provider-supplied profile staged for signup prefill
//   - [SubmissionRecord] : Local history row for a completed submission
package models
