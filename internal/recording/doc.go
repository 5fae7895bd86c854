// Package recording implements the testimonial capture workflow engine.
//
// An Engine owns one recording session: the info/recording/complete step
// progression, the per-question capture state machine (idle, countdown,
// recording, preview), the accumulated takes, and the final multipart
// submission. It is headless; the terminal UI drives it with user actions
// and timer ticks and forwards device events to it.
package recording
