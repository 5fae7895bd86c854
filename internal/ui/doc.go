// Package ui implements the interactive recording wizard using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for submitting a testimonial:
//  1. [InfoView] : Collect the customer's name and title
//  2. [RecordingView] : Per-question countdown and live capture
//  3. [PreviewView] : Accept or retake the last take
//  4. [ProcessingView] : Monitor the upload
//  5. [DoneView] : Display the processed video URLs
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Timer ticks drive the countdown and the take ceiling; capture device events flow in through a relay command, keeping the engine free of UI concerns.
//
// Keyboard controls are contextual (enter to start, s to stop, y/n on preview, q to quit) with help displayed via charmbracelet/bubbles/help.
package ui
