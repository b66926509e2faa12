// Package framed recovers fixed-size records from a continuous byte stream.
package framed

// A sender on a serial-style link emits back-to-back fixed-size frames,
// each being an opaque payload followed by a fixed marker byte sequence.
// A receiver attaching mid-stream observes no alignment to frame
// boundaries, and the link may lose or corrupt bytes at any time. This
// package scans the stream for the marker and re-emits aligned frames,
// dropping whatever garbage precedes each marker occurrence.
//
// Only the trailing marker is used for alignment. There is no length
// prefix, escaping, or checksum for simplicity and to stay close to what
// small firmware senders can produce. The cost is probabilistic: a payload
// that happens to contain the marker bytes is indistinguishable from a
// real boundary and causes the surrounding frame to be dropped or
// misaligned. Deployments mitigate by choosing a marker unlikely to occur
// in payload data; this layer performs no runtime detection.
//
// Producer: receive callback of the transport (interrupt/event driven)
// Consumer: a single framing loop per stream
