// Package physjitter produces tamper-evident evidence chains that attest
// an input sequence (typically keystrokes) was generated by a live,
// physical process rather than replayed or machine-synthesized.
//
// For each input event, a Session derives a deterministic micro-delay
// ("jitter") from its secret, the event payload, and optionally a
// sample of hardware timing entropy. It records an Evidence entry
// linking the event to that delay and to the running EvidenceChain,
// and later validates the collected sequence against a HumanModel.
//
// physjitter never captures which key was pressed, and never persists
// anything to disk on its own — callers own all I/O. It makes no claim
// to general-purpose authentication, CSPRNG-grade randomness, digital
// signatures, or device attestation; see the package's design notes for
// the full list of non-goals.
package physjitter
