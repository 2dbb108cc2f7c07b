// Package lcr implements LeLann-Chang-Roberts leader election on a
// unidirectional ring.
//
// Each process sends its uid to the left, forwards larger uids, drops smaller
// ones and becomes leader when its own uid comes back. The leader then sends
// a Terminate message around the ring. Channels are FIFO, so a fixed-delay
// ring models the synchronous variant and a ring with independent random
// per-channel delays the asynchronous one.
package lcr
