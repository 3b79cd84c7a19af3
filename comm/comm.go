// Package comm provides the message-passing communicator abstraction the
// transpose engine runs on: a fixed group of ranks executing matching
// collective calls.
//
// All collective methods are synchronous: every rank in the communicator
// must invoke the same method, in the same program order, with compatible
// arguments, or the group deadlocks. There is no cancellation and no
// partial completion; a contract violation detected locally panics, since
// one rank failing while its peers complete leaves divergent state that
// cannot be reconciled rank-locally.
package comm

// Communicator is one rank's view of a process group.
//
// The handle is shared, read-only state: it may be passed around freely
// within a rank, but a single collective call on it must not be entered
// concurrently from multiple goroutines.
type Communicator interface {
	// Rank returns this rank's index, 0 <= Rank() < Size().
	Rank() int

	// Size returns the number of ranks in the group.
	Size() int

	// Barrier blocks until every rank in the group has entered it.
	Barrier()

	// Allgather concatenates each rank's send vector into recv, ordered
	// by rank. Every rank must pass the same len(send), and recv must
	// hold Size()*len(send) elements.
	Allgather(send, recv []float64)

	// AllToAllv exchanges variable-sized chunks between all ranks.
	// Rank r sends send[sendDispls[q]:sendDispls[q]+sendCounts[q]] to
	// each rank q, and receives rank p's chunk into
	// recv[recvDispls[p]:recvDispls[p]+recvCounts[p]]. The count arrays
	// must agree pairwise across the group.
	AllToAllv(send []float64, sendCounts, sendDispls []int, recv []float64, recvCounts, recvDispls []int)

	// Split partitions the group into disjoint sub-groups, one per
	// distinct color, and returns this rank's communicator in its
	// sub-group. Ranks within a sub-group are ordered by (key, rank).
	// A negative color opts out: Split returns nil for that rank.
	// Split is itself collective over the full group.
	Split(color, key int) Communicator
}

// selfComm is the trivial single-rank communicator: every collective is a
// local copy.
type selfComm struct{}

// Self returns a communicator containing only the calling process.
func Self() Communicator { return selfComm{} }

func (selfComm) Rank() int { return 0 }
func (selfComm) Size() int { return 1 }
func (selfComm) Barrier()  {}

func (selfComm) Allgather(send, recv []float64) {
	copy(recv, send)
}

func (selfComm) AllToAllv(send []float64, sendCounts, sendDispls []int, recv []float64, recvCounts, recvDispls []int) {
	copy(recv[recvDispls[0]:recvDispls[0]+recvCounts[0]], send[sendDispls[0]:sendDispls[0]+sendCounts[0]])
}

func (selfComm) Split(color, key int) Communicator {
	if color < 0 {
		return nil
	}
	return Self()
}
