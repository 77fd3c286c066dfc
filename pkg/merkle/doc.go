// Package merkle implements the fixed-depth binary Merkle accumulator used
// to aggregate committed message leaves at a home contract and to produce
// inclusion proofs for the processor agent.
//
// Two representations are provided. LightTree keeps only the O(depth)
// frontier and is sufficient to track the current root. FullTree retains
// every populated node so it can also generate Proof values. Both variants
// must compute bit-identical roots for the same leaf sequence; that
// agreement is the property the accumulator test suite anchors on.
package merkle
