package tournament

import "runtime"

// partitionCPUs splits cpuList (or, when empty, every visible CPU 0..NumCPU()-1) into n disjoint, near-equal
// groups, round-robin, matching spec.md §4.7's "CPUs are partitioned into concurrency
// disjoint groups (respecting an explicit CPU list if provided)". The groups are pure
// bookkeeping: no process-affinity syscall exists anywhere in the retrieved pack, so
// pinning a child engine to its group is left unimplemented (see DESIGN.md) and
// Apple-family hosts are exempted by the caller before this is ever invoked.
func partitionCPUs(n int, cpuList []int) [][]int {
	if n <= 0 {
		return nil
	}
	cpus := cpuList
	if len(cpus) == 0 {
		cpus = make([]int, runtime.NumCPU())
		for i := range cpus {
			cpus[i] = i
		}
	}
	groups := make([][]int, n)
	for i, cpu := range cpus {
		g := i % n
		groups[g] = append(groups[g], cpu)
	}
	return groups
}
