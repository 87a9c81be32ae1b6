package asmstats

import "sort"

var nThresholds = [...]uint64{25, 50, 75}

// nStats computes N25, N50 and N75 from the contig lengths and their sum.
// lengths is sorted in place, longest first.  Nx is the length of the first
// contig at which the running sum reaches x% of total, compared exactly as
// sum*100 >= total*x.
func nStats(lengths []uint64, total uint64) (n [3]NValue) {
	if total == 0 {
		return
	}
	sort.Slice(lengths, func(i, j int) bool { return lengths[i] > lengths[j] })
	var (
		cum uint64
		t   int
	)
	for i, l := range lengths {
		cum += l
		for t < len(nThresholds) && cum*100 >= total*nThresholds[t] {
			n[t] = NValue{Length: l, Count: i + 1}
			t++
		}
		if t == len(nThresholds) {
			break
		}
	}
	return
}
