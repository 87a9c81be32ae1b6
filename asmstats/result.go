package asmstats

// NValue is one N-statistic: the contig length at which the cumulative
// length of the longest contigs reaches the threshold, and the number of
// contigs needed to reach it.
type NValue struct {
	Length uint64
	Count  int
}

// Result holds the statistics of one sequence stream.  All length fields
// count residues, i.e. sequence bytes other than whitespace and the gap
// characters '-' and '.'.
type Result struct {
	// Filename is the final path component of the file, or of the zip entry.
	Filename      string
	TotalLength   uint64
	SequenceCount int
	GCCount       uint64
	NCount        uint64
	// LargestContig and ShortestContig are 0 when SequenceCount is 0.
	LargestContig  uint64
	ShortestContig uint64
	N25, N50, N75  NValue
}

// AverageLength returns TotalLength/SequenceCount, or 0 when there are no
// sequences.
func (r *Result) AverageLength() float64 {
	if r.SequenceCount == 0 {
		return 0
	}
	return float64(r.TotalLength) / float64(r.SequenceCount)
}

// GCPercent returns the percentage of residues that are G or C, or 0 when
// TotalLength is 0.
func (r *Result) GCPercent() float64 {
	return percent(r.GCCount, r.TotalLength)
}

// NPercent returns the percentage of residues that are N, or 0 when
// TotalLength is 0.
func (r *Result) NPercent() float64 {
	return percent(r.NCount, r.TotalLength)
}

func percent(n, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}
