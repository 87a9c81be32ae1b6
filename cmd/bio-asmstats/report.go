package main

import (
	"fmt"
	"io"

	"github.com/grailbio/asmstats/asmstats"
)

// writeReport prints the human-readable report for one result.  Averages
// are truncated to whole bases.
func writeReport(w io.Writer, r *asmstats.Result, legacy bool) {
	if legacy {
		fmt.Fprintln(w)
	} else {
		fmt.Fprintf(w, "\nFile name:\t%s \n", r.Filename)
	}
	var avg uint64
	if r.SequenceCount > 0 {
		avg = r.TotalLength / uint64(r.SequenceCount)
	}
	fmt.Fprintf(w, "Total length of sequence:\t%d bp\n", r.TotalLength)
	fmt.Fprintf(w, "Total number of sequences:\t%d\n", r.SequenceCount)
	fmt.Fprintf(w, "Average contig length is:\t%d bp\n", avg)
	fmt.Fprintf(w, "Largest contig:\t\t%d bp\n", r.LargestContig)
	fmt.Fprintf(w, "Shortest contig:\t\t%d bp\n", r.ShortestContig)
	for _, n := range []struct {
		pct int
		v   asmstats.NValue
	}{{25, r.N25}, {50, r.N50}, {75, r.N75}} {
		fmt.Fprintf(w, "N%d stats:\t\t\t%d%% of total sequence length is contained in the %d sequences >= %d bp\n",
			n.pct, n.pct, n.v.Count, n.v.Length)
	}
	fmt.Fprintf(w, "Total GC count:\t\t\t%d bp\n", r.GCCount)
	fmt.Fprintf(w, "GC %%:\t\t\t\t%.2f %%\n", r.GCPercent())
	fmt.Fprintf(w, "Number of Ns:\t\t\t%d\n", r.NCount)
	fmt.Fprintf(w, "Ns %%:\t\t\t\t%.2f %%\n", r.NPercent())
}
