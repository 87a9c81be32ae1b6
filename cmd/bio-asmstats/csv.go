package main

import (
	"bufio"
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/grailbio/asmstats/asmstats"
	"github.com/grailbio/base/errors"
)

var csvHeader = []string{
	"filename", "assembly_length", "number_of_sequences", "average_length",
	"largest_contig", "shortest_contig", "N50", "GC_percentage", "total_N", "N_percentage",
}

// writeCSV writes one ';'-separated row per result, preceded by the header
// row if header is set.  Percentages have seven decimals; the average
// length is rounded to the nearest base.
func writeCSV(w io.Writer, results []asmstats.Result, header bool) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	if header {
		if err := cw.Write(csvHeader); err != nil {
			return err
		}
	}
	u := func(v uint64) string { return strconv.FormatUint(v, 10) }
	pct := func(v float64) string { return strconv.FormatFloat(v, 'f', 7, 64) }
	for i := range results {
		r := &results[i]
		row := []string{
			r.Filename,
			u(r.TotalLength),
			strconv.Itoa(r.SequenceCount),
			u(uint64(math.Round(r.AverageLength()))),
			u(r.LargestContig),
			u(r.ShortestContig),
			u(r.N50.Length),
			pct(r.GCPercent()),
			u(r.NCount),
			pct(r.NPercent()),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// appendCSV appends results to the file at path under an exclusive lock, so
// that concurrent invocations sharing one file do not interleave rows.  The
// header is written when the file is empty.
func appendCSV(path string, results []asmstats.Result) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return errors.E(err, "open csv", path)
	}
	defer func() {
		if e := f.Close(); e != nil && err == nil {
			err = errors.E(e, "close csv", path)
		}
	}()
	unlock, err := lockFile(f)
	if err != nil {
		return errors.E(err, "lock csv", path)
	}
	defer unlock()
	info, err := f.Stat()
	if err != nil {
		return errors.E(err, "stat csv", path)
	}
	w := bufio.NewWriter(f)
	if err := writeCSV(w, results, info.Size() == 0); err != nil {
		return errors.E(err, "write csv", path)
	}
	if err := w.Flush(); err != nil {
		return errors.E(err, "write csv", path)
	}
	return nil
}
